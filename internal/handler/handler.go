// Package handler содержит HTTP-обработчики API сервиса подарочных карт.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/giftcard-system/internal/checkout"
	"github.com/mmeshcher/giftcard-system/internal/gateway"
	"github.com/mmeshcher/giftcard-system/internal/middleware"
	"github.com/mmeshcher/giftcard-system/internal/model"
	"github.com/mmeshcher/giftcard-system/internal/money"
	"github.com/mmeshcher/giftcard-system/internal/payment"
	"github.com/mmeshcher/giftcard-system/internal/repository"
	"github.com/mmeshcher/giftcard-system/internal/service"
	"github.com/mmeshcher/giftcard-system/internal/validation"

	"github.com/go-chi/chi/v5"
)

// GiftCardService определяет контракт операций с подарочными картами, используемый обработчиками.
type GiftCardService interface {
	ProvisionPhysical(ctx context.Context, expiresAt *time.Time) (*model.GiftCard, error)
	Activate(ctx context.Context, number string, amountCents int64, purchasedBy, operatorRef string) (*model.GiftCard, error)
	PurchaseAndIssue(ctx context.Context, amountCents int64, recipientEmail, recipientName, purchasedBy, operatorRef string) (*model.GiftCard, error)
	CheckBalance(ctx context.Context, number string) (*model.GiftCard, error)
	Redeem(ctx context.Context, number string, amountCents int64, orderRef, operatorRef string) (*model.GiftCard, *model.LedgerTransaction, error)
	Adjust(ctx context.Context, number string, amountCents int64, note, orderRef, operatorRef string) (*model.GiftCard, *model.LedgerTransaction, error)
	Deactivate(ctx context.Context, number, operatorRef string) (*model.GiftCard, error)
	Transactions(ctx context.Context, number string) ([]model.LedgerTransaction, error)
}

// CheckoutService определяет контракт управления сессиями оформления заказов.
type CheckoutService interface {
	Begin(orderRef string, totalCents int64) (string, error)
	Status(sessionID string) (*checkout.Status, error)
	AddCash(sessionID string, amountCents int64) (int64, *checkout.Status, error)
	AddOffline(sessionID string, amountCents int64) (*checkout.Status, error)
	AddCardCharge(ctx context.Context, sessionID string, amountCents int64, currency, customerRef string) (string, *checkout.Status, error)
	AddGiftCard(ctx context.Context, sessionID, number string, proposedCents int64) (int64, int64, *checkout.Status, error)
	RemoveTender(sessionID string, index int) (model.TenderEntry, *checkout.Status, error)
	Finalize(ctx context.Context, sessionID string) (*model.OrderPaymentRecord, error)
	Payment(ctx context.Context, orderRef string) (*model.OrderPaymentRecord, error)
	Abandon(sessionID string) error
}

// Handler реализует HTTP-обработчики API сервиса подарочных карт.
type Handler struct {
	giftcards GiftCardService
	checkout  CheckoutService
	logger    *zap.Logger
	operator  *middleware.OperatorMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(giftcards GiftCardService, co CheckoutService, logger *zap.Logger, operator *middleware.OperatorMiddleware) *Handler {
	return &Handler{
		giftcards: giftcards,
		checkout:  co,
		logger:    logger,
		operator:  operator,
	}
}

type cardResponse struct {
	Number         string  `json:"number"`
	Kind           string  `json:"kind"`
	Status         string  `json:"status"`
	InitialValue   float64 `json:"initial_value"`
	Balance        float64 `json:"balance"`
	RecipientEmail string  `json:"recipient_email,omitempty"`
	RecipientName  string  `json:"recipient_name,omitempty"`
	PurchasedBy    string  `json:"purchased_by,omitempty"`
	ExpiresAt      string  `json:"expires_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toCardResponse(card *model.GiftCard) cardResponse {
	resp := cardResponse{
		Number:         card.Number,
		Kind:           string(card.Kind),
		Status:         string(card.Status),
		InitialValue:   money.FromCents(card.InitialValue),
		Balance:        money.FromCents(card.Balance),
		RecipientEmail: card.RecipientEmail,
		RecipientName:  card.RecipientName,
		PurchasedBy:    card.PurchasedBy,
		CreatedAt:      card.CreatedAt.Format(time.RFC3339),
	}
	if card.ExpiresAt != nil {
		resp.ExpiresAt = card.ExpiresAt.Format(time.RFC3339)
	}
	return resp
}

type transactionResponse struct {
	ID           int64   `json:"id"`
	Kind         string  `json:"kind"`
	Amount       float64 `json:"amount"`
	BalanceAfter float64 `json:"balance_after"`
	Order        string  `json:"order,omitempty"`
	Operator     string  `json:"operator,omitempty"`
	Note         string  `json:"note,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toTransactionResponse(txn *model.LedgerTransaction) transactionResponse {
	return transactionResponse{
		ID:           txn.ID,
		Kind:         string(txn.Kind),
		Amount:       money.FromCents(txn.Amount),
		BalanceAfter: money.FromCents(txn.BalanceAfter),
		Order:        txn.OrderRef,
		Operator:     txn.OperatorRef,
		Note:         txn.Note,
		CreatedAt:    txn.CreatedAt.Format(time.RFC3339),
	}
}

type provisionRequest struct {
	ExpiresAt string `json:"expires_at,omitempty"`
}

// ProvisionCard создаёт предвыпущенную физическую карту в статусе INACTIVE.
func (h *Handler) ProvisionCard(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			http.Error(w, "invalid expires_at", http.StatusBadRequest)
			return
		}
		expiresAt = &t
	}

	card, err := h.giftcards.ProvisionPhysical(r.Context(), expiresAt)
	if err != nil {
		h.writeError(w, err, "provision card")
		return
	}

	h.writeJSON(w, http.StatusCreated, toCardResponse(card))
}

type purchaseRequest struct {
	Amount         json.Number `json:"amount"`
	RecipientEmail string      `json:"recipient_email,omitempty"`
	RecipientName  string      `json:"recipient_name,omitempty"`
	PurchasedBy    string      `json:"purchased_by,omitempty"`
}

// PurchaseCard выпускает цифровую карту сразу в статусе ACTIVE.
func (h *Handler) PurchaseCard(w http.ResponseWriter, r *http.Request) {
	operatorRef, ok := middleware.GetOperatorRefFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount, ok := h.amountCents(w, req.Amount)
	if !ok {
		return
	}

	card, err := h.giftcards.PurchaseAndIssue(r.Context(), amount,
		req.RecipientEmail, req.RecipientName, req.PurchasedBy, operatorRef)
	if err != nil {
		h.writeError(w, err, "purchase card")
		return
	}

	h.writeJSON(w, http.StatusCreated, toCardResponse(card))
}

type activateRequest struct {
	Amount      json.Number `json:"amount"`
	PurchasedBy string      `json:"purchased_by,omitempty"`
}

// ActivateCard активирует предвыпущенную физическую карту на указанный номинал.
func (h *Handler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	operatorRef, ok := middleware.GetOperatorRefFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount, ok := h.amountCents(w, req.Amount)
	if !ok {
		return
	}

	card, err := h.giftcards.Activate(r.Context(), number, amount, req.PurchasedBy, operatorRef)
	if err != nil {
		h.writeError(w, err, "activate card", zap.String("card", number))
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// GetBalance возвращает текущий баланс карты.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	card, err := h.giftcards.CheckBalance(r.Context(), number)
	if err != nil {
		h.writeError(w, err, "check balance", zap.String("card", number))
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

type redeemRequest struct {
	Amount json.Number `json:"amount"`
	Order  string      `json:"order"`
}

type redeemResponse struct {
	Number      string              `json:"number"`
	Status      string              `json:"status"`
	Balance     float64             `json:"balance"`
	Transaction transactionResponse `json:"transaction"`
}

// RedeemCard списывает сумму с карты в счёт заказа.
func (h *Handler) RedeemCard(w http.ResponseWriter, r *http.Request) {
	operatorRef, ok := middleware.GetOperatorRefFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount, ok := h.amountCents(w, req.Amount)
	if !ok {
		return
	}

	card, txn, err := h.giftcards.Redeem(r.Context(), number, amount, req.Order, operatorRef)
	if err != nil {
		h.writeError(w, err, "redeem card", zap.String("card", number), zap.String("order", req.Order))
		return
	}

	h.writeJSON(w, http.StatusOK, redeemResponse{
		Number:      card.Number,
		Status:      string(card.Status),
		Balance:     money.FromCents(card.Balance),
		Transaction: toTransactionResponse(txn),
	})
}

type adjustRequest struct {
	Amount json.Number `json:"amount"`
	Note   string      `json:"note,omitempty"`
	Order  string      `json:"order,omitempty"`
}

// AdjustCard выполняет знаковую корректировку баланса карты.
func (h *Handler) AdjustCard(w http.ResponseWriter, r *http.Request) {
	operatorRef, ok := middleware.GetOperatorRefFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount, ok := h.amountCents(w, req.Amount)
	if !ok {
		return
	}

	card, txn, err := h.giftcards.Adjust(r.Context(), number, amount, req.Note, req.Order, operatorRef)
	if err != nil {
		h.writeError(w, err, "adjust card", zap.String("card", number))
		return
	}

	h.writeJSON(w, http.StatusOK, redeemResponse{
		Number:      card.Number,
		Status:      string(card.Status),
		Balance:     money.FromCents(card.Balance),
		Transaction: toTransactionResponse(txn),
	})
}

// DeactivateCard отзывает активную карту.
func (h *Handler) DeactivateCard(w http.ResponseWriter, r *http.Request) {
	operatorRef, ok := middleware.GetOperatorRefFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	card, err := h.giftcards.Deactivate(r.Context(), number, operatorRef)
	if err != nil {
		h.writeError(w, err, "deactivate card", zap.String("card", number))
		return
	}

	h.writeJSON(w, http.StatusOK, toCardResponse(card))
}

// GetTransactions возвращает журнал операций карты.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	number, ok := h.cardNumber(w, r)
	if !ok {
		return
	}

	txns, err := h.giftcards.Transactions(r.Context(), number)
	if err != nil {
		h.writeError(w, err, "get transactions", zap.String("card", number))
		return
	}

	if len(txns) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		resp = append(resp, toTransactionResponse(&txns[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type beginCheckoutRequest struct {
	Order string      `json:"order"`
	Total json.Number `json:"total"`
}

type tenderResponse struct {
	Method     string  `json:"method"`
	Amount     float64 `json:"amount"`
	ChangeDue  float64 `json:"change_due,omitempty"`
	ChargeRef  string  `json:"charge_ref,omitempty"`
	CardNumber string  `json:"card_number,omitempty"`
}

type checkoutStatusResponse struct {
	SessionID string           `json:"session_id,omitempty"`
	Order     string           `json:"order"`
	Total     float64          `json:"total"`
	Remaining float64          `json:"remaining"`
	Complete  bool             `json:"complete"`
	Tenders   []tenderResponse `json:"tenders,omitempty"`
}

func toCheckoutStatusResponse(sessionID string, st *checkout.Status) checkoutStatusResponse {
	resp := checkoutStatusResponse{
		SessionID: sessionID,
		Order:     st.OrderRef,
		Total:     money.FromCents(st.Total),
		Remaining: money.FromCents(st.Remaining),
		Complete:  st.Complete,
	}
	for _, t := range st.Tenders {
		resp.Tenders = append(resp.Tenders, tenderResponse{
			Method:     string(t.Method),
			Amount:     money.FromCents(t.Amount),
			ChangeDue:  money.FromCents(t.ChangeDue),
			ChargeRef:  t.ChargeRef,
			CardNumber: t.CardNumber,
		})
	}
	return resp
}

// BeginCheckout начинает сессию оформления заказа.
func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	var req beginCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Order == "" {
		http.Error(w, "order must not be empty", http.StatusBadRequest)
		return
	}

	total, ok := h.amountCents(w, req.Total)
	if !ok {
		return
	}

	sessionID, err := h.checkout.Begin(req.Order, total)
	if err != nil {
		h.writeError(w, err, "begin checkout", zap.String("order", req.Order))
		return
	}

	st, err := h.checkout.Status(sessionID)
	if err != nil {
		h.writeError(w, err, "begin checkout", zap.String("order", req.Order))
		return
	}

	h.writeJSON(w, http.StatusCreated, toCheckoutStatusResponse(sessionID, st))
}

// CheckoutStatus возвращает текущее состояние сессии оформления.
func (h *Handler) CheckoutStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	st, err := h.checkout.Status(sessionID)
	if err != nil {
		h.writeError(w, err, "checkout status", zap.String("session", sessionID))
		return
	}

	h.writeJSON(w, http.StatusOK, toCheckoutStatusResponse(sessionID, st))
}

type addTenderRequest struct {
	Method      string      `json:"method"`
	Amount      json.Number `json:"amount"`
	CardNumber  string      `json:"card_number,omitempty"`
	Currency    string      `json:"currency,omitempty"`
	CustomerRef string      `json:"customer_ref,omitempty"`
}

type addTenderResponse struct {
	checkoutStatusResponse
	ChangeDue   float64 `json:"change_due,omitempty"`
	ChargeRef   string  `json:"charge_ref,omitempty"`
	Applied     float64 `json:"applied,omitempty"`
	CardBalance float64 `json:"card_balance"`
}

// AddTender принимает один платёж в счёт заказа.
func (h *Handler) AddTender(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req addTenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	amount, ok := h.amountCents(w, req.Amount)
	if !ok {
		return
	}
	resp := addTenderResponse{}

	switch model.TenderMethod(req.Method) {
	case model.TenderCash:
		changeDue, st, err := h.checkout.AddCash(sessionID, amount)
		if err != nil {
			h.writeError(w, err, "add cash tender", zap.String("session", sessionID))
			return
		}
		resp.checkoutStatusResponse = toCheckoutStatusResponse(sessionID, st)
		resp.ChangeDue = money.FromCents(changeDue)

	case model.TenderOffline:
		st, err := h.checkout.AddOffline(sessionID, amount)
		if err != nil {
			h.writeError(w, err, "add offline tender", zap.String("session", sessionID))
			return
		}
		resp.checkoutStatusResponse = toCheckoutStatusResponse(sessionID, st)

	case model.TenderCard:
		currency := req.Currency
		if currency == "" {
			currency = "USD"
		}
		chargeRef, st, err := h.checkout.AddCardCharge(r.Context(), sessionID, amount, currency, req.CustomerRef)
		if err != nil {
			h.writeError(w, err, "add card tender", zap.String("session", sessionID))
			return
		}
		resp.checkoutStatusResponse = toCheckoutStatusResponse(sessionID, st)
		resp.ChargeRef = chargeRef

	case model.TenderGiftCard:
		number := validation.NormalizeCardNumber(req.CardNumber)
		if !validation.IsValidCardNumber(number) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		applied, balanceAfter, st, err := h.checkout.AddGiftCard(r.Context(), sessionID, number, amount)
		if err != nil {
			h.writeError(w, err, "add gift card tender", zap.String("session", sessionID), zap.String("card", number))
			return
		}
		resp.checkoutStatusResponse = toCheckoutStatusResponse(sessionID, st)
		resp.Applied = money.FromCents(applied)
		resp.CardBalance = money.FromCents(balanceAfter)

	default:
		http.Error(w, "unknown tender method", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// RemoveTender удаляет запись платежа из сессии по индексу.
func (h *Handler) RemoveTender(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid tender index", http.StatusBadRequest)
		return
	}

	_, st, err := h.checkout.RemoveTender(sessionID, index)
	if err != nil {
		h.writeError(w, err, "remove tender", zap.String("session", sessionID), zap.Int("index", index))
		return
	}

	h.writeJSON(w, http.StatusOK, toCheckoutStatusResponse(sessionID, st))
}

type paymentResponse struct {
	Order     string           `json:"order"`
	Total     float64          `json:"total"`
	Tenders   []tenderResponse `json:"tenders,omitempty"`
	CreatedAt string           `json:"created_at"`
}

func toPaymentResponse(rec *model.OrderPaymentRecord) paymentResponse {
	resp := paymentResponse{
		Order:     rec.OrderRef,
		Total:     money.FromCents(rec.Total),
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	}
	for _, t := range rec.Tenders {
		resp.Tenders = append(resp.Tenders, tenderResponse{
			Method:     string(t.Method),
			Amount:     money.FromCents(t.Amount),
			ChangeDue:  money.FromCents(t.ChangeDue),
			ChargeRef:  t.ChargeRef,
			CardNumber: t.CardNumber,
		})
	}
	return resp
}

// FinalizeCheckout фиксирует оплату полностью оплаченного заказа и завершает сессию.
func (h *Handler) FinalizeCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	rec, err := h.checkout.Finalize(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err, "finalize checkout", zap.String("session", sessionID))
		return
	}

	h.writeJSON(w, http.StatusOK, toPaymentResponse(rec))
}

// GetOrderPayment возвращает ранее зафиксированную оплату заказа.
func (h *Handler) GetOrderPayment(w http.ResponseWriter, r *http.Request) {
	orderRef := chi.URLParam(r, "orderRef")

	rec, err := h.checkout.Payment(r.Context(), orderRef)
	if err != nil {
		h.writeError(w, err, "get order payment", zap.String("order", orderRef))
		return
	}

	h.writeJSON(w, http.StatusOK, toPaymentResponse(rec))
}

// AbandonCheckout завершает сессию без фиксации оплаты.
func (h *Handler) AbandonCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.checkout.Abandon(sessionID); err != nil {
		h.writeError(w, err, "abandon checkout", zap.String("session", sessionID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// amountCents разбирает денежное поле запроса по его десятичной записи, без
// прохода через float64. Отсутствующее поле трактуется как ноль.
func (h *Handler) amountCents(w http.ResponseWriter, value json.Number) (int64, bool) {
	if value == "" {
		return 0, true
	}

	cents, err := money.ParseDecimal(value.String())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return cents, true
}

// cardNumber извлекает и валидирует номер карты из пути запроса.
func (h *Handler) cardNumber(w http.ResponseWriter, r *http.Request) (string, bool) {
	number := validation.NormalizeCardNumber(chi.URLParam(r, "number"))
	if !validation.IsValidCardNumber(number) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return "", false
	}
	return number, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

// writeError преобразует типизированные ошибки ядра в HTTP-статусы.
// ErrReconciliationRequired — единственная эскалируемая ошибка: журнал уже
// зафиксировал необратимое изменение, её нельзя молча ретраить.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, checkout.ErrReconciliationRequired):
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, err.Error(), http.StatusInternalServerError)

	case errors.Is(err, repository.ErrCardNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, checkout.ErrSessionNotFound),
		errors.Is(err, payment.ErrTenderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, gateway.ErrDeclined):
		http.Error(w, err.Error(), http.StatusPaymentRequired)

	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, payment.ErrCannotOverpay),
		errors.Is(err, checkout.ErrPaymentIncomplete),
		errors.Is(err, repository.ErrPaymentExists):
		http.Error(w, err.Error(), http.StatusConflict)

	case errors.Is(err, service.ErrAmountOutOfRange),
		errors.Is(err, payment.ErrTenderAmount),
		errors.Is(err, checkout.ErrInvalidTotal):
		http.Error(w, err.Error(), http.StatusBadRequest)

	default:
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
