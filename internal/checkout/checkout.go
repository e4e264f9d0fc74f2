// Package checkout управляет сессиями оплаты заказов и фиксацией итоговой оплаты.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mmeshcher/giftcard-system/internal/metrics"
	"github.com/mmeshcher/giftcard-system/internal/model"
	"github.com/mmeshcher/giftcard-system/internal/money"
	"github.com/mmeshcher/giftcard-system/internal/payment"
	"github.com/mmeshcher/giftcard-system/internal/repository"
)

// ErrSessionNotFound возвращается при обращении к несуществующей или уже
// завершённой сессии оформления.
var (
	ErrSessionNotFound = errors.New("checkout session not found")
	// ErrPaymentIncomplete возвращается при попытке зафиксировать не полностью оплаченный заказ.
	ErrPaymentIncomplete = errors.New("order is not fully paid")
	// ErrReconciliationRequired возвращается, если списание с подарочной карты
	// уже зафиксировано в журнале, а запись оплаты заказа не удалась. Журнал —
	// источник истины и не откатывается; расхождение устраняет оператор вручную.
	ErrReconciliationRequired = errors.New("reconciliation required: ledger committed but order payment was not recorded")
	// ErrInvalidTotal возвращается при попытке начать сессию с отрицательной суммой заказа.
	ErrInvalidTotal = errors.New("order total must not be negative")
)

// Store описывает операции хранилища, используемые при фиксации оплаты.
type Store interface {
	SaveOrderPayment(ctx context.Context, rec *model.OrderPaymentRecord) error
	GetOrderPayment(ctx context.Context, orderRef string) (*model.OrderPaymentRecord, error)
}

// Status описывает текущее состояние сессии оформления.
type Status struct {
	OrderRef  string
	Total     int64
	Remaining int64
	Complete  bool
	Tenders   []model.TenderEntry
}

// Service управляет сессиями оформления: одна сессия — один композер платежей.
// Сессии живут только в памяти; брошенная сессия не оставляет следов в
// хранилище, кроме уже зафиксированных списаний с подарочных карт.
type Service struct {
	store     Store
	cards     payment.GiftCards
	gateway   payment.Gateway
	tolerance int64

	mu       sync.Mutex
	sessions map[string]*payment.Composer
}

// NewService создаёт оркестратор оформления заказов.
func NewService(store Store, cards payment.GiftCards, gateway payment.Gateway, nonCashTolerance int64) *Service {
	return &Service{
		store:     store,
		cards:     cards,
		gateway:   gateway,
		tolerance: nonCashTolerance,
		sessions:  make(map[string]*payment.Composer),
	}
}

// Begin начинает сессию оформления заказа с известной суммой и возвращает её идентификатор.
func (s *Service) Begin(orderRef string, totalCents int64) (string, error) {
	if totalCents < 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidTotal, money.Format(totalCents))
	}
	if orderRef == "" {
		return "", fmt.Errorf("order reference must not be empty")
	}

	sessionID := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = payment.NewComposer(orderRef, totalCents, s.cards, s.gateway, s.tolerance)

	return sessionID, nil
}

// Status возвращает текущее состояние сессии.
func (s *Service) Status(sessionID string) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	return s.status(c), nil
}

func (s *Service) status(c *payment.Composer) *Status {
	return &Status{
		OrderRef:  c.OrderRef(),
		Total:     c.Total(),
		Remaining: c.Remaining(),
		Complete:  s.complete(c),
		Tenders:   c.Entries(),
	}
}

// complete учитывает вырожденный случай заказа с нулевой суммой: такой заказ
// считается оплаченным без единого платежа.
func (s *Service) complete(c *payment.Composer) bool {
	return c.IsComplete() || c.Total() == 0
}

// AddCash принимает наличные и возвращает сдачу и состояние сессии.
func (s *Service) AddCash(sessionID string, amountCents int64) (int64, *Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return 0, nil, err
	}

	changeDue, err := c.AddCash(amountCents)
	if err != nil {
		return 0, nil, err
	}

	return changeDue, s.status(c), nil
}

// AddOffline принимает платёж на внутренний счёт.
func (s *Service) AddOffline(sessionID string, amountCents int64) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if err := c.AddOffline(amountCents); err != nil {
		return nil, err
	}

	return s.status(c), nil
}

// AddCardCharge проводит списание через платёжный шлюз.
func (s *Service) AddCardCharge(ctx context.Context, sessionID string, amountCents int64, currency, customerRef string) (string, *Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return "", nil, err
	}

	chargeRef, err := c.AddCardCharge(ctx, amountCents, currency, customerRef)
	if err != nil {
		return "", nil, err
	}

	return chargeRef, s.status(c), nil
}

// AddGiftCard списывает с подарочной карты сумму, ограниченную её балансом и
// остатком заказа. Возвращает списанную сумму, остаток баланса карты и состояние сессии.
func (s *Service) AddGiftCard(ctx context.Context, sessionID, number string, proposedCents int64) (int64, int64, *Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return 0, 0, nil, err
	}

	applied, balanceAfter, err := c.AddGiftCard(ctx, number, proposedCents)
	if err != nil {
		return 0, 0, nil, err
	}

	return applied, balanceAfter, s.status(c), nil
}

// RemoveTender удаляет запись платежа из сессии. Отмену внешнего списания или
// компенсацию списания с карты вызывающий выполняет до удаления записи.
func (s *Service) RemoveTender(sessionID string, index int) (model.TenderEntry, *Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.session(sessionID)
	if err != nil {
		return model.TenderEntry{}, nil, err
	}

	entry, err := c.RemoveTender(index)
	if err != nil {
		return model.TenderEntry{}, nil, err
	}

	return entry, s.status(c), nil
}

// Finalize фиксирует оплату полностью оплаченного заказа ровно один раз и
// завершает сессию. Списания с подарочных карт уже зафиксированы в журнале в
// момент их проведения и здесь повторно не применяются. Если запись оплаты не
// удалась после состоявшегося списания с карты, возвращается
// ErrReconciliationRequired: журнал не откатывается.
func (s *Service) Finalize(ctx context.Context, sessionID string) (*model.OrderPaymentRecord, error) {
	s.mu.Lock()
	c, err := s.session(sessionID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if !s.complete(c) {
		remaining := c.Remaining()
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: remaining %s", ErrPaymentIncomplete, money.Format(remaining))
	}

	rec := &model.OrderPaymentRecord{
		OrderRef: c.OrderRef(),
		Total:    c.Total(),
		Tenders:  c.Entries(),
	}
	s.mu.Unlock()

	if err := s.store.SaveOrderPayment(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrPaymentExists) {
			return nil, err
		}
		if hasGiftCardTender(rec.Tenders) {
			return nil, fmt.Errorf("%w: order %s: %v", ErrReconciliationRequired, rec.OrderRef, err)
		}
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	metrics.CheckoutsFinalized.Inc()
	return rec, nil
}

// Payment возвращает ранее зафиксированную оплату заказа.
func (s *Service) Payment(ctx context.Context, orderRef string) (*model.OrderPaymentRecord, error) {
	return s.store.GetOrderPayment(ctx, orderRef)
}

// Abandon завершает сессию без фиксации оплаты. Уже состоявшиеся списания с
// подарочных карт не отменяются автоматически: компенсацию выполняет
// вызывающий корректировкой баланса карты.
func (s *Service) Abandon(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	delete(s.sessions, sessionID)
	return nil
}

// session возвращает композер сессии. Вызывается под s.mu.
func (s *Service) session(sessionID string) (*payment.Composer, error) {
	c, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return c, nil
}

func hasGiftCardTender(tenders []model.TenderEntry) bool {
	for _, t := range tenders {
		if t.Method == model.TenderGiftCard {
			return true
		}
	}
	return false
}
