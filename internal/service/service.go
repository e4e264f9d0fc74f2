// Package service реализует машину состояний подарочных карт поверх хранилища журнала.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmeshcher/giftcard-system/internal/metrics"
	"github.com/mmeshcher/giftcard-system/internal/model"
	"github.com/mmeshcher/giftcard-system/internal/money"
	"github.com/mmeshcher/giftcard-system/internal/repository"
	"github.com/mmeshcher/giftcard-system/internal/validation"
)

// Границы номиналов в центах.
const (
	activationMin = 1000   // 10.00
	activationMax = 100000 // 1000.00
	purchaseMin   = 2500   // 25.00
	purchaseMax   = 30000  // 300.00
)

// maxGenerationAttempts ограничивает число попыток сгенерировать уникальный номер карты.
const maxGenerationAttempts = 10

// ErrInvalidState возвращается, если операция недопустима для текущего статуса карты.
var (
	ErrInvalidState = errors.New("operation not allowed for card status")
	// ErrInsufficientBalance возвращается, если операция увела бы баланс карты в минус.
	ErrInsufficientBalance = errors.New("insufficient card balance")
	// ErrAmountOutOfRange возвращается, если сумма операции вне допустимых границ.
	ErrAmountOutOfRange = errors.New("amount out of allowed range")
	// ErrGenerationExhausted возвращается, если не удалось сгенерировать уникальный номер карты.
	ErrGenerationExhausted = errors.New("card number generation attempts exhausted")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateCard(ctx context.Context, card *model.GiftCard, txn *model.LedgerTransaction) error
	GetCardByNumber(ctx context.Context, number string) (*model.GiftCard, error)
	ApplyTransaction(ctx context.Context, number string, apply func(card *model.GiftCard) (*model.LedgerTransaction, error)) (*model.GiftCard, *model.LedgerTransaction, error)
	GetTransactionsByCard(ctx context.Context, number string) ([]model.LedgerTransaction, error)
}

// Service реализует операции над подарочными картами.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ProvisionPhysical создаёт предвыпущенную физическую карту в статусе INACTIVE.
// Номинал и баланс определяются позже, при активации; журнал до активации пуст.
func (s *Service) ProvisionPhysical(ctx context.Context, expiresAt *time.Time) (*model.GiftCard, error) {
	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		number, err := generateCardNumber("GC")
		if err != nil {
			return nil, err
		}

		card := &model.GiftCard{
			Number:    number,
			Kind:      model.CardKindPhysical,
			Status:    model.CardStatusInactive,
			ExpiresAt: expiresAt,
		}

		err = s.repo.CreateCard(ctx, card, nil)
		if err != nil {
			if errors.Is(err, repository.ErrCardExists) {
				continue
			}
			return nil, err
		}

		metrics.CardsIssued.WithLabelValues(string(model.CardKindPhysical)).Inc()
		return card, nil
	}

	return nil, fmt.Errorf("%w: %d attempts", ErrGenerationExhausted, maxGenerationAttempts)
}

// Activate активирует предвыпущенную физическую карту на указанный номинал.
func (s *Service) Activate(ctx context.Context, number string, amountCents int64, purchasedBy, operatorRef string) (*model.GiftCard, error) {
	if amountCents < activationMin || amountCents > activationMax {
		return nil, fmt.Errorf("%w: activation amount must be between %s and %s",
			ErrAmountOutOfRange, money.Format(activationMin), money.Format(activationMax))
	}

	card, _, err := s.repo.ApplyTransaction(ctx, number, func(card *model.GiftCard) (*model.LedgerTransaction, error) {
		if st := s.effectiveStatus(card); st != model.CardStatusInactive {
			return nil, invalidStateError(card.Number, st, model.CardStatusInactive)
		}

		card.InitialValue = amountCents
		card.Balance = amountCents
		card.Status = model.CardStatusActive
		if purchasedBy != "" {
			card.PurchasedBy = purchasedBy
		}

		return &model.LedgerTransaction{
			Kind:         model.TxnActivation,
			Amount:       amountCents,
			BalanceAfter: amountCents,
			OperatorRef:  operatorRef,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Activations.Inc()
	return card, nil
}

// PurchaseAndIssue выпускает цифровую карту: генерирует уникальный номер и
// создаёт карту сразу в статусе ACTIVE с указанным балансом.
func (s *Service) PurchaseAndIssue(ctx context.Context, amountCents int64, recipientEmail, recipientName, purchasedBy, operatorRef string) (*model.GiftCard, error) {
	if amountCents < purchaseMin || amountCents > purchaseMax {
		return nil, fmt.Errorf("%w: purchase amount must be between %s and %s",
			ErrAmountOutOfRange, money.Format(purchaseMin), money.Format(purchaseMax))
	}

	for attempt := 0; attempt < maxGenerationAttempts; attempt++ {
		number, err := generateCardNumber("EGC")
		if err != nil {
			return nil, err
		}

		card := &model.GiftCard{
			Number:         number,
			Kind:           model.CardKindDigital,
			Status:         model.CardStatusActive,
			InitialValue:   amountCents,
			Balance:        amountCents,
			RecipientEmail: recipientEmail,
			RecipientName:  recipientName,
			PurchasedBy:    purchasedBy,
		}
		txn := &model.LedgerTransaction{
			Kind:         model.TxnPurchase,
			Amount:       amountCents,
			BalanceAfter: amountCents,
			OperatorRef:  operatorRef,
		}

		err = s.repo.CreateCard(ctx, card, txn)
		if err != nil {
			if errors.Is(err, repository.ErrCardExists) {
				continue
			}
			return nil, err
		}

		metrics.CardsIssued.WithLabelValues(string(model.CardKindDigital)).Inc()
		return card, nil
	}

	return nil, fmt.Errorf("%w: %d attempts", ErrGenerationExhausted, maxGenerationAttempts)
}

// CheckBalance возвращает карту с текущим балансом. Для карт в статусах
// INACTIVE, CANCELLED и EXPIRED возвращается ошибка ErrInvalidState.
func (s *Service) CheckBalance(ctx context.Context, number string) (*model.GiftCard, error) {
	card, err := s.repo.GetCardByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	switch st := s.effectiveStatus(card); st {
	case model.CardStatusInactive, model.CardStatusCancelled, model.CardStatusExpired:
		return nil, invalidStateError(card.Number, st, model.CardStatusActive)
	}

	return card, nil
}

// Redeem списывает сумму с карты в счёт заказа. При нулевом остатке карта
// переходит в статус USED. Списание фиксируется в журнале отрицательной суммой.
func (s *Service) Redeem(ctx context.Context, number string, amountCents int64, orderRef, operatorRef string) (*model.GiftCard, *model.LedgerTransaction, error) {
	if amountCents <= 0 {
		return nil, nil, fmt.Errorf("%w: redemption amount must be positive", ErrAmountOutOfRange)
	}

	card, txn, err := s.repo.ApplyTransaction(ctx, number, func(card *model.GiftCard) (*model.LedgerTransaction, error) {
		// Полностью погашенная карта — это исчерпанный баланс, а не запретный
		// статус: попытка списания с USED отвечает нехваткой средств.
		switch st := s.effectiveStatus(card); st {
		case model.CardStatusActive:
		case model.CardStatusUsed:
			return nil, fmt.Errorf("%w: available %s", ErrInsufficientBalance, money.Format(card.Balance))
		default:
			return nil, invalidStateError(card.Number, st, model.CardStatusActive)
		}

		if amountCents > card.Balance {
			return nil, fmt.Errorf("%w: available %s", ErrInsufficientBalance, money.Format(card.Balance))
		}

		card.Balance -= amountCents
		if card.Balance == 0 {
			card.Status = model.CardStatusUsed
		}

		return &model.LedgerTransaction{
			Kind:         model.TxnRedemption,
			Amount:       -amountCents,
			BalanceAfter: card.Balance,
			OrderRef:     orderRef,
			OperatorRef:  operatorRef,
		}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	metrics.Redemptions.Inc()
	return card, txn, nil
}

// Adjust выполняет знаковую корректировку баланса карты. Положительная
// корректировка с указанным заказом фиксируется в журнале как REFUND,
// остальные — как ADJUSTMENT. Карта со статусом USED при положительной
// корректировке возвращается в ACTIVE.
func (s *Service) Adjust(ctx context.Context, number string, amountCents int64, note, orderRef, operatorRef string) (*model.GiftCard, *model.LedgerTransaction, error) {
	if amountCents == 0 {
		return nil, nil, fmt.Errorf("%w: adjustment amount must not be zero", ErrAmountOutOfRange)
	}

	return s.repo.ApplyTransaction(ctx, number, func(card *model.GiftCard) (*model.LedgerTransaction, error) {
		st := s.effectiveStatus(card)
		if st != model.CardStatusActive && st != model.CardStatusUsed {
			return nil, invalidStateError(card.Number, st, model.CardStatusActive)
		}

		newBalance := card.Balance + amountCents
		if newBalance < 0 {
			return nil, fmt.Errorf("%w: available %s", ErrInsufficientBalance, money.Format(card.Balance))
		}
		if newBalance > card.InitialValue {
			return nil, fmt.Errorf("%w: balance must not exceed initial value %s",
				ErrAmountOutOfRange, money.Format(card.InitialValue))
		}

		card.Balance = newBalance
		if card.Balance == 0 {
			card.Status = model.CardStatusUsed
		} else {
			card.Status = model.CardStatusActive
		}

		kind := model.TxnAdjustment
		if amountCents > 0 && orderRef != "" {
			kind = model.TxnRefund
		}

		return &model.LedgerTransaction{
			Kind:         kind,
			Amount:       amountCents,
			BalanceAfter: card.Balance,
			OrderRef:     orderRef,
			OperatorRef:  operatorRef,
			Note:         note,
		}, nil
	})
}

// Deactivate отзывает активную карту. Статус CANCELLED терминален;
// баланс карты не меняется, в журнал пишется нулевая запись DEACTIVATION.
func (s *Service) Deactivate(ctx context.Context, number, operatorRef string) (*model.GiftCard, error) {
	card, _, err := s.repo.ApplyTransaction(ctx, number, func(card *model.GiftCard) (*model.LedgerTransaction, error) {
		if st := s.effectiveStatus(card); st != model.CardStatusActive {
			return nil, invalidStateError(card.Number, st, model.CardStatusActive)
		}

		card.Status = model.CardStatusCancelled

		return &model.LedgerTransaction{
			Kind:         model.TxnDeactivation,
			Amount:       0,
			BalanceAfter: card.Balance,
			OperatorRef:  operatorRef,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return card, nil
}

// Transactions возвращает журнал операций карты в порядке их фиксации.
func (s *Service) Transactions(ctx context.Context, number string) ([]model.LedgerTransaction, error) {
	return s.repo.GetTransactionsByCard(ctx, number)
}

// effectiveStatus возвращает статус карты с учётом истечения срока действия.
// Просроченная активная карта считается EXPIRED без записи в хранилище:
// отдельной операции истечения в модели нет.
func (s *Service) effectiveStatus(card *model.GiftCard) model.CardStatus {
	if card.Status == model.CardStatusActive && card.ExpiresAt != nil && card.ExpiresAt.Before(s.now()) {
		return model.CardStatusExpired
	}
	return card.Status
}

func invalidStateError(number string, actual, required model.CardStatus) error {
	return fmt.Errorf("%w: card %s is %s, requires %s", ErrInvalidState, number, actual, required)
}

// generateCardNumber генерирует номер карты: префикс и три группы по четыре
// случайных символа из validation.CardAlphabet.
func generateCardNumber(prefix string) (string, error) {
	const length = 12

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}

	var b strings.Builder
	b.WriteString(prefix)
	for i, ch := range buf {
		if i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(validation.CardAlphabet[int(ch)%len(validation.CardAlphabet)])
	}

	return b.String(), nil
}
