// Package payment реализует накопление платежей разных видов в счёт суммы заказа.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/giftcard-system/internal/model"
	"github.com/mmeshcher/giftcard-system/internal/money"
	"github.com/mmeshcher/giftcard-system/internal/service"
)

// ErrTenderAmount возвращается, если сумма платежа не положительна.
var (
	ErrTenderAmount = errors.New("tender amount must be positive")
	// ErrCannotOverpay возвращается, если безналичный платёж превышает остаток
	// сверх допуска. Наличные превышать остаток могут: сдача фиксируется в записи платежа.
	ErrCannotOverpay = errors.New("cannot overpay with non-cash tender")
	// ErrTenderNotFound возвращается при обращении к несуществующей записи платежа.
	ErrTenderNotFound = errors.New("tender entry not found")
)

// GiftCards описывает операции сервиса подарочных карт, используемые композером.
type GiftCards interface {
	CheckBalance(ctx context.Context, number string) (*model.GiftCard, error)
	Redeem(ctx context.Context, number string, amountCents int64, orderRef, operatorRef string) (*model.GiftCard, *model.LedgerTransaction, error)
}

// Gateway описывает внешний шлюз списания с банковской карты.
// Возвращает ссылку на успешное списание либо ошибку без локальных побочных эффектов.
type Gateway interface {
	Charge(ctx context.Context, amountCents int64, currency, customerRef string) (string, error)
}

// Composer накапливает платежи одной кассовой сессии в счёт фиксированной
// суммы заказа. Композер не выполняет ввод-вывод сам по себе и не
// потокобезопасен: одна сессия оформления — один вызывающий.
type Composer struct {
	orderRef  string
	total     int64
	tolerance int64
	cards     GiftCards
	gateway   Gateway
	entries   []model.TenderEntry
}

// NewComposer создаёт композер для заказа с известной суммой в центах.
func NewComposer(orderRef string, totalCents int64, cards GiftCards, gateway Gateway, nonCashTolerance int64) *Composer {
	return &Composer{
		orderRef:  orderRef,
		total:     totalCents,
		tolerance: nonCashTolerance,
		cards:     cards,
		gateway:   gateway,
	}
}

// OrderRef возвращает номер заказа.
func (c *Composer) OrderRef() string {
	return c.orderRef
}

// Total возвращает сумму заказа в центах.
func (c *Composer) Total() int64 {
	return c.total
}

// Remaining возвращает неоплаченный остаток. Остаток никогда не отрицателен.
func (c *Composer) Remaining() int64 {
	sum := int64(0)
	for _, e := range c.entries {
		sum += e.Amount
	}
	if sum >= c.total {
		return 0
	}
	return c.total - sum
}

// IsComplete сообщает, оплачен ли заказ полностью. Заказ с нулевой суммой
// обрабатывается как вырожденный случай на уровне оркестратора, не здесь.
func (c *Composer) IsComplete() bool {
	return len(c.entries) > 0 && c.Remaining() == 0
}

// Entries возвращает копию списка платежей в порядке добавления.
func (c *Composer) Entries() []model.TenderEntry {
	res := make([]model.TenderEntry, len(c.entries))
	copy(res, c.entries)
	return res
}

// AddCash принимает наличные. Сумма может превышать остаток: превышение
// возвращается как сдача и фиксируется в записи платежа.
func (c *Composer) AddCash(amountCents int64) (int64, error) {
	if amountCents <= 0 {
		return 0, ErrTenderAmount
	}

	changeDue := int64(0)
	if remaining := c.Remaining(); amountCents > remaining {
		changeDue = amountCents - remaining
	}

	c.entries = append(c.entries, model.TenderEntry{
		Method:    model.TenderCash,
		Amount:    amountCents,
		ChangeDue: changeDue,
	})

	return changeDue, nil
}

// AddOffline принимает платёж на внутренний счёт (house account).
func (c *Composer) AddOffline(amountCents int64) error {
	if err := c.checkNonCash(amountCents); err != nil {
		return err
	}

	c.entries = append(c.entries, model.TenderEntry{
		Method: model.TenderOffline,
		Amount: amountCents,
	})

	return nil
}

// AddCardCharge проводит списание через внешний шлюз и добавляет платёж только
// при успехе. Ошибка шлюза не оставляет следов в композере.
func (c *Composer) AddCardCharge(ctx context.Context, amountCents int64, currency, customerRef string) (string, error) {
	if err := c.checkNonCash(amountCents); err != nil {
		return "", err
	}

	chargeRef, err := c.gateway.Charge(ctx, amountCents, currency, customerRef)
	if err != nil {
		return "", err
	}

	c.entries = append(c.entries, model.TenderEntry{
		Method:    model.TenderCard,
		Amount:    amountCents,
		ChargeRef: chargeRef,
	})

	return chargeRef, nil
}

// AddGiftCard списывает с подарочной карты предложенную сумму, ограниченную
// балансом карты и остатком заказа. Возвращает списанную сумму и остаток
// баланса карты. Ошибки сервиса карт передаются вызывающему без изменений.
func (c *Composer) AddGiftCard(ctx context.Context, number string, proposedCents int64) (int64, int64, error) {
	if proposedCents <= 0 {
		return 0, 0, ErrTenderAmount
	}

	remaining := c.Remaining()
	if remaining == 0 {
		return 0, 0, fmt.Errorf("%w: order is already fully paid", ErrCannotOverpay)
	}

	card, err := c.cards.CheckBalance(ctx, number)
	if err != nil {
		return 0, 0, err
	}

	amount := proposedCents
	if card.Balance < amount {
		amount = card.Balance
	}
	if remaining < amount {
		amount = remaining
	}
	if amount <= 0 {
		return 0, 0, fmt.Errorf("%w: available %s", service.ErrInsufficientBalance, money.Format(card.Balance))
	}

	_, txn, err := c.cards.Redeem(ctx, number, amount, c.orderRef, "")
	if err != nil {
		return 0, 0, err
	}

	c.entries = append(c.entries, model.TenderEntry{
		Method:     model.TenderGiftCard,
		Amount:     amount,
		CardNumber: card.Number,
	})

	return amount, txn.BalanceAfter, nil
}

// RemoveTender удаляет запись платежа по индексу и возвращает её. Композер
// удаляет только учётную запись: отмену внешнего списания или компенсацию
// списания с подарочной карты вызывающий обязан выполнить сам до удаления.
func (c *Composer) RemoveTender(index int) (model.TenderEntry, error) {
	if index < 0 || index >= len(c.entries) {
		return model.TenderEntry{}, fmt.Errorf("%w: index %d", ErrTenderNotFound, index)
	}

	entry := c.entries[index]
	c.entries = append(c.entries[:index], c.entries[index+1:]...)
	return entry, nil
}

func (c *Composer) checkNonCash(amountCents int64) error {
	if amountCents <= 0 {
		return ErrTenderAmount
	}
	if remaining := c.Remaining(); amountCents-remaining > c.tolerance {
		return fmt.Errorf("%w: remaining %s", ErrCannotOverpay, money.Format(remaining))
	}
	return nil
}
