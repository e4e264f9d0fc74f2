// Package model содержит доменные сущности сервиса подарочных карт.
package model

import "time"

// CardKind описывает вид подарочной карты.
type CardKind string

const (
	CardKindPhysical CardKind = "PHYSICAL"
	CardKindDigital  CardKind = "DIGITAL"
)

// CardStatus описывает статус жизненного цикла подарочной карты.
// USED, EXPIRED и CANCELLED — терминальные статусы.
type CardStatus string

const (
	CardStatusInactive  CardStatus = "INACTIVE"
	CardStatusActive    CardStatus = "ACTIVE"
	CardStatusUsed      CardStatus = "USED"
	CardStatusExpired   CardStatus = "EXPIRED"
	CardStatusCancelled CardStatus = "CANCELLED"
)

// GiftCard представляет подарочную карту. Все суммы хранятся в центах.
type GiftCard struct {
	ID             int64
	Number         string
	Kind           CardKind
	Status         CardStatus
	InitialValue   int64
	Balance        int64
	RecipientEmail string
	RecipientName  string
	PurchasedBy    string
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

// TransactionKind описывает тип записи в журнале операций карты.
type TransactionKind string

const (
	TxnPurchase     TransactionKind = "PURCHASE"
	TxnActivation   TransactionKind = "ACTIVATION"
	TxnRedemption   TransactionKind = "REDEMPTION"
	TxnRefund       TransactionKind = "REFUND"
	TxnAdjustment   TransactionKind = "ADJUSTMENT"
	TxnDeactivation TransactionKind = "DEACTIVATION"
)

// LedgerTransaction представляет одну запись журнала операций карты.
// Журнал append-only: записи никогда не изменяются и не удаляются.
// Сумма знаковая: списание отрицательное, пополнение положительное.
type LedgerTransaction struct {
	ID           int64
	CardID       int64
	Kind         TransactionKind
	Amount       int64
	BalanceAfter int64
	OrderRef     string
	OperatorRef  string
	Note         string
	CreatedAt    time.Time
}

// TenderMethod описывает способ оплаты одной части заказа.
type TenderMethod string

const (
	TenderCash     TenderMethod = "cash"
	TenderCard     TenderMethod = "credit"
	TenderGiftCard TenderMethod = "giftcard"
	TenderOffline  TenderMethod = "offline"
)

// TenderEntry представляет один платёж, принятый в счёт заказа.
type TenderEntry struct {
	Method     TenderMethod
	Amount     int64
	ChangeDue  int64
	ChargeRef  string
	CardNumber string
}

// OrderPaymentRecord представляет зафиксированный набор платежей по заказу.
// Записывается ровно один раз, когда заказ оплачен полностью.
type OrderPaymentRecord struct {
	ID        int64
	OrderRef  string
	Total     int64
	Tenders   []TenderEntry
	CreatedAt time.Time
}
