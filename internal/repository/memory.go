package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/giftcard-system/internal/model"
)

// MemoryRepository хранит данные в памяти. Реализует тот же контракт
// атомарности, что и PostgresRepository: вся последовательность
// чтение-валидация-запись выполняется под одним мьютексом. Используется в тестах.
type MemoryRepository struct {
	mu            sync.Mutex
	cards         map[string]*model.GiftCard
	transactions  map[int64][]model.LedgerTransaction
	payments      map[string]*model.OrderPaymentRecord
	nextCardID    int64
	nextTxnID     int64
	nextPaymentID int64
}

// NewMemoryRepository создаёт пустой репозиторий в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		cards:        make(map[string]*model.GiftCard),
		transactions: make(map[int64][]model.LedgerTransaction),
		payments:     make(map[string]*model.OrderPaymentRecord),
	}
}

// Close освобождает ресурсы репозитория.
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateCard создаёт подарочную карту и, если задана, первую запись журнала.
func (r *MemoryRepository) CreateCard(ctx context.Context, card *model.GiftCard, txn *model.LedgerTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(card.Number)
	if _, ok := r.cards[key]; ok {
		return fmt.Errorf("%w: %s", ErrCardExists, card.Number)
	}

	r.nextCardID++
	card.ID = r.nextCardID
	card.CreatedAt = time.Now()

	stored := *card
	r.cards[key] = &stored

	if txn != nil {
		txn.CardID = card.ID
		r.appendTransaction(txn)
	}

	return nil
}

// GetCardByNumber возвращает копию карты по номеру без учёта регистра.
func (r *MemoryRepository) GetCardByNumber(ctx context.Context, number string) (*model.GiftCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cards[strings.ToLower(number)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, number)
	}

	card := *stored
	return &card, nil
}

// ApplyTransaction выполняет атомарную операцию над картой: apply вызывается
// для копии строки, и только при успехе копия вместе с записью журнала
// становится новым состоянием.
func (r *MemoryRepository) ApplyTransaction(ctx context.Context, number string, apply func(card *model.GiftCard) (*model.LedgerTransaction, error)) (*model.GiftCard, *model.LedgerTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(number)
	stored, ok := r.cards[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrCardNotFound, number)
	}

	card := *stored
	txn, err := apply(&card)
	if err != nil {
		return nil, nil, err
	}

	txn.CardID = card.ID
	r.appendTransaction(txn)
	r.cards[key] = &card

	result := card
	return &result, txn, nil
}

func (r *MemoryRepository) appendTransaction(txn *model.LedgerTransaction) {
	r.nextTxnID++
	txn.ID = r.nextTxnID
	txn.CreatedAt = time.Now()
	r.transactions[txn.CardID] = append(r.transactions[txn.CardID], *txn)
}

// GetTransactionsByCard возвращает журнал операций карты в порядке их фиксации.
func (r *MemoryRepository) GetTransactionsByCard(ctx context.Context, number string) ([]model.LedgerTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.cards[strings.ToLower(number)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, number)
	}

	txns := r.transactions[stored.ID]
	res := make([]model.LedgerTransaction, len(txns))
	copy(res, txns)
	return res, nil
}

// SaveOrderPayment записывает зафиксированную оплату заказа.
func (r *MemoryRepository) SaveOrderPayment(ctx context.Context, rec *model.OrderPaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[rec.OrderRef]; ok {
		return fmt.Errorf("%w: %s", ErrPaymentExists, rec.OrderRef)
	}

	r.nextPaymentID++
	rec.ID = r.nextPaymentID
	rec.CreatedAt = time.Now()

	stored := *rec
	stored.Tenders = make([]model.TenderEntry, len(rec.Tenders))
	copy(stored.Tenders, rec.Tenders)
	r.payments[rec.OrderRef] = &stored

	return nil
}

// GetOrderPayment возвращает зафиксированную оплату заказа по его номеру.
func (r *MemoryRepository) GetOrderPayment(ctx context.Context, orderRef string) (*model.OrderPaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.payments[orderRef]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderRef)
	}

	rec := *stored
	rec.Tenders = make([]model.TenderEntry, len(stored.Tenders))
	copy(rec.Tenders, stored.Tenders)
	return &rec, nil
}
