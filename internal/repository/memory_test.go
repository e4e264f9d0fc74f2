package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/mmeshcher/giftcard-system/internal/model"
)

func TestMemoryRepository_CreateCardDuplicate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	card := &model.GiftCard{
		Number: "GC-ABCD-EFGH-JKMN",
		Kind:   model.CardKindPhysical,
		Status: model.CardStatusInactive,
	}
	if err := repo.CreateCard(ctx, card, nil); err != nil {
		t.Fatalf("CreateCard error: %v", err)
	}
	if card.ID == 0 {
		t.Fatalf("card ID not assigned")
	}

	dup := &model.GiftCard{
		Number: "gc-abcd-efgh-jkmn",
		Kind:   model.CardKindPhysical,
		Status: model.CardStatusInactive,
	}
	err := repo.CreateCard(ctx, dup, nil)
	if !errors.Is(err, ErrCardExists) {
		t.Fatalf("duplicate number (case-insensitive): err = %v, want ErrCardExists", err)
	}
}

func TestMemoryRepository_GetCardCaseInsensitive(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	card := &model.GiftCard{
		Number:       "EGC-ABCD-EFGH-JKMN",
		Kind:         model.CardKindDigital,
		Status:       model.CardStatusActive,
		InitialValue: 5000,
		Balance:      5000,
	}
	if err := repo.CreateCard(ctx, card, &model.LedgerTransaction{
		Kind:         model.TxnPurchase,
		Amount:       5000,
		BalanceAfter: 5000,
	}); err != nil {
		t.Fatalf("CreateCard error: %v", err)
	}

	got, err := repo.GetCardByNumber(ctx, "egc-abcd-efgh-jkmn")
	if err != nil {
		t.Fatalf("GetCardByNumber error: %v", err)
	}
	if got.Balance != 5000 {
		t.Fatalf("balance = %d, want 5000", got.Balance)
	}

	_, err = repo.GetCardByNumber(ctx, "EGC-0000-0000-0000")
	if !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("err = %v, want ErrCardNotFound", err)
	}
}

func TestMemoryRepository_ApplyTransactionRollsBackOnError(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	card := &model.GiftCard{
		Number:       "EGC-ABCD-EFGH-JKMN",
		Kind:         model.CardKindDigital,
		Status:       model.CardStatusActive,
		InitialValue: 5000,
		Balance:      5000,
	}
	if err := repo.CreateCard(ctx, card, &model.LedgerTransaction{
		Kind:         model.TxnPurchase,
		Amount:       5000,
		BalanceAfter: 5000,
	}); err != nil {
		t.Fatalf("CreateCard error: %v", err)
	}

	wantErr := errors.New("validation failed")
	_, _, err := repo.ApplyTransaction(ctx, card.Number, func(c *model.GiftCard) (*model.LedgerTransaction, error) {
		c.Balance = 0
		c.Status = model.CardStatusUsed
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	got, err := repo.GetCardByNumber(ctx, card.Number)
	if err != nil {
		t.Fatalf("GetCardByNumber error: %v", err)
	}
	if got.Balance != 5000 || got.Status != model.CardStatusActive {
		t.Fatalf("card mutated by failed apply: balance=%d status=%s", got.Balance, got.Status)
	}

	txns, err := repo.GetTransactionsByCard(ctx, card.Number)
	if err != nil {
		t.Fatalf("GetTransactionsByCard error: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want 1 (failed apply must not append)", len(txns))
	}
}

func TestMemoryRepository_SaveOrderPayment(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	rec := &model.OrderPaymentRecord{
		OrderRef: "ORD1",
		Total:    10000,
		Tenders: []model.TenderEntry{
			{Method: model.TenderCash, Amount: 4000},
			{Method: model.TenderGiftCard, Amount: 6000, CardNumber: "EGC-ABCD-EFGH-JKMN"},
		},
	}
	if err := repo.SaveOrderPayment(ctx, rec); err != nil {
		t.Fatalf("SaveOrderPayment error: %v", err)
	}

	err := repo.SaveOrderPayment(ctx, &model.OrderPaymentRecord{OrderRef: "ORD1", Total: 10000})
	if !errors.Is(err, ErrPaymentExists) {
		t.Fatalf("err = %v, want ErrPaymentExists", err)
	}

	got, err := repo.GetOrderPayment(ctx, "ORD1")
	if err != nil {
		t.Fatalf("GetOrderPayment error: %v", err)
	}
	if len(got.Tenders) != 2 {
		t.Fatalf("tenders = %d, want 2", len(got.Tenders))
	}
	if got.Tenders[0].Method != model.TenderCash || got.Tenders[1].Method != model.TenderGiftCard {
		t.Fatalf("tender order not preserved: %+v", got.Tenders)
	}

	_, err = repo.GetOrderPayment(ctx, "ORD2")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}
