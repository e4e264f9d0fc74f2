// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/mmeshcher/giftcard-system/internal/model"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrCardNotFound возвращается, если подарочная карта не найдена.
var (
	ErrCardNotFound = errors.New("gift card not found")
	// ErrCardExists возвращается при попытке создать карту с уже существующим номером.
	ErrCardExists = errors.New("gift card already exists")
	// ErrPaymentExists возвращается, если оплата заказа уже была зафиксирована.
	ErrPaymentExists = errors.New("order payment already recorded")
	// ErrPaymentNotFound возвращается, если оплата заказа не найдена.
	ErrPaymentNotFound = errors.New("order payment not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраи полезны для Serialization Failure и Deadlocks.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		// Если это не pg-ошибка, но сетевая
		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateCard создаёт подарочную карту и, если задана, первую запись журнала
// в одной транзакции. У предвыпущенных физических карт журнал пуст до активации.
func (r *PostgresRepository) CreateCard(ctx context.Context, card *model.GiftCard, txn *model.LedgerTransaction) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO gift_cards (number, kind, status, initial_value, balance, recipient_email, recipient_name, purchased_by, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		card.Number, string(card.Kind), string(card.Status),
		card.InitialValue, card.Balance,
		card.RecipientEmail, card.RecipientName, card.PurchasedBy,
		card.ExpiresAt,
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrCardExists, card.Number)
		}
		return fmt.Errorf("insert gift card: %w", err)
	}

	if txn != nil {
		txn.CardID = card.ID
		if err := insertTransaction(ctx, tx, txn); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetCardByNumber возвращает карту по номеру. Поиск не учитывает регистр.
func (r *PostgresRepository) GetCardByNumber(ctx context.Context, number string) (*model.GiftCard, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, number, kind, status, initial_value, balance, recipient_email, recipient_name, purchased_by, expires_at, created_at
		 FROM gift_cards
		 WHERE lower(number) = lower($1)`,
		number,
	)

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCardNotFound, number)
		}
		return nil, fmt.Errorf("get gift card: %w", err)
	}

	return card, nil
}

// ApplyTransaction выполняет атомарную операцию над картой: читает строку под
// блокировкой FOR UPDATE, вызывает apply для валидации предусловий по только
// что прочитанным значениям и изменения баланса/статуса, затем в той же
// транзакции записывает новое состояние карты и запись журнала. Два
// конкурентных списания с одной карты сериализуются блокировкой строки:
// второе перечитывает баланс после коммита первого.
func (r *PostgresRepository) ApplyTransaction(ctx context.Context, number string, apply func(card *model.GiftCard) (*model.LedgerTransaction, error)) (*model.GiftCard, *model.LedgerTransaction, error) {
	var (
		card *model.GiftCard
		txn  *model.LedgerTransaction
	)

	err := r.withRetry(ctx, func() error {
		var err error
		card, txn, err = r.applyTransaction(ctx, number, apply)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return card, txn, nil
}

func (r *PostgresRepository) applyTransaction(ctx context.Context, number string, apply func(card *model.GiftCard) (*model.LedgerTransaction, error)) (*model.GiftCard, *model.LedgerTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, number, kind, status, initial_value, balance, recipient_email, recipient_name, purchased_by, expires_at, created_at
		 FROM gift_cards
		 WHERE lower(number) = lower($1)
		 FOR UPDATE`,
		number,
	)

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrCardNotFound, number)
		}
		return nil, nil, fmt.Errorf("lock gift card: %w", err)
	}

	txn, err := apply(card)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE gift_cards
		 SET status = $2, initial_value = $3, balance = $4, purchased_by = $5
		 WHERE id = $1`,
		card.ID, string(card.Status), card.InitialValue, card.Balance, card.PurchasedBy,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update gift card: %w", err)
	}

	txn.CardID = card.ID
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}

	return card, txn, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn *model.LedgerTransaction) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO gift_card_transactions (card_id, kind, amount, balance_after, order_ref, operator_ref, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		txn.CardID, string(txn.Kind), txn.Amount, txn.BalanceAfter,
		txn.OrderRef, txn.OperatorRef, txn.Note,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

// GetTransactionsByCard возвращает журнал операций карты в порядке их фиксации.
func (r *PostgresRepository) GetTransactionsByCard(ctx context.Context, number string) ([]model.LedgerTransaction, error) {
	card, err := r.GetCardByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, card_id, kind, amount, balance_after, order_ref, operator_ref, note, created_at
		 FROM gift_card_transactions
		 WHERE card_id = $1
		 ORDER BY created_at, id`,
		card.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.LedgerTransaction
	for rows.Next() {
		var (
			txn  model.LedgerTransaction
			kind string
		)
		if err := rows.Scan(&txn.ID, &txn.CardID, &kind, &txn.Amount, &txn.BalanceAfter,
			&txn.OrderRef, &txn.OperatorRef, &txn.Note, &txn.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txn.Kind = model.TransactionKind(kind)
		res = append(res, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// SaveOrderPayment записывает зафиксированную оплату заказа вместе со списком
// платежей в их исходном порядке. Повторная запись для того же заказа невозможна.
func (r *PostgresRepository) SaveOrderPayment(ctx context.Context, rec *model.OrderPaymentRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO order_payments (order_ref, total) VALUES ($1, $2) RETURNING id, created_at`,
		rec.OrderRef, rec.Total,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrPaymentExists, rec.OrderRef)
		}
		return fmt.Errorf("insert order payment: %w", err)
	}

	for i, t := range rec.Tenders {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_payment_tenders (payment_id, position, method, amount, change_due, charge_ref, card_number)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.ID, i, string(t.Method), t.Amount, t.ChangeDue, t.ChargeRef, t.CardNumber,
		)
		if err != nil {
			return fmt.Errorf("insert payment tender: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetOrderPayment возвращает зафиксированную оплату заказа по его номеру.
func (r *PostgresRepository) GetOrderPayment(ctx context.Context, orderRef string) (*model.OrderPaymentRecord, error) {
	rec := &model.OrderPaymentRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, order_ref, total, created_at FROM order_payments WHERE order_ref = $1`,
		orderRef,
	).Scan(&rec.ID, &rec.OrderRef, &rec.Total, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPaymentNotFound, orderRef)
		}
		return nil, fmt.Errorf("get order payment: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT method, amount, change_due, charge_ref, card_number
		 FROM order_payment_tenders
		 WHERE payment_id = $1
		 ORDER BY position`,
		rec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select payment tenders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t      model.TenderEntry
			method string
		)
		if err := rows.Scan(&method, &t.Amount, &t.ChangeDue, &t.ChargeRef, &t.CardNumber); err != nil {
			return nil, fmt.Errorf("scan payment tender: %w", err)
		}
		t.Method = model.TenderMethod(method)
		rec.Tenders = append(rec.Tenders, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return rec, nil
}

type cardRow interface {
	Scan(dest ...any) error
}

func scanCard(row cardRow) (*model.GiftCard, error) {
	var (
		card   model.GiftCard
		kind   string
		status string
	)
	err := row.Scan(&card.ID, &card.Number, &kind, &status,
		&card.InitialValue, &card.Balance,
		&card.RecipientEmail, &card.RecipientName, &card.PurchasedBy,
		&card.ExpiresAt, &card.CreatedAt)
	if err != nil {
		return nil, err
	}
	card.Kind = model.CardKind(kind)
	card.Status = model.CardStatus(status)
	return &card, nil
}
