package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, user_id, account_number, type, currency, balance, is_active, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `INSERT INTO accounts (id, user_id, account_number, type, currency, balance, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	          RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.AccountNumber, a.Type, a.Currency, a.Balance, a.IsActive).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	return a, err
}

func (r *accountRepository) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccountRows(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r *accountRepository) ListAll(ctx context.Context, page, limit int) ([]domain.Account, int64, error) {
	offset := (page - 1) * limit

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT a.id, a.user_id, a.account_number, a.type, a.currency, a.balance, a.is_active,
	                 a.created_at, a.updated_at, u.id, u.name, u.email
	          FROM accounts a JOIN users u ON u.id = a.user_id
	          ORDER BY a.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		var owner domain.UserRef
		if err := rows.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.Type, &a.Currency,
			&a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email); err != nil {
			return nil, 0, err
		}
		a.Owner = &owner
		accounts = append(accounts, a)
	}
	return accounts, count, rows.Err()
}

func (r *accountRepository) SetActive(ctx context.Context, id string, isActive bool) (*domain.Account, error) {
	query := `UPDATE accounts SET is_active = $1, updated_at = NOW() WHERE id = $2
	          RETURNING ` + accountColumns
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, isActive, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, id)
	}
	return a, err
}

func (r *accountRepository) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2
	          RETURNING ` + accountColumns
	account, err := scanAccount(tx.QueryRowContext(ctx, query, amount, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, nil, err
	}

	record, err := insertAccountTransaction(ctx, tx, accountID, amount, domain.TransactionTypeDeposit, description)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return account, record, nil
}

func (r *accountRepository) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, description string) (*domain.Account, *domain.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// The balance condition is part of the write so that two concurrent
	// withdrawals cannot both pass a separate pre-check.
	query := `UPDATE accounts SET balance = balance - $1, updated_at = NOW()
	          WHERE id = $2 AND balance >= $1
	          RETURNING ` + accountColumns
	account, err := scanAccount(tx.QueryRowContext(ctx, query, amount, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, domain.ErrInsufficientFunds
	}
	if err != nil {
		return nil, nil, err
	}

	record, err := insertAccountTransaction(ctx, tx, accountID, amount, domain.TransactionTypeWithdrawal, description)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return account, record, nil
}

func (r *accountRepository) Transfer(ctx context.Context, params repository.TransferParams) (*repository.TransferRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	debitQuery := `UPDATE accounts SET balance = balance - $1, updated_at = NOW()
	               WHERE id = $2 AND balance >= $1
	               RETURNING ` + accountColumns
	source, err := scanAccount(tx.QueryRowContext(ctx, debitQuery, params.Amount, params.SourceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}

	creditQuery := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2
	                RETURNING ` + accountColumns
	target, err := scanAccount(tx.QueryRowContext(ctx, creditQuery, params.Amount, params.TargetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, params.TargetID)
	}
	if err != nil {
		return nil, err
	}

	sourceTx, err := insertAccountTransaction(ctx, tx, params.SourceID, params.Amount, domain.TransactionTypeTransfer, params.SourceDescription)
	if err != nil {
		return nil, err
	}
	targetTx, err := insertAccountTransaction(ctx, tx, params.TargetID, params.Amount, domain.TransactionTypeTransfer, params.TargetDescription)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &repository.TransferRecord{
		Source:            source,
		Target:            target,
		SourceTransaction: sourceTx,
		TargetTransaction: targetTx,
	}, nil
}

func (r *accountRepository) ListTransactions(ctx context.Context, accountID string, page, limit int) ([]domain.Transaction, int64, error) {
	offset := (page - 1) * limit

	var count int64
	countQuery := `SELECT count(*) FROM transactions WHERE account_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, accountID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, amount, type, description, status, account_id, card_id, payment_id, created_at
	          FROM transactions WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	return txs, count, err
}

func (r *accountRepository) RecentTransactions(ctx context.Context, accountID string, n int) ([]domain.Transaction, error) {
	query := `SELECT id, amount, type, description, status, account_id, card_id, payment_id, created_at
	          FROM transactions WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, accountID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func insertAccountTransaction(ctx context.Context, tx *sql.Tx, accountID string, amount decimal.Decimal, txType domain.TransactionType, description string) (*domain.Transaction, error) {
	record := &domain.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Type:        txType,
		Description: description,
		Status:      domain.TransactionStatusCompleted,
		AccountID:   &accountID,
	}
	query := `INSERT INTO transactions (id, amount, type, description, status, account_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING created_at`
	err := tx.QueryRowContext(ctx, query,
		record.ID, record.Amount, record.Type, record.Description, record.Status, accountID).
		Scan(&record.CreatedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccountFrom(s rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(&a.ID, &a.UserID, &a.AccountNumber, &a.Type, &a.Currency,
		&a.Balance, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	return scanAccountFrom(row)
}

func scanAccountRows(rows *sql.Rows) (*domain.Account, error) {
	return scanAccountFrom(rows)
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Description, &t.Status,
			&t.AccountID, &t.CardID, &t.PaymentID, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
