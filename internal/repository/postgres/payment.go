package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type paymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, user_id, loan_id, amount, payment_method, status, reference,
	COALESCE(description, ''), due_date, payment_date, created_at`

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	query := `INSERT INTO payments (id, user_id, loan_id, amount, payment_method, status, reference,
	                                description, due_date, payment_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	          RETURNING payment_date, created_at`
	return r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.LoanID, p.Amount, p.PaymentMethod, p.Status, p.Reference,
		p.Description, p.DueDate).
		Scan(&p.PaymentDate, &p.CreatedAt)
}

func (r *paymentRepository) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	query := `INSERT INTO transactions (id, amount, type, description, status, payment_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING created_at`
	return r.db.QueryRowContext(ctx, query,
		t.ID, t.Amount, t.Type, t.Description, t.Status, t.PaymentID).
		Scan(&t.CreatedAt)
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	p, err := scanPaymentFrom(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	tx, err := r.transactionByPaymentID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Transaction = tx
	return p, nil
}

func (r *paymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.Payment, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}
	if filter.LoanID != nil {
		add("loan_id = $%d", *filter.LoanID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + where + ` ORDER BY payment_date DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentFrom(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	query := `UPDATE payments SET status = $1 WHERE id = $2
	          RETURNING ` + paymentColumns
	p, err := scanPaymentFrom(r.db.QueryRowContext(ctx, query, status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", domain.ErrNotFound, id)
	}
	return p, err
}

func (r *paymentRepository) UpdateTransactionStatus(ctx context.Context, paymentID string, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1 WHERE payment_id = $2`
	_, err := r.db.ExecContext(ctx, query, status, paymentID)
	return err
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE payment_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: payment %s", domain.ErrNotFound, id)
	}
	return tx.Commit()
}

func (r *paymentRepository) ListDue(ctx context.Context, method *domain.PaymentMethod, from, to time.Time) ([]domain.Payment, error) {
	var args []any
	query := `SELECT ` + paymentColumns + ` FROM payments
	          WHERE status = 'PENDING' AND due_date >= $1 AND due_date < $2`
	args = append(args, from, to)
	if method != nil {
		query += ` AND payment_method = $3`
		args = append(args, *method)
	}
	query += ` ORDER BY due_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPaymentFrom(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *paymentRepository) transactionByPaymentID(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	query := `SELECT id, amount, type, description, status, account_id, card_id, payment_id, created_at
	          FROM transactions WHERE payment_id = $1`
	var t domain.Transaction
	err := r.db.QueryRowContext(ctx, query, paymentID).
		Scan(&t.ID, &t.Amount, &t.Type, &t.Description, &t.Status,
			&t.AccountID, &t.CardID, &t.PaymentID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // legacy payments may have no linked transaction
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanPaymentFrom(s rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	err := s.Scan(&p.ID, &p.UserID, &p.LoanID, &p.Amount, &p.PaymentMethod, &p.Status,
		&p.Reference, &p.Description, &p.DueDate, &p.PaymentDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
