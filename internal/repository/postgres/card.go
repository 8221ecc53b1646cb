package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `id, user_id, card_number, cardholder_name, expiry_month, expiry_year, type, credit_limit, balance, cvv_hash, is_active, created_at, updated_at`

func (r *cardRepository) Create(ctx context.Context, c *domain.Card) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `INSERT INTO cards (id, user_id, card_number, cardholder_name, expiry_month, expiry_year,
	                             type, credit_limit, balance, cvv_hash, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	          RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.CardNumber, c.CardholderName, c.ExpiryMonth, c.ExpiryYear,
		c.Type, c.Limit, c.Balance, c.CVVHash, c.IsActive).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *cardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	c, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
	}
	return c, err
}

func (r *cardRepository) ListByUser(ctx context.Context, userID string) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCardFrom(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func (r *cardRepository) ListAll(ctx context.Context, page, limit int) ([]domain.Card, int64, error) {
	offset := (page - 1) * limit

	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM cards`).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT c.id, c.user_id, c.card_number, c.cardholder_name, c.expiry_month, c.expiry_year,
	                 c.type, c.credit_limit, c.balance, c.cvv_hash, c.is_active, c.created_at, c.updated_at,
	                 u.id, u.name, u.email
	          FROM cards c JOIN users u ON u.id = c.user_id
	          ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		var owner domain.UserRef
		if err := rows.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.CardholderName,
			&c.ExpiryMonth, &c.ExpiryYear, &c.Type, &c.Limit, &c.Balance, &c.CVVHash,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
			&owner.ID, &owner.Name, &owner.Email); err != nil {
			return nil, 0, err
		}
		c.Owner = &owner
		cards = append(cards, c)
	}
	return cards, count, rows.Err()
}

func (r *cardRepository) Update(ctx context.Context, c *domain.Card) error {
	query := `UPDATE cards SET cardholder_name = $1, expiry_month = $2, expiry_year = $3,
	                           credit_limit = $4, is_active = $5, updated_at = NOW()
	          WHERE id = $6
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.CardholderName, c.ExpiryMonth, c.ExpiryYear, c.Limit, c.IsActive, c.ID).
		Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: card %s", domain.ErrNotFound, c.ID)
	}
	return err
}

func (r *cardRepository) SetActive(ctx context.Context, id string, isActive bool) (*domain.Card, error) {
	query := `UPDATE cards SET is_active = $1, updated_at = NOW() WHERE id = $2
	          RETURNING ` + cardColumns
	c, err := scanCard(r.db.QueryRowContext(ctx, query, isActive, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
	}
	return c, err
}

func (r *cardRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: card %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *cardRepository) ListTransactions(ctx context.Context, cardID string) ([]domain.Transaction, error) {
	query := `SELECT id, amount, type, description, status, account_id, card_id, payment_id, created_at
	          FROM transactions WHERE card_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func scanCardFrom(s rowScanner) (*domain.Card, error) {
	var c domain.Card
	err := s.Scan(&c.ID, &c.UserID, &c.CardNumber, &c.CardholderName,
		&c.ExpiryMonth, &c.ExpiryYear, &c.Type, &c.Limit, &c.Balance, &c.CVVHash,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCard(row *sql.Row) (*domain.Card, error) {
	return scanCardFrom(row)
}
