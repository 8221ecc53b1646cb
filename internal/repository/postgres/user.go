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

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) UpsertByEmail(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	query := `INSERT INTO users (id, external_id, email, name, role, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	          ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
	          RETURNING id, external_id, role, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query, u.ID, u.ExternalID, u.Email, u.Name, u.Role).
		Scan(&u.ID, &u.ExternalID, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	query := `SELECT id, external_id, email, name, role, credit_score, created_at, updated_at
	          FROM users WHERE external_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, externalID))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, external_id, email, name, role, credit_score, created_at, updated_at
	          FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name = $1, credit_score = $2, updated_at = NOW() WHERE id = $3
	          RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, u.Name, u.CreditScore, u.ID).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, u.ID)
	}
	return err
}

func (r *userRepository) scanOne(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.CreditScore, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
