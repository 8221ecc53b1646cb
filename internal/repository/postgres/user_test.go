package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository/postgres"
)

var userCols = []string{"id", "external_id", "email", "name", "role", "credit_score", "created_at", "updated_at"}

func TestUserRepository_UpsertByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		u := &domain.User{
			ExternalID: "user_2abc",
			Email:      "jane@test.com",
			Name:       "Jane Doe",
		}

		mock.ExpectQuery("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), u.ExternalID, u.Email, u.Name, domain.RoleUser).
			WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "role", "created_at", "updated_at"}).
				AddRow("user-1", "user_2abc", "USER", time.Now(), time.Now()))

		err := repo.UpsertByEmail(ctx, u)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", u.ID)
		assert.Equal(t, domain.RoleUser, u.Role)
	})
}

func TestUserRepository_GetByExternalID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).
			AddRow("user-1", "user_2abc", "jane@test.com", "Jane Doe", "USER", nil, time.Now(), time.Now())

		mock.ExpectQuery("SELECT (.+) FROM users WHERE external_id = \\$1").
			WithArgs("user_2abc").
			WillReturnRows(rows)

		user, err := repo.GetByExternalID(ctx, "user_2abc")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "user-1", user.ID)
		assert.Nil(t, user.CreditScore)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE external_id = \\$1").
			WithArgs("unknown").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByExternalID(ctx, "unknown")
		assert.Nil(t, user)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestUserRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := postgres.NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		score := int32(750)
		u := &domain.User{ID: "user-1", Name: "Jane D.", CreditScore: &score}

		mock.ExpectQuery("UPDATE users SET name = \\$1").
			WithArgs(u.Name, u.CreditScore, u.ID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

		err := repo.Update(ctx, u)
		assert.NoError(t, err)
	})

	t.Run("NotFound", func(t *testing.T) {
		u := &domain.User{ID: "missing", Name: "Nobody"}

		mock.ExpectQuery("UPDATE users SET name = \\$1").
			WithArgs(u.Name, u.CreditScore, u.ID).
			WillReturnError(sql.ErrNoRows)

		err := repo.Update(ctx, u)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
