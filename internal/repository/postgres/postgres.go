package postgres

import (
	"database/sql"

	"lendhub-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.AccountRepository
	repository.CardRepository
	repository.LoanApplicationRepository
	repository.LoanRepository
	repository.PaymentRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                        db,
		UserRepository:            NewUserRepository(db),
		AccountRepository:         NewAccountRepository(db),
		CardRepository:            NewCardRepository(db),
		LoanApplicationRepository: NewLoanApplicationRepository(db),
		LoanRepository:            NewLoanRepository(db),
		PaymentRepository:         NewPaymentRepository(db),
		NotificationRepository:    NewNotificationRepository(db),
	}
}
