package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type loanRepository struct {
	db *sql.DB
}

func NewLoanRepository(db *sql.DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `l.id, l.application_id, a.user_id, l.loan_number, l.principal, l.disbursed_amount,
	l.outstanding_amount, l.interest_rate, l.term, l.start_date, l.end_date, l.status, l.created_at`

var loanSortColumns = map[string]string{
	"createdAt": "created_at",
	"amount":    "principal",
	"dueDate":   "end_date",
	"status":    "status",
}

func (r *loanRepository) Create(ctx context.Context, l *domain.Loan) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	query := `INSERT INTO loans (id, application_id, loan_number, principal, disbursed_amount,
	                             outstanding_amount, interest_rate, term, start_date, end_date, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
	          RETURNING created_at`
	return r.db.QueryRowContext(ctx, query,
		l.ID, l.ApplicationID, l.LoanNumber, l.Principal, l.DisbursedAmount,
		l.OutstandingAmount, l.InterestRate, l.Term, l.StartDate, l.EndDate, l.Status).
		Scan(&l.CreatedAt)
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + `
	          FROM loans l JOIN loan_applications a ON a.id = l.application_id
	          WHERE l.id = $1`
	l, err := scanLoanFrom(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: loan %s", domain.ErrNotFound, id)
	}
	return l, err
}

func (r *loanRepository) List(ctx context.Context, filter repository.LoanFilter) ([]domain.Loan, int64, error) {
	where, args := loanWhere(filter)

	var count int64
	countQuery := `SELECT count(*) FROM loans l JOIN loan_applications a ON a.id = l.application_id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sortCol, ok := loanSortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	selectCols := loanColumns
	join := ` JOIN loan_applications a ON a.id = l.application_id`
	if filter.IncludeOwner {
		selectCols += `, u.id, u.name, u.email`
		join += ` JOIN users u ON u.id = a.user_id`
	}

	limitArgs := append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM loans l%s%s ORDER BY l.%s %s LIMIT $%d OFFSET $%d`,
		selectCols, join, where, sortCol, direction, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var l domain.Loan
		dest := []any{&l.ID, &l.ApplicationID, &l.UserID, &l.LoanNumber, &l.Principal,
			&l.DisbursedAmount, &l.OutstandingAmount, &l.InterestRate, &l.Term,
			&l.StartDate, &l.EndDate, &l.Status, &l.CreatedAt}
		var owner domain.UserRef
		if filter.IncludeOwner {
			dest = append(dest, &owner.ID, &owner.Name, &owner.Email)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		if filter.IncludeOwner {
			l.Owner = &owner
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if filter.IncludePayments {
		for i := range loans {
			payments, err := r.listLoanPayments(ctx, loans[i].ID)
			if err != nil {
				return nil, 0, err
			}
			loans[i].Payments = payments
		}
	}
	return loans, count, nil
}

func (r *loanRepository) ApplyPayment(ctx context.Context, id string, outstanding decimal.Decimal, status domain.LoanStatus) (*domain.Loan, error) {
	query := `UPDATE loans l SET outstanding_amount = $1, status = $2
	          FROM loan_applications a
	          WHERE l.id = $3 AND a.id = l.application_id
	          RETURNING ` + loanColumns
	l, err := scanLoanFrom(r.db.QueryRowContext(ctx, query, outstanding, status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: loan %s", domain.ErrNotFound, id)
	}
	return l, err
}

func (r *loanRepository) UpdateStatus(ctx context.Context, id string, status domain.LoanStatus) (*domain.Loan, error) {
	query := `UPDATE loans l SET status = $1
	          FROM loan_applications a
	          WHERE l.id = $2 AND a.id = l.application_id
	          RETURNING ` + loanColumns
	l, err := scanLoanFrom(r.db.QueryRowContext(ctx, query, status, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: loan %s", domain.ErrNotFound, id)
	}
	return l, err
}

func (r *loanRepository) listLoanPayments(ctx context.Context, loanID string) ([]domain.Payment, error) {
	query := `SELECT id, user_id, loan_id, amount, payment_method, status, reference,
	                 COALESCE(description, ''), due_date, payment_date, created_at
	          FROM payments WHERE loan_id = $1 ORDER BY payment_date DESC`
	rows, err := r.db.QueryContext(ctx, query, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.LoanID, &p.Amount, &p.PaymentMethod,
			&p.Status, &p.Reference, &p.Description, &p.DueDate, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func loanWhere(filter repository.LoanFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != nil {
		add("a.user_id = $%d", *filter.UserID)
	}
	if filter.Status != nil {
		add("l.status = $%d", *filter.Status)
	}
	if filter.NumberContains != "" {
		add("l.loan_number ILIKE $%d", "%"+filter.NumberContains+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanLoanFrom(s rowScanner) (*domain.Loan, error) {
	var l domain.Loan
	err := s.Scan(&l.ID, &l.ApplicationID, &l.UserID, &l.LoanNumber, &l.Principal,
		&l.DisbursedAmount, &l.OutstandingAmount, &l.InterestRate, &l.Term,
		&l.StartDate, &l.EndDate, &l.Status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
