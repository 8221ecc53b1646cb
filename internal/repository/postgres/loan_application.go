package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

type loanApplicationRepository struct {
	db *sql.DB
}

func NewLoanApplicationRepository(db *sql.DB) repository.LoanApplicationRepository {
	return &loanApplicationRepository{db: db}
}

const applicationColumns = `id, user_id, amount, purpose, term, status, interest_rate, rejection_reason, submitted_at, approved_at, rejected_at`

// applicationSortColumns maps API sort keys to columns. Unknown keys fall
// back to submitted_at.
var applicationSortColumns = map[string]string{
	"submittedAt": "submitted_at",
	"amount":      "amount",
	"status":      "status",
}

func (r *loanApplicationRepository) Create(ctx context.Context, app *domain.LoanApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	query := `INSERT INTO loan_applications (id, user_id, amount, purpose, term, status, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING submitted_at`
	return r.db.QueryRowContext(ctx, query,
		app.ID, app.UserID, app.Amount, app.Purpose, app.Term, app.Status).
		Scan(&app.SubmittedAt)
}

func (r *loanApplicationRepository) GetByID(ctx context.Context, id string) (*domain.LoanApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1`
	app, err := scanApplicationFrom(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: loan application %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	docs, err := r.listDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Documents = docs
	return app, nil
}

func (r *loanApplicationRepository) List(ctx context.Context, filter repository.ApplicationFilter) ([]domain.LoanApplication, int64, error) {
	where, args := applicationWhere(filter)

	var count int64
	countQuery := `SELECT count(*) FROM loan_applications a` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	sortCol, ok := applicationSortColumns[filter.SortBy]
	if !ok {
		sortCol = "submitted_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	selectCols := `a.id, a.user_id, a.amount, a.purpose, a.term, a.status, a.interest_rate,
	               a.rejection_reason, a.submitted_at, a.approved_at, a.rejected_at`
	join := ""
	if filter.IncludeOwner {
		selectCols += `, u.id, u.name, u.email`
		join = ` JOIN users u ON u.id = a.user_id`
	}

	limitArgs := append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM loan_applications a%s%s ORDER BY a.%s %s LIMIT $%d OFFSET $%d`,
		selectCols, join, where, sortCol, direction, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, limitArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []domain.LoanApplication
	for rows.Next() {
		var app domain.LoanApplication
		dest := []any{&app.ID, &app.UserID, &app.Amount, &app.Purpose, &app.Term, &app.Status,
			&app.InterestRate, &app.RejectionReason, &app.SubmittedAt, &app.ApprovedAt, &app.RejectedAt}
		var owner domain.UserRef
		if filter.IncludeOwner {
			dest = append(dest, &owner.ID, &owner.Name, &owner.Email)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, err
		}
		if filter.IncludeOwner {
			app.Owner = &owner
		}
		apps = append(apps, app)
	}
	return apps, count, rows.Err()
}

func (r *loanApplicationRepository) Update(ctx context.Context, app *domain.LoanApplication) error {
	query := `UPDATE loan_applications
	          SET status = $1, interest_rate = $2, rejection_reason = $3, approved_at = $4, rejected_at = $5
	          WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		app.Status, app.InterestRate, app.RejectionReason, app.ApprovedAt, app.RejectedAt, app.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: loan application %s", domain.ErrNotFound, app.ID)
	}
	return nil
}

func (r *loanApplicationRepository) AddDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	query := `INSERT INTO documents (id, application_id, name, file_url, mime_type, uploaded_at)
	          VALUES ($1, $2, $3, $4, $5, NOW())
	          RETURNING uploaded_at`
	return r.db.QueryRowContext(ctx, query,
		doc.ID, doc.ApplicationID, doc.Name, doc.FileURL, doc.MimeType).
		Scan(&doc.UploadedAt)
}

func (r *loanApplicationRepository) listDocuments(ctx context.Context, applicationID string) ([]domain.Document, error) {
	query := `SELECT id, application_id, name, file_url, mime_type, uploaded_at
	          FROM documents WHERE application_id = $1 ORDER BY uploaded_at`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.Name, &d.FileURL, &d.MimeType, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func applicationWhere(filter repository.ApplicationFilter) (string, []any) {
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
		add("a.status = $%d", *filter.Status)
	}
	if filter.PurposeContains != "" {
		add("a.purpose ILIKE $%d", "%"+filter.PurposeContains+"%")
	}
	if filter.Term != nil {
		add("a.term = $%d", *filter.Term)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanApplicationFrom(s rowScanner) (*domain.LoanApplication, error) {
	var app domain.LoanApplication
	err := s.Scan(&app.ID, &app.UserID, &app.Amount, &app.Purpose, &app.Term, &app.Status,
		&app.InterestRate, &app.RejectionReason, &app.SubmittedAt, &app.ApprovedAt, &app.RejectedAt)
	if err != nil {
		return nil, err
	}
	return &app, nil
}
