package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "PENDING"
	ApplicationStatusApproved  ApplicationStatus = "APPROVED"
	ApplicationStatusRejected  ApplicationStatus = "REJECTED"
	ApplicationStatusCancelled ApplicationStatus = "CANCELLED"
)

// LoanApplication is a borrower's request for a loan. PENDING is the only
// state a decision may be taken from; approval spawns exactly one Loan.
type LoanApplication struct {
	ID              string            `json:"id"`
	UserID          string            `json:"userId"`
	Amount          decimal.Decimal   `json:"amount"`
	Purpose         string            `json:"purpose"`
	Term            int               `json:"term"` // months
	Status          ApplicationStatus `json:"status"`
	InterestRate    *decimal.Decimal  `json:"interestRate,omitempty"`
	RejectionReason *string           `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time         `json:"submittedAt"`
	ApprovedAt      *time.Time        `json:"approvedAt,omitempty"`
	RejectedAt      *time.Time        `json:"rejectedAt,omitempty"`

	Documents []Document `json:"documents,omitempty"`
	Owner     *UserRef   `json:"user,omitempty"`
}

// Document references a file held by the document store.
type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	Name          string    `json:"name"`
	FileURL       string    `json:"fileUrl"`
	MimeType      string    `json:"mimeType"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusPaid      LoanStatus = "PAID"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
	LoanStatusClosed    LoanStatus = "CLOSED"
)

// Loan is derived from exactly one approved application. OutstandingAmount
// decreases as payments settle; reaching zero forces status PAID. Admins may
// force-set the status independently of the outstanding amount.
type Loan struct {
	ID                string          `json:"id"`
	ApplicationID     string          `json:"applicationId"`
	UserID            string          `json:"userId"` // borrower, via the application
	LoanNumber        string          `json:"loanNumber"`
	Principal         decimal.Decimal `json:"principal"`
	DisbursedAmount   decimal.Decimal `json:"disbursedAmount"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	InterestRate      decimal.Decimal `json:"interestRate"`
	Term              int             `json:"term"`
	StartDate         time.Time       `json:"startDate"`
	EndDate           time.Time       `json:"endDate"`
	Status            LoanStatus      `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`

	Application *LoanApplication `json:"application,omitempty"`
	Payments    []Payment        `json:"payments,omitempty"`
	Owner       *UserRef         `json:"user,omitempty"`
}

func ValidLoanStatus(s LoanStatus) bool {
	switch s {
	case LoanStatusActive, LoanStatusPaid, LoanStatusDefaulted, LoanStatusClosed:
		return true
	}
	return false
}
