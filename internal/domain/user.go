package domain

import "time"

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is the internal row backing an identity-provider subject. Rows are
// upserted by the identity webhook and never deleted by the application.
type User struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"userId"` // identity-provider subject id
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	CreditScore *int32    `json:"creditScore,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRef is the reduced owner view embedded in admin listings.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
