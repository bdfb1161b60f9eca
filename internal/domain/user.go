package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserRole string

const (
	RoleIntern   UserRole = "intern"
	RoleEmployee UserRole = "employee"
	RoleSenior   UserRole = "senior"
	RoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleIntern, RoleEmployee, RoleSenior, RoleAdmin:
		return true
	}
	return false
}

// InitialCredits is the starting grant written to the ledger the first time
// a user signs in.
func (r UserRole) InitialCredits() decimal.Decimal {
	switch r {
	case RoleIntern:
		return decimal.NewFromInt(100)
	case RoleEmployee:
		return decimal.NewFromInt(200)
	case RoleSenior:
		return decimal.NewFromInt(300)
	case RoleAdmin:
		return decimal.NewFromInt(1000)
	default:
		return decimal.NewFromInt(100)
	}
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	StartDate    time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
