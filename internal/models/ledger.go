package models

import (
	"time"

	"chorebank/internal/uuid"

	"gorm.io/gorm"
)

// TransactionType classifies the domain event behind a ledger mutation.
type TransactionType string

const (
	TransactionTypeChoreCompletion  TransactionType = "chore_completion"
	TransactionTypeManualAdjustment TransactionType = "manual_adjustment"
	TransactionTypeStorePurchase    TransactionType = "store_purchase"
	TransactionTypeCoinsConversion  TransactionType = "coins_conversion"
)

// Actor identifies who drove a ledger mutation: an adult user, a child, or
// the system (both nil).
type Actor struct {
	UserID  *string
	ChildID *string
}

// UserActor returns an Actor for an adult user.
func UserActor(userID string) Actor { return Actor{UserID: &userID} }

// ChildActor returns an Actor for a child.
func ChildActor(childID string) Actor { return Actor{ChildID: &childID} }

// StampID returns the acting user's ID, or the child's for child-driven
// mutations. Nil for system actions. Balance rows record it as updated_by.
func (a Actor) StampID() *string {
	if a.UserID != nil {
		return a.UserID
	}
	return a.ChildID
}

// FamilyPoints holds the shared point balance for one family. One row per
// family; the balance never goes negative.
type FamilyPoints struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	FamilyID    string     `gorm:"type:uuid;uniqueIndex;not null" json:"family_id"`
	TotalPoints int64      `gorm:"not null;default:0" json:"total_points"`
	LastUpdated time.Time  `json:"last_updated"`
	// UpdatedBy holds the user or child who drove the last mutation.
	UpdatedBy *string `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new balance rows.
func (p *FamilyPoints) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}

// PointsTransaction is an immutable audit entry for a family point balance
// change. The sum of all amounts for a family always equals its balance.
type PointsTransaction struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	FamilyID    string          `gorm:"type:uuid;not null;index" json:"family_id"`
	UserID      *string         `gorm:"type:uuid" json:"user_id,omitempty"`
	ChildID     *string         `gorm:"type:uuid" json:"child_id,omitempty"`
	Amount      int64           `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Type        TransactionType `gorm:"size:30;not null;index" json:"type"`
	Description string          `gorm:"size:200" json:"description"`
	ReferenceID *string         `gorm:"type:uuid" json:"reference_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new transaction rows.
func (t *PointsTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}
