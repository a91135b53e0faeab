package models

import (
	"time"

	"chorebank/internal/uuid"

	"gorm.io/gorm"
)

// ChildCoins holds the coin balance for one child, mirroring the family
// point ledger. Coins are earned from chores and spent on individual
// rewards or converted into family points.
type ChildCoins struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID     string    `gorm:"type:uuid;uniqueIndex;not null" json:"child_id"`
	TotalCoins  int64     `gorm:"not null;default:0" json:"total_coins"`
	LastUpdated time.Time `json:"last_updated"`
	// UpdatedBy holds the user or child who drove the last mutation.
	UpdatedBy *string `gorm:"type:uuid" json:"updated_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new balance rows.
func (c *ChildCoins) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	return nil
}

// CoinTransaction is an immutable audit entry for a child coin balance
// change. The sum of all amounts for a child always equals their balance.
type CoinTransaction struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	ChildID     string          `gorm:"type:uuid;not null;index" json:"child_id"`
	UserID      *string         `gorm:"type:uuid" json:"user_id,omitempty"`
	Amount      int64           `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Type        TransactionType `gorm:"size:30;not null;index" json:"type"`
	Description string          `gorm:"size:200" json:"description"`
	ReferenceID *string         `gorm:"type:uuid" json:"reference_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new transaction rows.
func (t *CoinTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}
