package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChoreStatus represents the lifecycle state of a chore.
type ChoreStatus string

const (
	ChoreStatusPending   ChoreStatus = "pending"
	ChoreStatusSubmitted ChoreStatus = "submitted"
	ChoreStatusCompleted ChoreStatus = "completed"
	ChoreStatusArchived  ChoreStatus = "archived"
)

// ChorePriority represents the priority level of a chore.
type ChorePriority string

const (
	ChorePriorityLow    ChorePriority = "low"
	ChorePriorityMedium ChorePriority = "medium"
	ChorePriorityHigh   ChorePriority = "high"
)

// Chore is an assignable, rewarded unit of work. Rewards are dual-currency:
// CoinAmount is paid to the completing child's coin balance, PointAmount to
// the shared family pool. Either may be zero.
type Chore struct {
	Base
	Name        string `gorm:"size:200;not null" json:"name"`
	Description string `json:"description"`
	CoinAmount  int64  `gorm:"not null;default:0" json:"coin_amount"`
	PointAmount int64  `gorm:"not null;default:0" json:"point_amount"`
	FamilyID    string `gorm:"type:uuid;not null;index" json:"family_id"`
	CreatedBy   string `gorm:"type:uuid;not null" json:"created_by"`

	// Assignment: at most one of the two is set; both nil means anyone in
	// the family may complete the chore.
	AssignedChildID *string `gorm:"type:uuid;index" json:"assigned_child_id,omitempty"`
	AssignedUserID  *string `gorm:"type:uuid" json:"assigned_user_id,omitempty"`

	Status   ChoreStatus   `gorm:"size:20;not null;default:'pending'" json:"status"`
	Priority ChorePriority `gorm:"size:10;not null;default:'medium'" json:"priority"`
	DueDate  *time.Time    `json:"due_date,omitempty"`
	Notes    string        `json:"notes,omitempty"`

	IsRecurring bool `gorm:"not null;default:false" json:"is_recurring"`
	// RecurringDays holds weekday indices 0 (Monday) through 6 (Sunday).
	RecurringDays datatypes.JSONSlice[int] `json:"recurring_days,omitempty"`

	// SubmittedByChildID records which child submitted the chore for
	// approval; approval settles the coin reward to that child.
	SubmittedByChildID *string `gorm:"type:uuid" json:"submitted_by_child_id,omitempty"`

	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CompletedByUserID  *string    `gorm:"type:uuid" json:"completed_by_user_id,omitempty"`
	CompletedByChildID *string    `gorm:"type:uuid" json:"completed_by_child_id,omitempty"`

	AssignedChild *Child `gorm:"foreignKey:AssignedChildID" json:"assigned_child,omitempty"`
	AssignedUser  *User  `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`
}

// IsAssignedTo reports whether the chore is assigned to the given actor.
// Unassigned chores count as assigned to anyone; direct completion relies
// on this, while submission demands an exact child assignment.
func (ch *Chore) IsAssignedTo(actor Actor) bool {
	if ch.AssignedChildID == nil && ch.AssignedUserID == nil {
		return true
	}
	if ch.AssignedChildID != nil && actor.ChildID != nil {
		return *ch.AssignedChildID == *actor.ChildID
	}
	if ch.AssignedUserID != nil && actor.UserID != nil {
		return *ch.AssignedUserID == *actor.UserID
	}
	return false
}

// IsTerminal reports whether no further status transitions are permitted.
func (ch *Chore) IsTerminal() bool {
	return ch.Status == ChoreStatusCompleted || ch.Status == ChoreStatusArchived
}
