package models

// Family is the household unit sharing a point balance and a reward catalog.
// The creator acts as the family manager for manager-only operations.
type Family struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Code      string `gorm:"size:10;uniqueIndex;not null" json:"code"`
	CreatorID string `gorm:"type:uuid;not null" json:"creator_id"`

	Users    []User  `gorm:"foreignKey:FamilyID" json:"users,omitempty"`
	Children []Child `gorm:"foreignKey:FamilyID" json:"children,omitempty"`
}

// IsManager reports whether the given user is this family's manager.
func (f *Family) IsManager(userID string) bool {
	return f.CreatorID == userID
}

// JoinRequestStatus represents the state of a request to join a family.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a pending request by a user to join a family via its code.
type JoinRequest struct {
	Base
	UserID   string            `gorm:"type:uuid;not null;index" json:"user_id"`
	FamilyID string            `gorm:"type:uuid;not null;index" json:"family_id"`
	Status   JoinRequestStatus `gorm:"size:20;not null;default:'pending'" json:"status"`

	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Family Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}
