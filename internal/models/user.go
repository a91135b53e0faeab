package models

import "time"

// User represents a parent or guardian account. Children never authenticate
// this way; see Child.
type User struct {
	Base
	Username         string     `gorm:"uniqueIndex;not null" json:"username"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	FamilyID         *string    `gorm:"type:uuid;index" json:"family_id,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Family *Family `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
}

// InFamily reports whether the user belongs to the given family.
func (u *User) InFamily(familyID string) bool {
	return u.FamilyID != nil && *u.FamilyID == familyID
}
