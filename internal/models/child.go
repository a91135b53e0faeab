package models

import "time"

// Child is a dependent profile under a family. Children are not
// authenticating principals; the optional PIN only gates the kids view.
type Child struct {
	Base
	Name      string     `gorm:"not null" json:"name"`
	FamilyID  string     `gorm:"type:uuid;not null;index" json:"family_id"`
	CreatedBy string     `gorm:"type:uuid;not null" json:"created_by"`
	Birthdate *time.Time `json:"birthdate,omitempty"`
	// Age is a legacy fallback; Birthdate is authoritative when set.
	Age     *int   `json:"age,omitempty"`
	PINHash string `gorm:"size:60" json:"-"`
}

// CurrentAge returns the child's age derived from the birthdate when
// available, falling back to the stored legacy age.
func (c *Child) CurrentAge(now time.Time) *int {
	if c.Birthdate != nil {
		age := now.Year() - c.Birthdate.Year()
		anniversary := c.Birthdate.AddDate(age, 0, 0)
		if anniversary.After(now) {
			age--
		}
		return &age
	}
	return c.Age
}
