package models

// IndividualReward is a catalog entry purchased by a child with coins.
// Qty nil means infinite stock.
type IndividualReward struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `json:"description"`
	CoinCost    int64  `gorm:"not null" json:"coin_cost"`
	Qty         *int   `json:"qty,omitempty"`
	IsAvailable bool   `gorm:"not null;default:true" json:"is_available"`
	FamilyID    string `gorm:"type:uuid;not null;index" json:"family_id"`
	CreatedBy   string `gorm:"type:uuid;not null" json:"created_by"`
}

// Available reports whether the reward can currently be purchased.
func (r *IndividualReward) Available() bool {
	return r.IsAvailable && (r.Qty == nil || *r.Qty > 0)
}

// FamilyReward is a catalog entry purchased from the shared family point
// pool. Qty nil means infinite stock.
type FamilyReward struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `json:"description"`
	PointCost   int64  `gorm:"not null" json:"point_cost"`
	Qty         *int   `json:"qty,omitempty"`
	IsAvailable bool   `gorm:"not null;default:true" json:"is_available"`
	FamilyID    string `gorm:"type:uuid;not null;index" json:"family_id"`
	CreatedBy   string `gorm:"type:uuid;not null" json:"created_by"`
}

// Available reports whether the reward can currently be purchased.
func (r *FamilyReward) Available() bool {
	return r.IsAvailable && (r.Qty == nil || *r.Qty > 0)
}
