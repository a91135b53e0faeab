package models

// ConversionItem defines an exchange rate from a child's coins into family
// points. Converting N coins yields floor(N / CoinsPerPoint) points.
type ConversionItem struct {
	Base
	Name          string `gorm:"size:100;not null" json:"name"`
	Description   string `json:"description"`
	CoinsPerPoint int64  `gorm:"not null" json:"coins_per_point"`
	IsAvailable   bool   `gorm:"not null;default:true" json:"is_available"`
	FamilyID      string `gorm:"type:uuid;not null;index" json:"family_id"`
	CreatedBy     string `gorm:"type:uuid;not null" json:"created_by"`
}

// PointsFor returns the points earned by converting the given number of
// coins, using floor division.
func (i *ConversionItem) PointsFor(coins int64) int64 {
	if i.CoinsPerPoint <= 0 {
		return 0
	}
	return coins / i.CoinsPerPoint
}
