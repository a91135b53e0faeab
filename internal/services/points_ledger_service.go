package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/pagination"
)

// pointsLedgerService persists the shared family point balance. Mutations
// are single guarded UPDATE statements, so two settlements racing on the
// same family cannot lose a write or drive the balance negative.
type pointsLedgerService struct {
	db *gorm.DB
}

// NewPointsLedgerService creates a new PointsLedgerServicer.
func NewPointsLedgerService(db *gorm.DB) PointsLedgerServicer {
	return &pointsLedgerService{db: db}
}

// GetOrCreate returns the balance row for a family, creating a zero row if
// none exists. Idempotent.
func (s *pointsLedgerService) GetOrCreate(tx *gorm.DB, familyID string) (*models.FamilyPoints, error) {
	if tx == nil {
		tx = s.db
	}
	points := &models.FamilyPoints{}
	err := tx.Where(models.FamilyPoints{FamilyID: familyID}).
		Attrs(models.FamilyPoints{TotalPoints: 0, LastUpdated: time.Now()}).
		FirstOrCreate(points).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return points, nil
}

// Credit adds amount to the family balance and returns the new total.
func (s *pointsLedgerService) Credit(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, familyID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.FamilyPoints{}).
		Where("family_id = ?", familyID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", amount),
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	return s.balanceWithDB(tx, familyID)
}

// Debit subtracts amount from the family balance and returns the new total.
// The WHERE guard rejects the update when the balance is too low, so a
// partial or negative balance is impossible even under concurrent debits.
func (s *pointsLedgerService) Debit(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, familyID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.FamilyPoints{}).
		Where("family_id = ? AND total_points >= ?", familyID, amount).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points - ?", amount),
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrInsufficientPoints
	}

	return s.balanceWithDB(tx, familyID)
}

// Set overwrites the family balance unconditionally. This bypasses the
// transaction-log pairing; callers must write a compensating transaction
// entry for the delta.
func (s *pointsLedgerService) Set(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error) {
	if amount < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "points cannot be negative")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, familyID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.FamilyPoints{}).
		Where("family_id = ?", familyID).
		Updates(map[string]interface{}{
			"total_points": amount,
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	return amount, nil
}

// Balance returns the current point total for a family, zero if the family
// has no balance row yet.
func (s *pointsLedgerService) Balance(familyID string) (int64, error) {
	return s.balanceWithDB(s.db, familyID)
}

func (s *pointsLedgerService) balanceWithDB(tx *gorm.DB, familyID string) (int64, error) {
	var points models.FamilyPoints
	if err := tx.Where("family_id = ?", familyID).First(&points).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return points.TotalPoints, nil
}

// Transactions returns the family's most recent point transactions, newest
// first, optionally filtered by type.
func (s *pointsLedgerService) Transactions(familyID string, limit int, txType *models.TransactionType) ([]models.PointsTransaction, error) {
	limit = pagination.ClampLimit(limit, 50, 200)

	q := s.db.Where("family_id = ?", familyID)
	if txType != nil {
		q = q.Where("type = ?", *txType)
	}

	var txns []models.PointsTransaction
	if err := q.Order("created_at DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}
