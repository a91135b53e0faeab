package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/pagination"
)

// coinLedgerService persists per-child coin balances with the same guarded
// UPDATE discipline as the family point ledger.
type coinLedgerService struct {
	db *gorm.DB
}

// NewCoinLedgerService creates a new CoinLedgerServicer.
func NewCoinLedgerService(db *gorm.DB) CoinLedgerServicer {
	return &coinLedgerService{db: db}
}

// GetOrCreate returns the coin balance row for a child, creating a zero row
// if none exists. Idempotent.
func (s *coinLedgerService) GetOrCreate(tx *gorm.DB, childID string) (*models.ChildCoins, error) {
	if tx == nil {
		tx = s.db
	}
	coins := &models.ChildCoins{}
	err := tx.Where(models.ChildCoins{ChildID: childID}).
		Attrs(models.ChildCoins{TotalCoins: 0, LastUpdated: time.Now()}).
		FirstOrCreate(coins).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return coins, nil
}

// Credit adds amount to the child's coins and returns the new total.
func (s *coinLedgerService) Credit(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, childID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.ChildCoins{}).
		Where("child_id = ?", childID).
		Updates(map[string]interface{}{
			"total_coins":  gorm.Expr("total_coins + ?", amount),
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	return s.balanceWithDB(tx, childID)
}

// Debit subtracts amount from the child's coins, failing when the balance
// is too low. No partial debit, never negative.
func (s *coinLedgerService) Debit(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error) {
	if amount <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, childID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.ChildCoins{}).
		Where("child_id = ? AND total_coins >= ?", childID, amount).
		Updates(map[string]interface{}{
			"total_coins":  gorm.Expr("total_coins - ?", amount),
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrInsufficientCoins
	}

	return s.balanceWithDB(tx, childID)
}

// Set overwrites the child's coin balance unconditionally. Callers must
// pair it with a compensating transaction entry.
func (s *coinLedgerService) Set(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error) {
	if amount < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "coins cannot be negative")
	}
	if tx == nil {
		tx = s.db
	}
	if _, err := s.GetOrCreate(tx, childID); err != nil {
		return 0, err
	}

	res := tx.Model(&models.ChildCoins{}).
		Where("child_id = ?", childID).
		Updates(map[string]interface{}{
			"total_coins":  amount,
			"last_updated": time.Now(),
			"updated_by":   actor.StampID(),
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}

	return amount, nil
}

// Balance returns the current coin total for a child, zero if the child
// has no balance row yet.
func (s *coinLedgerService) Balance(childID string) (int64, error) {
	return s.balanceWithDB(s.db, childID)
}

func (s *coinLedgerService) balanceWithDB(tx *gorm.DB, childID string) (int64, error) {
	var coins models.ChildCoins
	if err := tx.Where("child_id = ?", childID).First(&coins).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return coins.TotalCoins, nil
}

// Transactions returns the child's most recent coin transactions, newest
// first, optionally filtered by type.
func (s *coinLedgerService) Transactions(childID string, limit int, txType *models.TransactionType) ([]models.CoinTransaction, error) {
	limit = pagination.ClampLimit(limit, 50, 200)

	q := s.db.Where("child_id = ?", childID)
	if txType != nil {
		q = q.Where("type = ?", *txType)
	}

	var txns []models.CoinTransaction
	if err := q.Order("created_at DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txns, nil
}
