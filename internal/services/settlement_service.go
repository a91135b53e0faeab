package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
)

// settlementService turns domain events into balance mutations paired with
// audit transaction records. Each settlement runs inside one database
// transaction so the balance, the catalog, and the transaction log can
// never drift apart.
type settlementService struct {
	db           *gorm.DB
	pointsLedger PointsLedgerServicer
	coinLedger   CoinLedgerServicer
	catalog      CatalogServicer
}

// NewSettlementService creates a new SettlementServicer.
func NewSettlementService(db *gorm.DB, pointsLedger PointsLedgerServicer, coinLedger CoinLedgerServicer, catalog CatalogServicer) SettlementServicer {
	return &settlementService{
		db:           db,
		pointsLedger: pointsLedger,
		coinLedger:   coinLedger,
		catalog:      catalog,
	}
}

// actorName resolves a human-readable name for a transaction description.
func (s *settlementService) actorName(tx *gorm.DB, actor models.Actor) string {
	if actor.ChildID != nil {
		var child models.Child
		if err := tx.Select("name").Where("id = ?", *actor.ChildID).First(&child).Error; err == nil {
			return child.Name
		}
		return "Unknown child"
	}
	if actor.UserID != nil {
		var user models.User
		if err := tx.Select("username").Where("id = ?", *actor.UserID).First(&user).Error; err == nil {
			return user.Username
		}
		return "Unknown adult"
	}
	return "System"
}

// actorFamilyID returns the family the acting user or child belongs to.
func (s *settlementService) actorFamilyID(tx *gorm.DB, actor models.Actor) (string, error) {
	if actor.ChildID != nil {
		var child models.Child
		if err := tx.Where("id = ?", *actor.ChildID).First(&child).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.ErrChildNotFound
			}
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return child.FamilyID, nil
	}
	if actor.UserID != nil {
		var user models.User
		if err := tx.Where("id = ?", *actor.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.ErrUserNotFound
			}
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if user.FamilyID == nil {
			return "", apperrors.ErrNoFamily
		}
		return *user.FamilyID, nil
	}
	return "", apperrors.ErrUnauthorized
}

// requireManager loads the user's family and checks they manage it.
func (s *settlementService) requireManager(userID string) (*models.Family, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.FamilyID == nil {
		return nil, apperrors.ErrNoFamily
	}
	var family models.Family
	if err := s.db.Where("id = ?", *user.FamilyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !family.IsManager(userID) {
		return nil, apperrors.ErrNotFamilyManager
	}
	return &family, nil
}

// SettleChoreCompletion marks a chore completed and credits its rewards:
// the point amount to the family pool, the coin amount to the completing
// child. approvedBy is the adult approving a submitted chore; when nil the
// chore must still be pending. Re-settling a completed chore fails and
// never credits twice.
func (s *settlementService) SettleChoreCompletion(choreID string, completer models.Actor, approvedBy *string) (*ChoreSettlement, error) {
	var result *ChoreSettlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var chore models.Chore
		if err := tx.Where("id = ?", choreID).First(&chore).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrChoreNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		switch chore.Status {
		case models.ChoreStatusCompleted:
			return apperrors.ErrChoreCompleted
		case models.ChoreStatusArchived:
			return apperrors.ErrChoreArchived
		case models.ChoreStatusSubmitted:
			if approvedBy == nil {
				return apperrors.ErrChoreNotPending
			}
		}

		familyID, err := s.actorFamilyID(tx, completer)
		if err != nil {
			return err
		}
		if familyID != chore.FamilyID {
			return apperrors.ErrWrongFamily
		}
		if !chore.IsAssignedTo(completer) {
			return apperrors.ErrNotAssignee
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":                models.ChoreStatusCompleted,
			"completed_at":          now,
			"completed_by_user_id":  completer.UserID,
			"completed_by_child_id": completer.ChildID,
		}
		// Guard on the old status so two racing completions cannot both
		// settle: the loser sees zero rows updated.
		res := tx.Model(&models.Chore{}).
			Where("id = ? AND status = ?", chore.ID, chore.Status).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrChoreCompleted
		}

		settlement := &ChoreSettlement{}
		name := s.actorName(tx, completer)

		if chore.PointAmount > 0 {
			stampActor := completer
			if approvedBy != nil {
				stampActor = models.UserActor(*approvedBy)
			}
			if _, err := s.pointsLedger.Credit(tx, chore.FamilyID, chore.PointAmount, stampActor); err != nil {
				return err
			}
			ptxn := &models.PointsTransaction{
				FamilyID:    chore.FamilyID,
				UserID:      completer.UserID,
				ChildID:     completer.ChildID,
				Amount:      chore.PointAmount,
				Type:        models.TransactionTypeChoreCompletion,
				Description: fmt.Sprintf("%s completed chore %q", name, chore.Name),
				ReferenceID: &chore.ID,
			}
			if err := tx.Create(ptxn).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			settlement.PointsTxn = ptxn
		}

		if chore.CoinAmount > 0 && completer.ChildID != nil {
			if _, err := s.coinLedger.Credit(tx, *completer.ChildID, chore.CoinAmount, completer); err != nil {
				return err
			}
			ctxn := &models.CoinTransaction{
				ChildID:     *completer.ChildID,
				UserID:      approvedBy,
				Amount:      chore.CoinAmount,
				Type:        models.TransactionTypeChoreCompletion,
				Description: fmt.Sprintf("%s completed chore %q", name, chore.Name),
				ReferenceID: &chore.ID,
			}
			if err := tx.Create(ctxn).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			settlement.CoinTxn = ctxn
		}

		if err := tx.Where("id = ?", chore.ID).First(&chore).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		settlement.Chore = &chore
		result = settlement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleFamilyRewardPurchase debits the family point pool by the reward's
// cost and takes one unit of stock. If either step fails the whole unit of
// work rolls back, so a failed purchase leaves the balance, the stock, and
// the transaction log untouched.
func (s *settlementService) SettleFamilyRewardPurchase(rewardID, buyerID string) (*models.PointsTransaction, error) {
	var buyer models.User
	if err := s.db.Where("id = ?", buyerID).First(&buyer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if buyer.FamilyID == nil {
		return nil, apperrors.ErrNoFamily
	}

	var result *models.PointsTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reward models.FamilyReward
		if err := tx.Where("id = ?", rewardID).First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if reward.FamilyID != *buyer.FamilyID {
			return apperrors.ErrWrongFamily
		}
		if !reward.Available() {
			return apperrors.ErrItemUnavailable
		}

		if _, err := s.pointsLedger.Debit(tx, reward.FamilyID, reward.PointCost, models.UserActor(buyerID)); err != nil {
			return err
		}
		if err := s.catalog.ConsumeOneFamily(tx, reward.ID); err != nil {
			// Rolling back refunds the debit; nothing is recorded for
			// the failed purchase.
			return err
		}

		ptxn := &models.PointsTransaction{
			FamilyID:    reward.FamilyID,
			UserID:      &buyer.ID,
			Amount:      -reward.PointCost,
			Type:        models.TransactionTypeStorePurchase,
			Description: fmt.Sprintf("%s purchased %q", buyer.Username, reward.Name),
			ReferenceID: &reward.ID,
		}
		if err := tx.Create(ptxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = ptxn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleIndividualRewardPurchase debits a child's coins by the reward's
// cost and takes one unit of stock, under the same all-or-nothing rules as
// family purchases.
func (s *settlementService) SettleIndividualRewardPurchase(rewardID, childID, byUserID string) (*models.CoinTransaction, error) {
	var user models.User
	if err := s.db.Where("id = ?", byUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.FamilyID == nil {
		return nil, apperrors.ErrNoFamily
	}

	var result *models.CoinTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var child models.Child
		if err := tx.Where("id = ?", childID).First(&child).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrChildNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if child.FamilyID != *user.FamilyID {
			return apperrors.ErrWrongFamily
		}

		var reward models.IndividualReward
		if err := tx.Where("id = ?", rewardID).First(&reward).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if reward.FamilyID != child.FamilyID {
			return apperrors.ErrWrongFamily
		}
		if !reward.Available() {
			return apperrors.ErrItemUnavailable
		}

		if _, err := s.coinLedger.Debit(tx, child.ID, reward.CoinCost, models.UserActor(byUserID)); err != nil {
			return err
		}
		if err := s.catalog.ConsumeOneIndividual(tx, reward.ID); err != nil {
			return err
		}

		ctxn := &models.CoinTransaction{
			ChildID:     child.ID,
			UserID:      &user.ID,
			Amount:      -reward.CoinCost,
			Type:        models.TransactionTypeStorePurchase,
			Description: fmt.Sprintf("%s purchased %q", child.Name, reward.Name),
			ReferenceID: &reward.ID,
		}
		if err := tx.Create(ctxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = ctxn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleConversion exchanges a child's coins for family points at the
// item's ratio, using floor division. Only whole multiples of the ratio are
// debited; a remainder that converts to nothing stays on the child's
// balance. Both ledgers mutate in one unit of work, each paired with its
// own transaction record.
func (s *settlementService) SettleConversion(itemID, childID, byUserID string, coins int64) (*ConversionSettlement, error) {
	if coins <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "coins must be greater than zero")
	}

	var user models.User
	if err := s.db.Where("id = ?", byUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.FamilyID == nil {
		return nil, apperrors.ErrNoFamily
	}

	var result *ConversionSettlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var child models.Child
		if err := tx.Where("id = ?", childID).First(&child).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrChildNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if child.FamilyID != *user.FamilyID {
			return apperrors.ErrWrongFamily
		}

		var item models.ConversionItem
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrItemNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if item.FamilyID != child.FamilyID {
			return apperrors.ErrWrongFamily
		}
		if !item.IsAvailable {
			return apperrors.ErrItemUnavailable
		}

		points := item.PointsFor(coins)
		if points <= 0 {
			return apperrors.ErrBelowMinimum
		}
		spent := points * item.CoinsPerPoint

		if _, err := s.coinLedger.Debit(tx, child.ID, spent, models.UserActor(byUserID)); err != nil {
			return err
		}
		desc := fmt.Sprintf("%s converted %d coins into %d family points", child.Name, spent, points)

		ctxn := &models.CoinTransaction{
			ChildID:     child.ID,
			UserID:      &user.ID,
			Amount:      -spent,
			Type:        models.TransactionTypeCoinsConversion,
			Description: desc,
			ReferenceID: &item.ID,
		}
		if err := tx.Create(ctxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if _, err := s.pointsLedger.Credit(tx, child.FamilyID, points, models.UserActor(byUserID)); err != nil {
			return err
		}
		ptxn := &models.PointsTransaction{
			FamilyID:    child.FamilyID,
			ChildID:     &child.ID,
			Amount:      points,
			Type:        models.TransactionTypeCoinsConversion,
			Description: desc,
			ReferenceID: &item.ID,
		}
		if err := tx.Create(ptxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = &ConversionSettlement{
			CoinsSpent:   spent,
			PointsEarned: points,
			PointsTxn:    ptxn,
			CoinTxn:      ctxn,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleManualAdjustment credits or debits the family pool by a signed
// amount. Manager-only; a debit that would go negative fails and leaves
// the balance unchanged.
func (s *settlementService) SettleManualAdjustment(userID string, amount int64, description string) (*models.PointsTransaction, error) {
	if amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "adjustment amount cannot be zero")
	}
	family, err := s.requireManager(userID)
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = "Manual adjustment"
	}

	var result *models.PointsTransaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		actor := models.UserActor(userID)
		if amount > 0 {
			if _, err := s.pointsLedger.Credit(tx, family.ID, amount, actor); err != nil {
				return err
			}
		} else {
			if _, err := s.pointsLedger.Debit(tx, family.ID, -amount, actor); err != nil {
				return err
			}
		}

		ptxn := &models.PointsTransaction{
			FamilyID:    family.ID,
			UserID:      &userID,
			Amount:      amount,
			Type:        models.TransactionTypeManualAdjustment,
			Description: description,
		}
		if err := tx.Create(ptxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = ptxn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetFamilyPoints overwrites the family balance and records a compensating
// manual adjustment for the delta, preserving the rule that the transaction
// log always sums to the balance. Returns nil when the balance is already
// at the requested total.
func (s *settlementService) SetFamilyPoints(userID string, total int64) (*models.PointsTransaction, error) {
	if total < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "points cannot be negative")
	}
	family, err := s.requireManager(userID)
	if err != nil {
		return nil, err
	}

	var result *models.PointsTransaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		points, err := s.pointsLedger.GetOrCreate(tx, family.ID)
		if err != nil {
			return err
		}
		delta := total - points.TotalPoints
		if delta == 0 {
			return nil
		}

		if _, err := s.pointsLedger.Set(tx, family.ID, total, models.UserActor(userID)); err != nil {
			return err
		}

		ptxn := &models.PointsTransaction{
			FamilyID:    family.ID,
			UserID:      &userID,
			Amount:      delta,
			Type:        models.TransactionTypeManualAdjustment,
			Description: fmt.Sprintf("Family points set to %d", total),
		}
		if err := tx.Create(ptxn).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = ptxn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
