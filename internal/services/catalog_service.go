package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
)

// catalogService manages the family store catalog.
type catalogService struct {
	db          *gorm.DB
	userService UserServicer
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB, userService UserServicer) CatalogServicer {
	return &catalogService{db: db, userService: userService}
}

// requireFamily loads the user and returns their family ID, failing when
// the user has no family.
func (s *catalogService) requireFamily(userID string) (string, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.FamilyID == nil {
		return "", apperrors.ErrNoFamily
	}
	return *user.FamilyID, nil
}

func validateRewardFields(fields RewardCreateFields) (string, error) {
	name := strings.TrimSpace(fields.Name)
	if len(name) < 2 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at least 2 characters long")
	}
	if fields.Cost < 1 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "cost must be a positive number")
	}
	if fields.Qty != nil && *fields.Qty < 1 {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be a positive number unless infinite")
	}
	return name, nil
}

// CreateIndividualReward creates a coin-priced reward in the user's family store.
func (s *catalogService) CreateIndividualReward(userID string, fields RewardCreateFields) (*models.IndividualReward, error) {
	name, err := validateRewardFields(fields)
	if err != nil {
		return nil, err
	}
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	reward := &models.IndividualReward{
		Name:        name,
		Description: fields.Description,
		CoinCost:    fields.Cost,
		Qty:         fields.Qty,
		IsAvailable: true,
		FamilyID:    familyID,
		CreatedBy:   userID,
	}
	if err := s.db.Create(reward).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reward, nil
}

// CreateFamilyReward creates a point-priced reward in the user's family store.
func (s *catalogService) CreateFamilyReward(userID string, fields RewardCreateFields) (*models.FamilyReward, error) {
	name, err := validateRewardFields(fields)
	if err != nil {
		return nil, err
	}
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	reward := &models.FamilyReward{
		Name:        name,
		Description: fields.Description,
		PointCost:   fields.Cost,
		Qty:         fields.Qty,
		IsAvailable: true,
		FamilyID:    familyID,
		CreatedBy:   userID,
	}
	if err := s.db.Create(reward).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reward, nil
}

// CreateConversionItem creates a coin-to-point conversion rate in the
// user's family store.
func (s *catalogService) CreateConversionItem(userID string, fields ConversionCreateFields) (*models.ConversionItem, error) {
	name := strings.TrimSpace(fields.Name)
	if len(name) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at least 2 characters long")
	}
	if fields.CoinsPerPoint < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "conversion ratio must be a positive number")
	}
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	item := &models.ConversionItem{
		Name:          name,
		Description:   fields.Description,
		CoinsPerPoint: fields.CoinsPerPoint,
		IsAvailable:   true,
		FamilyID:      familyID,
		CreatedBy:     userID,
	}
	if err := s.db.Create(item).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return item, nil
}

// ListIndividualRewards returns the family's individual rewards, newest first.
func (s *catalogService) ListIndividualRewards(userID string, availableOnly bool) ([]models.IndividualReward, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	q := s.db.Where("family_id = ?", familyID)
	if availableOnly {
		q = q.Where("is_available = ? AND (qty IS NULL OR qty > 0)", true)
	}
	var rewards []models.IndividualReward
	if err := q.Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rewards, nil
}

// ListFamilyRewards returns the family's shared rewards, newest first.
func (s *catalogService) ListFamilyRewards(userID string, availableOnly bool) ([]models.FamilyReward, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	q := s.db.Where("family_id = ?", familyID)
	if availableOnly {
		q = q.Where("is_available = ? AND (qty IS NULL OR qty > 0)", true)
	}
	var rewards []models.FamilyReward
	if err := q.Order("created_at DESC").Find(&rewards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rewards, nil
}

// ListConversionItems returns the family's conversion items, newest first.
func (s *catalogService) ListConversionItems(userID string, availableOnly bool) ([]models.ConversionItem, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	q := s.db.Where("family_id = ?", familyID)
	if availableOnly {
		q = q.Where("is_available = ?", true)
	}
	var items []models.ConversionItem
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// getIndividualReward loads a reward scoped to the user's family.
func (s *catalogService) getIndividualReward(userID, rewardID string) (*models.IndividualReward, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	var reward models.IndividualReward
	if err := s.db.Where("id = ? AND family_id = ?", rewardID, familyID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reward, nil
}

func (s *catalogService) getFamilyReward(userID, rewardID string) (*models.FamilyReward, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	var reward models.FamilyReward
	if err := s.db.Where("id = ? AND family_id = ?", rewardID, familyID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reward, nil
}

func (s *catalogService) getConversionItem(userID, itemID string) (*models.ConversionItem, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	var item models.ConversionItem
	if err := s.db.Where("id = ? AND family_id = ?", itemID, familyID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}

// rewardUpdates builds the column map for a reward update. The Infinite
// flag clears the quantity; a Qty value re-fixes it.
func rewardUpdates(fields RewardUpdateFields, costColumn string) (map[string]interface{}, error) {
	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if len(name) < 2 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at least 2 characters long")
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Cost != nil {
		if *fields.Cost < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "cost must be a positive number")
		}
		updates[costColumn] = *fields.Cost
	}
	if fields.Infinite != nil && *fields.Infinite {
		updates["qty"] = nil
	} else if fields.Qty != nil {
		if *fields.Qty < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be a positive number unless infinite")
		}
		updates["qty"] = *fields.Qty
	}
	if fields.IsAvailable != nil {
		updates["is_available"] = *fields.IsAvailable
	}
	return updates, nil
}

// UpdateIndividualReward applies an explicit field update to a reward.
func (s *catalogService) UpdateIndividualReward(userID, rewardID string, fields RewardUpdateFields) (*models.IndividualReward, error) {
	reward, err := s.getIndividualReward(userID, rewardID)
	if err != nil {
		return nil, err
	}
	updates, err := rewardUpdates(fields, "coin_cost")
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(reward).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", reward.ID).First(reward).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return reward, nil
}

// UpdateFamilyReward applies an explicit field update to a reward.
func (s *catalogService) UpdateFamilyReward(userID, rewardID string, fields RewardUpdateFields) (*models.FamilyReward, error) {
	reward, err := s.getFamilyReward(userID, rewardID)
	if err != nil {
		return nil, err
	}
	updates, err := rewardUpdates(fields, "point_cost")
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(reward).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", reward.ID).First(reward).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return reward, nil
}

// UpdateConversionItem applies an explicit field update to a conversion item.
func (s *catalogService) UpdateConversionItem(userID, itemID string, fields ConversionUpdateFields) (*models.ConversionItem, error) {
	item, err := s.getConversionItem(userID, itemID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if len(name) < 2 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at least 2 characters long")
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.CoinsPerPoint != nil {
		if *fields.CoinsPerPoint < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "conversion ratio must be a positive number")
		}
		updates["coins_per_point"] = *fields.CoinsPerPoint
	}
	if fields.IsAvailable != nil {
		updates["is_available"] = *fields.IsAvailable
	}

	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", item.ID).First(item).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return item, nil
}

// DeactivateIndividualReward marks a reward unavailable without removing it.
func (s *catalogService) DeactivateIndividualReward(userID, rewardID string) error {
	reward, err := s.getIndividualReward(userID, rewardID)
	if err != nil {
		return err
	}
	if err := s.db.Model(reward).Update("is_available", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeactivateFamilyReward marks a reward unavailable without removing it.
func (s *catalogService) DeactivateFamilyReward(userID, rewardID string) error {
	reward, err := s.getFamilyReward(userID, rewardID)
	if err != nil {
		return err
	}
	if err := s.db.Model(reward).Update("is_available", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeactivateConversionItem marks a conversion item unavailable.
func (s *catalogService) DeactivateConversionItem(userID, itemID string) error {
	item, err := s.getConversionItem(userID, itemID)
	if err != nil {
		return err
	}
	if err := s.db.Model(item).Update("is_available", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// coinTxnReferences reports whether any coin transaction references the item.
func (s *catalogService) coinTxnReferences(itemID string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.CoinTransaction{}).Where("reference_id = ?", itemID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// pointsTxnReferences reports whether any points transaction references the item.
func (s *catalogService) pointsTxnReferences(itemID string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.PointsTransaction{}).Where("reference_id = ?", itemID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// DeleteIndividualReward removes a reward. Rewards referenced by past
// transactions cannot be deleted; deactivate them instead.
func (s *catalogService) DeleteIndividualReward(userID, rewardID string) error {
	reward, err := s.getIndividualReward(userID, rewardID)
	if err != nil {
		return err
	}
	inUse, err := s.coinTxnReferences(reward.ID)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.ErrItemInUse
	}
	if err := s.db.Delete(reward).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteFamilyReward removes a reward unless past transactions reference it.
func (s *catalogService) DeleteFamilyReward(userID, rewardID string) error {
	reward, err := s.getFamilyReward(userID, rewardID)
	if err != nil {
		return err
	}
	inUse, err := s.pointsTxnReferences(reward.ID)
	if err != nil {
		return err
	}
	if inUse {
		return apperrors.ErrItemInUse
	}
	if err := s.db.Delete(reward).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// DeleteConversionItem removes a conversion item unless past transactions
// on either ledger reference it.
func (s *catalogService) DeleteConversionItem(userID, itemID string) error {
	item, err := s.getConversionItem(userID, itemID)
	if err != nil {
		return err
	}
	pointsUse, err := s.pointsTxnReferences(item.ID)
	if err != nil {
		return err
	}
	coinUse, err := s.coinTxnReferences(item.ID)
	if err != nil {
		return err
	}
	if pointsUse || coinUse {
		return apperrors.ErrItemInUse
	}
	if err := s.db.Delete(item).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ConsumeOneIndividual decrements a finite reward's stock by one. The
// guarded UPDATE makes the last unit race safe: whichever purchase loses
// sees zero rows affected and fails with ErrItemUnavailable.
func (s *catalogService) ConsumeOneIndividual(tx *gorm.DB, rewardID string) error {
	if tx == nil {
		tx = s.db
	}
	var reward models.IndividualReward
	if err := tx.Where("id = ?", rewardID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrItemNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if reward.Qty == nil {
		return nil // infinite stock
	}

	res := tx.Model(&models.IndividualReward{}).
		Where("id = ? AND qty > 0", rewardID).
		Update("qty", gorm.Expr("qty - 1"))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrItemUnavailable
	}
	return nil
}

// ConsumeOneFamily decrements a finite family reward's stock by one.
func (s *catalogService) ConsumeOneFamily(tx *gorm.DB, rewardID string) error {
	if tx == nil {
		tx = s.db
	}
	var reward models.FamilyReward
	if err := tx.Where("id = ?", rewardID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrItemNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if reward.Qty == nil {
		return nil // infinite stock
	}

	res := tx.Model(&models.FamilyReward{}).
		Where("id = ? AND qty > 0", rewardID).
		Update("qty", gorm.Expr("qty - 1"))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrItemUnavailable
	}
	return nil
}
