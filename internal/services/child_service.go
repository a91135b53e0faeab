package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
)

// childService implements ChildServicer.
type childService struct {
	db          *gorm.DB
	userService UserServicer
}

// NewChildService creates a new ChildServicer.
func NewChildService(db *gorm.DB, userService UserServicer) ChildServicer {
	return &childService{db: db, userService: userService}
}

func (s *childService) requireFamily(userID string) (string, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.FamilyID == nil {
		return "", apperrors.ErrNoFamily
	}
	return *user.FamilyID, nil
}

func validatePIN(pin string) error {
	if len(pin) < 4 || len(pin) > 8 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must be 4 to 8 digits")
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "PIN must be 4 to 8 digits")
		}
	}
	return nil
}

// AddChild creates a child profile in the user's family. The PIN, when
// set, only gates the kids view and is stored as a bcrypt hash.
func (s *childService) AddChild(userID string, fields ChildCreateFields) (*models.Child, error) {
	name := strings.TrimSpace(fields.Name)
	if len(name) < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if fields.Age != nil && (*fields.Age < 0 || *fields.Age > 25) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "age must be between 0 and 25")
	}

	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	child := &models.Child{
		Name:      name,
		FamilyID:  familyID,
		CreatedBy: userID,
		Birthdate: fields.Birthdate,
		Age:       fields.Age,
	}
	if fields.PIN != "" {
		if err := validatePIN(fields.PIN); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(fields.PIN), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		child.PINHash = string(hashed)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(child).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		coins := &models.ChildCoins{ChildID: child.ID}
		if err := tx.Create(coins).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return child, nil
}

// loadChild fetches a child and checks it belongs to the user's family.
func (s *childService) loadChild(userID, childID string) (*models.Child, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	var child models.Child
	if err := s.db.Where("id = ?", childID).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChildNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if child.FamilyID != familyID {
		return nil, apperrors.ErrWrongFamily
	}
	return &child, nil
}

// UpdateChild applies the provided child fields. An empty PIN clears it.
func (s *childService) UpdateChild(userID, childID string, fields ChildUpdateFields) (*models.Child, error) {
	child, err := s.loadChild(userID, childID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if len(name) < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
		}
		updates["name"] = name
	}
	if fields.Birthdate != nil {
		updates["birthdate"] = *fields.Birthdate
	}
	if fields.Age != nil {
		if *fields.Age < 0 || *fields.Age > 25 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "age must be between 0 and 25")
		}
		updates["age"] = *fields.Age
	}
	if fields.PIN != nil {
		if *fields.PIN == "" {
			updates["pin_hash"] = ""
		} else {
			if err := validatePIN(*fields.PIN); err != nil {
				return nil, err
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(*fields.PIN), bcrypt.DefaultCost)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["pin_hash"] = string(hashed)
		}
	}
	if len(updates) == 0 {
		return child, nil
	}

	if err := s.db.Model(child).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return child, nil
}

// RemoveChild deletes a child profile. The coin transaction history stays
// behind for the family ledger.
func (s *childService) RemoveChild(userID, childID string) error {
	child, err := s.loadChild(userID, childID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("child_id = ?", child.ID).Delete(&models.ChildCoins{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(child).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetChildByID returns a child in the user's family.
func (s *childService) GetChildByID(userID, childID string) (*models.Child, error) {
	return s.loadChild(userID, childID)
}

// GetFamilyChildren lists the children of the user's family.
func (s *childService) GetFamilyChildren(userID string) ([]models.Child, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	var children []models.Child
	if err := s.db.Where("family_id = ?", familyID).Order("created_at ASC").Find(&children).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return children, nil
}

// VerifyPIN checks a plaintext PIN against the child's stored hash. A
// child without a PIN accepts any input.
func (s *childService) VerifyPIN(child *models.Child, pin string) bool {
	if child.PINHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(child.PINHash), []byte(pin)) == nil
}
