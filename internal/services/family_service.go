package services

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
)

const familyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const familyCodeLength = 6

// familyService implements FamilyServicer.
type familyService struct {
	db          *gorm.DB
	userService UserServicer
}

// NewFamilyService creates a new FamilyServicer.
func NewFamilyService(db *gorm.DB, userService UserServicer) FamilyServicer {
	return &familyService{db: db, userService: userService}
}

// generateFamilyCode produces a random join code, retrying on the rare
// collision with an existing family.
func (s *familyService) generateFamilyCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		var sb strings.Builder
		for i := 0; i < familyCodeLength; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(familyCodeAlphabet))))
			if err != nil {
				return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			sb.WriteByte(familyCodeAlphabet[n.Int64()])
		}
		code := sb.String()

		var count int64
		if err := s.db.Model(&models.Family{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", apperrors.WithMessage(apperrors.ErrInternalServer, "could not generate a unique family code")
}

// CreateFamily creates a family with the creator as its manager and first
// member, and opens its point balance at zero.
func (s *familyService) CreateFamily(name, creatorID string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "family name must be at least 2 characters long")
	}

	creator, err := s.userService.GetUserByID(creatorID)
	if err != nil {
		return nil, err
	}
	if creator.FamilyID != nil {
		return nil, apperrors.ErrAlreadyInFamily
	}

	code, err := s.generateFamilyCode()
	if err != nil {
		return nil, err
	}

	family := &models.Family{
		Name:      name,
		Code:      code,
		CreatorID: creatorID,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(family).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", creatorID).Update("family_id", family.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		points := &models.FamilyPoints{FamilyID: family.ID}
		if err := tx.Create(points).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}

// GetFamilyByID retrieves a family by its ID.
func (s *familyService) GetFamilyByID(id string) (*models.Family, error) {
	var family models.Family
	if err := s.db.Where("id = ?", id).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &family, nil
}

// GetUserFamily returns the family the user belongs to.
func (s *familyService) GetUserFamily(userID string) (*models.Family, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID == nil {
		return nil, apperrors.ErrNoFamily
	}
	return s.GetFamilyByID(*user.FamilyID)
}

// GetFamilyMembers lists the adult members of the user's family.
func (s *familyService) GetFamilyMembers(userID string) ([]models.User, error) {
	family, err := s.GetUserFamily(userID)
	if err != nil {
		return nil, err
	}
	var members []models.User
	if err := s.db.Where("family_id = ?", family.ID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return members, nil
}

// RequestToJoin files a join request against the family with the given
// code. The request stays pending until the family manager decides.
func (s *familyService) RequestToJoin(familyCode, userID string) (*models.JoinRequest, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID != nil {
		return nil, apperrors.ErrAlreadyInFamily
	}

	code := strings.ToUpper(strings.TrimSpace(familyCode))
	var family models.Family
	if err := s.db.Where("code = ?", code).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := s.db.Model(&models.JoinRequest{}).
		Where("user_id = ? AND family_id = ? AND status = ?", userID, family.ID, models.JoinRequestPending).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrJoinRequestPending
	}

	request := &models.JoinRequest{
		UserID:   userID,
		FamilyID: family.ID,
		Status:   models.JoinRequestPending,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return request, nil
}

// requireManagedFamily loads the manager's family, failing unless they
// manage it.
func (s *familyService) requireManagedFamily(managerID string) (*models.Family, error) {
	family, err := s.GetUserFamily(managerID)
	if err != nil {
		return nil, err
	}
	if !family.IsManager(managerID) {
		return nil, apperrors.ErrNotFamilyManager
	}
	return family, nil
}

// PendingJoinRequests lists the open join requests for the manager's family.
func (s *familyService) PendingJoinRequests(managerID string) ([]models.JoinRequest, error) {
	family, err := s.requireManagedFamily(managerID)
	if err != nil {
		return nil, err
	}
	var requests []models.JoinRequest
	if err := s.db.Preload("User").
		Where("family_id = ? AND status = ?", family.ID, models.JoinRequestPending).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return requests, nil
}

// loadPendingRequest fetches a join request for the manager's family,
// failing when it is already decided.
func (s *familyService) loadPendingRequest(family *models.Family, requestID string) (*models.JoinRequest, error) {
	var request models.JoinRequest
	if err := s.db.Where("id = ? AND family_id = ?", requestID, family.ID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrJoinRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if request.Status != models.JoinRequestPending {
		return nil, apperrors.ErrJoinRequestNotFound
	}
	return &request, nil
}

// ApproveJoinRequest admits the requesting user into the family. A user
// who joined another family in the meantime is rejected instead.
func (s *familyService) ApproveJoinRequest(managerID, requestID string) error {
	family, err := s.requireManagedFamily(managerID)
	if err != nil {
		return err
	}
	request, err := s.loadPendingRequest(family, requestID)
	if err != nil {
		return err
	}

	requester, err := s.userService.GetUserByID(request.UserID)
	if err != nil {
		return err
	}
	if requester.FamilyID != nil {
		if err := s.db.Model(request).Update("status", models.JoinRequestRejected).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return apperrors.ErrAlreadyInFamily
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", request.UserID).Update("family_id", family.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(request).Update("status", models.JoinRequestApproved).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// RejectJoinRequest turns down a pending join request.
func (s *familyService) RejectJoinRequest(managerID, requestID string) error {
	family, err := s.requireManagedFamily(managerID)
	if err != nil {
		return err
	}
	request, err := s.loadPendingRequest(family, requestID)
	if err != nil {
		return err
	}
	if err := s.db.Model(request).Update("status", models.JoinRequestRejected).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
