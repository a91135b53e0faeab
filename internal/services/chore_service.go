package services

import (
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/pagination"
)

// choreService manages chores and their lifecycle. Transitions that pay out
// rewards are delegated to the settlement engine.
type choreService struct {
	db          *gorm.DB
	userService UserServicer
	settlement  SettlementServicer
}

// NewChoreService creates a new ChoreServicer.
func NewChoreService(db *gorm.DB, userService UserServicer, settlement SettlementServicer) ChoreServicer {
	return &choreService{db: db, userService: userService, settlement: settlement}
}

func (s *choreService) requireFamily(userID string) (string, error) {
	user, err := s.userService.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.FamilyID == nil {
		return "", apperrors.ErrNoFamily
	}
	return *user.FamilyID, nil
}

// loadChore fetches a chore and checks it belongs to the user's family.
func (s *choreService) loadChore(userID, choreID string) (*models.Chore, string, error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, "", err
	}
	var chore models.Chore
	if err := s.db.Where("id = ?", choreID).First(&chore).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperrors.ErrChoreNotFound
		}
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if chore.FamilyID != familyID {
		return nil, "", apperrors.ErrWrongFamily
	}
	return &chore, familyID, nil
}

func validPriority(p models.ChorePriority) bool {
	switch p {
	case models.ChorePriorityLow, models.ChorePriorityMedium, models.ChorePriorityHigh:
		return true
	}
	return false
}

func validRecurringDays(days []int) bool {
	for _, d := range days {
		if d < 0 || d > 6 {
			return false
		}
	}
	return true
}

// verifyChildInFamily checks the child exists and belongs to the family.
func (s *choreService) verifyChildInFamily(childID, familyID string) error {
	var child models.Child
	if err := s.db.Where("id = ?", childID).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrChildNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if child.FamilyID != familyID {
		return apperrors.ErrWrongFamily
	}
	return nil
}

// verifyUserInFamily checks the assignee exists and belongs to the family.
func (s *choreService) verifyUserInFamily(assigneeID, familyID string) error {
	assignee, err := s.userService.GetUserByID(assigneeID)
	if err != nil {
		return err
	}
	if !assignee.InFamily(familyID) {
		return apperrors.ErrWrongFamily
	}
	return nil
}

// CreateChore creates a chore in the user's family, optionally assigned.
func (s *choreService) CreateChore(userID string, fields ChoreCreateFields) (*models.Chore, error) {
	name := strings.TrimSpace(fields.Name)
	if len(name) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be at least 2 characters long")
	}
	if fields.CoinAmount < 0 || fields.PointAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reward amounts cannot be negative")
	}
	if fields.CoinAmount == 0 && fields.PointAmount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "chore must reward coins, points, or both")
	}
	priority := fields.Priority
	if priority == "" {
		priority = models.ChorePriorityMedium
	}
	if !validPriority(priority) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium, or high")
	}
	if fields.AssignedChildID != nil && fields.AssignedUserID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "chore cannot be assigned to both a child and an adult")
	}
	if fields.IsRecurring && !validRecurringDays(fields.RecurringDays) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring days must be weekday indices 0 through 6")
	}

	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}
	if fields.AssignedChildID != nil {
		if err := s.verifyChildInFamily(*fields.AssignedChildID, familyID); err != nil {
			return nil, err
		}
	}
	if fields.AssignedUserID != nil {
		if err := s.verifyUserInFamily(*fields.AssignedUserID, familyID); err != nil {
			return nil, err
		}
	}

	chore := &models.Chore{
		Name:            name,
		Description:     fields.Description,
		CoinAmount:      fields.CoinAmount,
		PointAmount:     fields.PointAmount,
		FamilyID:        familyID,
		CreatedBy:       userID,
		AssignedChildID: fields.AssignedChildID,
		AssignedUserID:  fields.AssignedUserID,
		Status:          models.ChoreStatusPending,
		Priority:        priority,
		DueDate:         fields.DueDate,
		Notes:           fields.Notes,
		IsRecurring:     fields.IsRecurring,
	}
	if fields.IsRecurring {
		chore.RecurringDays = datatypes.NewJSONSlice(fields.RecurringDays)
	}
	if err := s.db.Create(chore).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// UpdateChore edits a chore's definition. Completed and archived chores
// cannot be edited.
func (s *choreService) UpdateChore(userID, choreID string, fields ChoreUpdateFields) (*models.Chore, error) {
	chore, _, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status == models.ChoreStatusCompleted {
		return nil, apperrors.ErrChoreCompleted
	}
	if chore.Status == models.ChoreStatusArchived {
		return nil, apperrors.ErrChoreArchived
	}

	updates := map[string]interface{}{}
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
	if fields.CoinAmount != nil {
		if *fields.CoinAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reward amounts cannot be negative")
		}
		updates["coin_amount"] = *fields.CoinAmount
	}
	if fields.PointAmount != nil {
		if *fields.PointAmount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reward amounts cannot be negative")
		}
		updates["point_amount"] = *fields.PointAmount
	}
	if fields.Priority != nil {
		if !validPriority(*fields.Priority) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium, or high")
		}
		updates["priority"] = *fields.Priority
	}
	if fields.DueDate != nil {
		updates["due_date"] = *fields.DueDate
	}
	if fields.Notes != nil {
		updates["notes"] = *fields.Notes
	}
	if fields.IsRecurring != nil {
		updates["is_recurring"] = *fields.IsRecurring
	}
	if fields.RecurringDays != nil {
		if !validRecurringDays(fields.RecurringDays) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recurring days must be weekday indices 0 through 6")
		}
		updates["recurring_days"] = datatypes.NewJSONSlice(fields.RecurringDays)
	}
	if len(updates) == 0 {
		return chore, nil
	}

	if err := s.db.Model(chore).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// GetChoreByID returns a chore in the user's family.
func (s *choreService) GetChoreByID(userID, choreID string) (*models.Chore, error) {
	chore, _, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	return chore, nil
}

// GetFamilyChores lists the family's chores, newest first, optionally
// filtered by status or assigned child.
func (s *choreService) GetFamilyChores(userID string, page pagination.PageRequest, filter ChoreFilter) (*pagination.PageResponse[models.Chore], error) {
	familyID, err := s.requireFamily(userID)
	if err != nil {
		return nil, err
	}

	page.Defaults()
	query := s.db.Model(&models.Chore{}).Where("family_id = ?", familyID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else {
		query = query.Where("status <> ?", models.ChoreStatusArchived)
	}
	if filter.ChildID != nil {
		query = query.Where("assigned_child_id = ?", *filter.ChildID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var chores []models.Chore
	if err := query.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&chores).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(chores, page.Page, page.PageSize, total)
	return &resp, nil
}

// AssignToChild assigns a pending chore to a child in the family.
func (s *choreService) AssignToChild(userID, choreID, childID string) (*models.Chore, error) {
	chore, familyID, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status != models.ChoreStatusPending {
		return nil, apperrors.ErrChoreNotPending
	}
	if err := s.verifyChildInFamily(childID, familyID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"assigned_child_id": childID,
		"assigned_user_id":  nil,
	}
	if err := s.db.Model(chore).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// AssignToUser assigns a pending chore to an adult in the family.
func (s *choreService) AssignToUser(userID, choreID, assigneeID string) (*models.Chore, error) {
	chore, familyID, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status != models.ChoreStatusPending {
		return nil, apperrors.ErrChoreNotPending
	}
	if err := s.verifyUserInFamily(assigneeID, familyID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"assigned_child_id": nil,
		"assigned_user_id":  assigneeID,
	}
	if err := s.db.Model(chore).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// Unassign clears a pending chore's assignment, opening it to the family.
func (s *choreService) Unassign(userID, choreID string) (*models.Chore, error) {
	chore, _, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status != models.ChoreStatusPending {
		return nil, apperrors.ErrChoreNotPending
	}

	updates := map[string]interface{}{
		"assigned_child_id": nil,
		"assigned_user_id":  nil,
	}
	if err := s.db.Model(chore).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chore, nil
}

// SubmitChore marks a pending chore as done by a child, awaiting adult
// approval. Unlike direct completion, submission is only open to the exact
// child the chore is assigned to; an unassigned chore cannot be submitted.
func (s *choreService) SubmitChore(userID, choreID, childID string) (*models.Chore, error) {
	chore, familyID, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	switch chore.Status {
	case models.ChoreStatusCompleted:
		return nil, apperrors.ErrChoreCompleted
	case models.ChoreStatusArchived:
		return nil, apperrors.ErrChoreArchived
	case models.ChoreStatusSubmitted:
		return nil, apperrors.ErrChoreNotPending
	}
	if err := s.verifyChildInFamily(childID, familyID); err != nil {
		return nil, err
	}
	if chore.AssignedChildID == nil || *chore.AssignedChildID != childID {
		return nil, apperrors.ErrNotAssignee
	}

	updates := map[string]interface{}{
		"status":                models.ChoreStatusSubmitted,
		"submitted_by_child_id": childID,
	}
	res := s.db.Model(&models.Chore{}).
		Where("id = ? AND status = ?", chore.ID, models.ChoreStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrChoreNotPending
	}
	chore.Status = models.ChoreStatusSubmitted
	chore.SubmittedByChildID = &childID
	return chore, nil
}

// ApproveChore settles a submitted chore: the coin reward goes to the
// submitting child, the point reward to the family pool.
func (s *choreService) ApproveChore(userID, choreID string) (*ChoreSettlement, error) {
	chore, _, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status != models.ChoreStatusSubmitted {
		return nil, apperrors.ErrChoreNotSubmitted
	}
	if chore.SubmittedByChildID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInternalServer, "submitted chore has no submitter")
	}
	return s.settlement.SettleChoreCompletion(choreID, models.ChildActor(*chore.SubmittedByChildID), &userID)
}

// RejectChore sends a submitted chore back to pending.
func (s *choreService) RejectChore(userID, choreID string) (*models.Chore, error) {
	chore, _, err := s.loadChore(userID, choreID)
	if err != nil {
		return nil, err
	}
	if chore.Status != models.ChoreStatusSubmitted {
		return nil, apperrors.ErrChoreNotSubmitted
	}

	updates := map[string]interface{}{
		"status":                models.ChoreStatusPending,
		"submitted_by_child_id": nil,
	}
	res := s.db.Model(&models.Chore{}).
		Where("id = ? AND status = ?", chore.ID, models.ChoreStatusSubmitted).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrChoreNotSubmitted
	}
	chore.Status = models.ChoreStatusPending
	chore.SubmittedByChildID = nil
	return chore, nil
}

// CompleteChore settles a pending chore directly, skipping the submit and
// approve round trip. The completer may be the adult themselves or a child
// they complete on behalf of.
func (s *choreService) CompleteChore(userID, choreID string, completer models.Actor) (*ChoreSettlement, error) {
	if _, _, err := s.loadChore(userID, choreID); err != nil {
		return nil, err
	}
	if completer.UserID == nil && completer.ChildID == nil {
		completer = models.UserActor(userID)
	}
	return s.settlement.SettleChoreCompletion(choreID, completer, nil)
}

// ArchiveChore retires a pending or submitted chore. Only the chore's
// creator or the family manager may archive, and completed chores never
// can be: their reward history must stay explainable.
func (s *choreService) ArchiveChore(userID, choreID string) error {
	chore, familyID, err := s.loadChore(userID, choreID)
	if err != nil {
		return err
	}
	switch chore.Status {
	case models.ChoreStatusCompleted:
		return apperrors.ErrChoreCompleted
	case models.ChoreStatusArchived:
		return apperrors.ErrChoreArchived
	}

	if chore.CreatedBy != userID {
		var family models.Family
		if err := s.db.Where("id = ?", familyID).First(&family).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !family.IsManager(userID) {
			return apperrors.ErrForbidden
		}
	}

	res := s.db.Model(&models.Chore{}).
		Where("id = ? AND status IN ?", chore.ID, []models.ChoreStatus{models.ChoreStatusPending, models.ChoreStatusSubmitted}).
		Update("status", models.ChoreStatusArchived)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrChoreCompleted
	}
	return nil
}
