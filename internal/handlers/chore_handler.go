package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/pagination"
	"chorebank/internal/services"
)

// ChoreHandler handles chore management and lifecycle requests
type ChoreHandler struct {
	choreService services.ChoreServicer
}

// NewChoreHandler creates a new ChoreHandler
func NewChoreHandler(choreService services.ChoreServicer) *ChoreHandler {
	return &ChoreHandler{choreService: choreService}
}

// CreateChoreRequest represents the chore creation payload
type CreateChoreRequest struct {
	Name            string  `json:"name" binding:"required,min=2,max=200"`
	Description     string  `json:"description" binding:"max=2000"`
	CoinAmount      int64   `json:"coin_amount" binding:"min=0"`
	PointAmount     int64   `json:"point_amount" binding:"min=0"`
	Priority        string  `json:"priority" binding:"omitempty,chore_priority"`
	DueDate         string  `json:"due_date" binding:"omitempty"`
	Notes           string  `json:"notes" binding:"max=2000"`
	IsRecurring     bool    `json:"is_recurring"`
	RecurringDays   []int   `json:"recurring_days" binding:"omitempty,weekday_set"`
	AssignedChildID *string `json:"assigned_child_id"`
	AssignedUserID  *string `json:"assigned_user_id"`
}

// UpdateChoreRequest represents the chore update payload
type UpdateChoreRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=2,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	CoinAmount    *int64  `json:"coin_amount" binding:"omitempty,min=0"`
	PointAmount   *int64  `json:"point_amount" binding:"omitempty,min=0"`
	Priority      *string `json:"priority" binding:"omitempty,chore_priority"`
	DueDate       *string `json:"due_date"`
	Notes         *string `json:"notes" binding:"omitempty,max=2000"`
	IsRecurring   *bool   `json:"is_recurring"`
	RecurringDays []int   `json:"recurring_days" binding:"omitempty,weekday_set"`
}

// AssignChoreRequest represents the chore assignment payload
type AssignChoreRequest struct {
	ChildID *string `json:"child_id"`
	UserID  *string `json:"user_id"`
}

// SubmitChoreRequest represents the chore submission payload
type SubmitChoreRequest struct {
	ChildID string `json:"child_id" binding:"required"`
}

// CompleteChoreRequest represents the direct completion payload. When
// ChildID is set the chore is completed on that child's behalf.
type CompleteChoreRequest struct {
	ChildID *string `json:"child_id"`
}

// listChoresQuery represents the chore list filter parameters
type listChoresQuery struct {
	pagination.PageRequest
	Status  *string `form:"status" binding:"omitempty,chore_status"`
	ChildID *string `form:"child_id"`
}

// CreateChore creates a chore
// @Summary     Create a chore
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateChoreRequest true "Chore data"
// @Success     201 {object} models.Chore "Chore created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /chores [post]
func (h *ChoreHandler) CreateChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	dueDate, err := parseFlexibleTime(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chore, err := h.choreService.CreateChore(userID, services.ChoreCreateFields{
		Name:            req.Name,
		Description:     req.Description,
		CoinAmount:      req.CoinAmount,
		PointAmount:     req.PointAmount,
		Priority:        models.ChorePriority(req.Priority),
		DueDate:         dueDate,
		Notes:           req.Notes,
		IsRecurring:     req.IsRecurring,
		RecurringDays:   req.RecurringDays,
		AssignedChildID: req.AssignedChildID,
		AssignedUserID:  req.AssignedUserID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chore)
}

// ListChores lists the family's chores
// @Summary     List chores
// @Description List the family's chores, newest first. Archived chores are
// @Description hidden unless requested by status filter.
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       status query string false "Filter by status"
// @Param       child_id query string false "Filter by assigned child"
// @Success     200 {object} pagination.PageResponse[models.Chore] "Chores"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /chores [get]
func (h *ChoreHandler) ListChores(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var query listChoresQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.ChoreFilter{ChildID: query.ChildID}
	if query.Status != nil {
		status := models.ChoreStatus(*query.Status)
		filter.Status = &status
	}

	resp, err := h.choreService.GetFamilyChores(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetChore returns one chore
// @Summary     Get a chore
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Success     200 {object} models.Chore "Chore"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Router      /chores/{id} [get]
func (h *ChoreHandler) GetChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	chore, err := h.choreService.GetChoreByID(userID, choreID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chore)
}

// UpdateChore edits a chore's definition
// @Summary     Update a chore
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Param       request body UpdateChoreRequest true "Fields to update"
// @Success     200 {object} models.Chore "Updated chore"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore already completed or archived"
// @Router      /chores/{id} [put]
func (h *ChoreHandler) UpdateChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.ChoreUpdateFields{
		Name:          req.Name,
		Description:   req.Description,
		CoinAmount:    req.CoinAmount,
		PointAmount:   req.PointAmount,
		Notes:         req.Notes,
		IsRecurring:   req.IsRecurring,
		RecurringDays: req.RecurringDays,
	}
	if req.Priority != nil {
		priority := models.ChorePriority(*req.Priority)
		fields.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.DueDate = dueDate
	}

	chore, err := h.choreService.UpdateChore(userID, choreID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chore)
}

// AssignChore assigns a chore to a child or an adult
// @Summary     Assign a chore
// @Description Assign a pending chore to a child or an adult, or clear the
// @Description assignment when neither is given
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Param       request body AssignChoreRequest true "Assignee"
// @Success     200 {object} models.Chore "Updated chore"
// @Failure     404 {object} ErrorResponse "Chore or assignee not found"
// @Failure     409 {object} ErrorResponse "Chore is not pending"
// @Router      /chores/{id}/assign [post]
func (h *ChoreHandler) AssignChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req AssignChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if req.ChildID != nil && req.UserID != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "assign to a child or an adult, not both"))
		return
	}

	var chore *models.Chore
	switch {
	case req.ChildID != nil:
		chore, err = h.choreService.AssignToChild(userID, choreID, *req.ChildID)
	case req.UserID != nil:
		chore, err = h.choreService.AssignToUser(userID, choreID, *req.UserID)
	default:
		chore, err = h.choreService.Unassign(userID, choreID)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chore)
}

// SubmitChore marks a chore done by a child, pending approval
// @Summary     Submit a chore
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Param       request body SubmitChoreRequest true "Submitting child"
// @Success     200 {object} models.Chore "Submitted chore"
// @Failure     403 {object} ErrorResponse "Child is not the assignee"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore is not pending"
// @Router      /chores/{id}/submit [post]
func (h *ChoreHandler) SubmitChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req SubmitChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	chore, err := h.choreService.SubmitChore(userID, choreID, req.ChildID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chore)
}

// ApproveChore approves a submitted chore and pays its rewards
// @Summary     Approve a submitted chore
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Success     200 {object} services.ChoreSettlement "Settlement"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore is not awaiting approval"
// @Router      /chores/{id}/approve [post]
func (h *ChoreHandler) ApproveChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	settlement, err := h.choreService.ApproveChore(userID, choreID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// RejectChore sends a submitted chore back to pending
// @Summary     Reject a submitted chore
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Success     200 {object} models.Chore "Chore back to pending"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore is not awaiting approval"
// @Router      /chores/{id}/reject [post]
func (h *ChoreHandler) RejectChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	chore, err := h.choreService.RejectChore(userID, choreID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chore)
}

// CompleteChore completes a pending chore directly
// @Summary     Complete a chore
// @Description Complete a pending chore without the submit and approve round
// @Description trip, optionally on a child's behalf
// @Tags        chores
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Param       request body CompleteChoreRequest false "Completer"
// @Success     200 {object} services.ChoreSettlement "Settlement"
// @Failure     403 {object} ErrorResponse "Completer is not the assignee"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore already completed or archived"
// @Router      /chores/{id}/complete [post]
func (h *ChoreHandler) CompleteChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CompleteChoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	completer := models.UserActor(userID)
	if req.ChildID != nil {
		completer = models.ChildActor(*req.ChildID)
	}

	settlement, err := h.choreService.CompleteChore(userID, choreID, completer)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// ArchiveChore retires a chore
// @Summary     Archive a chore
// @Description Retire a pending or submitted chore; creator or manager only
// @Tags        chores
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Chore ID"
// @Success     200 {object} map[string]string "Archived"
// @Failure     403 {object} ErrorResponse "Not the creator or family manager"
// @Failure     404 {object} ErrorResponse "Chore not found"
// @Failure     409 {object} ErrorResponse "Chore already completed or archived"
// @Router      /chores/{id}/archive [post]
func (h *ChoreHandler) ArchiveChore(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	choreID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.choreService.ArchiveChore(userID, choreID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chore archived"})
}
