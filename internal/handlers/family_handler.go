package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/services"
)

// FamilyHandler handles family and membership requests
type FamilyHandler struct {
	familyService services.FamilyServicer
	auditService  services.AuditServicer
}

// NewFamilyHandler creates a new FamilyHandler
func NewFamilyHandler(familyService services.FamilyServicer, auditService services.AuditServicer) *FamilyHandler {
	return &FamilyHandler{familyService: familyService, auditService: auditService}
}

// CreateFamilyRequest represents the family creation payload
type CreateFamilyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=120"`
}

// JoinFamilyRequest represents the join request payload
type JoinFamilyRequest struct {
	Code string `json:"code" binding:"required,family_code"`
}

// CreateFamily creates a family with the caller as manager
// @Summary     Create a family
// @Description Create a new family; the creator becomes its manager
// @Tags        family
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateFamilyRequest true "Family data"
// @Success     201 {object} models.Family "Family created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Already in a family"
// @Router      /families [post]
func (h *FamilyHandler) CreateFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	family, err := h.familyService.CreateFamily(req.Name, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, family)
}

// GetFamily returns the caller's family
// @Summary     Get current family
// @Description Get the authenticated user's family
// @Tags        family
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Family "Family"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /families/mine [get]
func (h *FamilyHandler) GetFamily(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	family, err := h.familyService.GetUserFamily(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, family)
}

// GetMembers lists the adults in the caller's family
// @Summary     List family members
// @Tags        family
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.User "Members"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /families/mine/members [get]
func (h *FamilyHandler) GetMembers(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	members, err := h.familyService.GetFamilyMembers(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// RequestToJoin files a join request by family code
// @Summary     Request to join a family
// @Description File a join request using the family's invite code
// @Tags        family
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body JoinFamilyRequest true "Family code"
// @Success     201 {object} models.JoinRequest "Request filed"
// @Failure     404 {object} ErrorResponse "Unknown family code"
// @Failure     409 {object} ErrorResponse "Already in a family or request pending"
// @Router      /families/join [post]
func (h *FamilyHandler) RequestToJoin(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req JoinFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	request, err := h.familyService.RequestToJoin(req.Code, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListJoinRequests lists pending join requests for the manager's family
// @Summary     List pending join requests
// @Tags        family
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.JoinRequest "Pending requests"
// @Failure     403 {object} ErrorResponse "Not the family manager"
// @Router      /families/mine/join-requests [get]
func (h *FamilyHandler) ListJoinRequests(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	requests, err := h.familyService.PendingJoinRequests(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"join_requests": requests})
}

// ApproveJoinRequest admits the requester into the family
// @Summary     Approve a join request
// @Tags        family
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Join request ID"
// @Success     200 {object} map[string]string "Approved"
// @Failure     403 {object} ErrorResponse "Not the family manager"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Router      /families/mine/join-requests/{id}/approve [post]
func (h *FamilyHandler) ApproveJoinRequest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.familyService.ApproveJoinRequest(userID, requestID); err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "join_request.approve", "join_request", requestID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Join request approved"})
}

// RejectJoinRequest turns down a join request
// @Summary     Reject a join request
// @Tags        family
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Join request ID"
// @Success     200 {object} map[string]string "Rejected"
// @Failure     403 {object} ErrorResponse "Not the family manager"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Router      /families/mine/join-requests/{id}/reject [post]
func (h *FamilyHandler) RejectJoinRequest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.familyService.RejectJoinRequest(userID, requestID); err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "join_request.reject", "join_request", requestID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Join request rejected"})
}
