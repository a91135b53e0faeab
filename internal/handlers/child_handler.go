package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/services"
)

// ChildHandler handles child profile requests
type ChildHandler struct {
	childService services.ChildServicer
	coinLedger   services.CoinLedgerServicer
}

// NewChildHandler creates a new ChildHandler
func NewChildHandler(childService services.ChildServicer, coinLedger services.CoinLedgerServicer) *ChildHandler {
	return &ChildHandler{childService: childService, coinLedger: coinLedger}
}

// CreateChildRequest represents the child creation payload
type CreateChildRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=120"`
	Birthdate string `json:"birthdate" binding:"omitempty"`
	Age       *int   `json:"age" binding:"omitempty,min=0,max=25"`
	PIN       string `json:"pin" binding:"omitempty,pin"`
}

// UpdateChildRequest represents the child update payload
type UpdateChildRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=120"`
	Birthdate *string `json:"birthdate"`
	Age       *int    `json:"age" binding:"omitempty,min=0,max=25"`
	PIN       *string `json:"pin" binding:"omitempty"`
}

// VerifyPINRequest represents the kids view PIN check payload
type VerifyPINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// childView decorates a child with its derived age and coin balance.
func (h *ChildHandler) childView(child *models.Child) gin.H {
	balance, err := h.coinLedger.Balance(child.ID)
	if err != nil {
		balance = 0
	}
	return gin.H{
		"child":        child,
		"age":          child.CurrentAge(time.Now()),
		"coin_balance": balance,
	}
}

// CreateChild adds a child to the caller's family
// @Summary     Add a child
// @Tags        children
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateChildRequest true "Child data"
// @Success     201 {object} models.Child "Child created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /children [post]
func (h *ChildHandler) CreateChild(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	birthdate, err := parseFlexibleTime(req.Birthdate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	child, err := h.childService.AddChild(userID, services.ChildCreateFields{
		Name:      req.Name,
		Birthdate: birthdate,
		Age:       req.Age,
		PIN:       req.PIN,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, child)
}

// ListChildren lists the children of the caller's family
// @Summary     List children
// @Tags        children
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Child "Children"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /children [get]
func (h *ChildHandler) ListChildren(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	children, err := h.childService.GetFamilyChildren(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	views := make([]gin.H, 0, len(children))
	for i := range children {
		views = append(views, h.childView(&children[i]))
	}
	c.JSON(http.StatusOK, gin.H{"children": views})
}

// GetChild returns one child with their coin balance
// @Summary     Get a child
// @Tags        children
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Child ID"
// @Success     200 {object} models.Child "Child"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /children/{id} [get]
func (h *ChildHandler) GetChild(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	child, err := h.childService.GetChildByID(userID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.childView(child))
}

// UpdateChild updates a child profile
// @Summary     Update a child
// @Tags        children
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Child ID"
// @Param       request body UpdateChildRequest true "Fields to update"
// @Success     200 {object} models.Child "Updated child"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /children/{id} [put]
func (h *ChildHandler) UpdateChild(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.ChildUpdateFields{
		Name: req.Name,
		Age:  req.Age,
		PIN:  req.PIN,
	}
	if req.Birthdate != nil {
		birthdate, err := parseFlexibleTime(*req.Birthdate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Birthdate = birthdate
	}

	child, err := h.childService.UpdateChild(userID, childID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, child)
}

// DeleteChild removes a child profile
// @Summary     Remove a child
// @Tags        children
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Child ID"
// @Success     200 {object} map[string]string "Removed"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /children/{id} [delete]
func (h *ChildHandler) DeleteChild(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.childService.RemoveChild(userID, childID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Child removed"})
}

// VerifyPIN checks a child's kids view PIN
// @Summary     Verify a child's PIN
// @Description Check the PIN gating the kids view for a child
// @Tags        children
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Child ID"
// @Param       request body VerifyPINRequest true "PIN"
// @Success     200 {object} map[string]bool "Verification result"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /children/{id}/verify-pin [post]
func (h *ChildHandler) VerifyPIN(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req VerifyPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	child, err := h.childService.GetChildByID(userID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": h.childService.VerifyPIN(child, req.PIN)})
}
