package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/models"
	"chorebank/internal/services"
)

// LedgerHandler handles balance reads, transaction history, and manager
// balance mutations
type LedgerHandler struct {
	userService  services.UserServicer
	childService services.ChildServicer
	pointsLedger services.PointsLedgerServicer
	coinLedger   services.CoinLedgerServicer
	settlement   services.SettlementServicer
	auditService services.AuditServicer
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(
	userService services.UserServicer,
	childService services.ChildServicer,
	pointsLedger services.PointsLedgerServicer,
	coinLedger services.CoinLedgerServicer,
	settlement services.SettlementServicer,
	auditService services.AuditServicer,
) *LedgerHandler {
	return &LedgerHandler{
		userService:  userService,
		childService: childService,
		pointsLedger: pointsLedger,
		coinLedger:   coinLedger,
		settlement:   settlement,
		auditService: auditService,
	}
}

// AdjustPointsRequest represents the manual adjustment payload. Amount is
// signed; negative values debit the pool.
type AdjustPointsRequest struct {
	Amount      int64  `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

// SetPointsRequest represents the balance overwrite payload
type SetPointsRequest struct {
	TotalPoints *int64 `json:"total_points" binding:"required,min=0"`
}

// historyQuery represents transaction history filter parameters
type historyQuery struct {
	Limit int     `form:"limit" binding:"omitempty,min=1"`
	Type  *string `form:"type" binding:"omitempty,transaction_type"`
}

func (q *historyQuery) txType() *models.TransactionType {
	if q.Type == nil {
		return nil
	}
	t := models.TransactionType(*q.Type)
	return &t
}

func (h *LedgerHandler) callerFamilyID(c *gin.Context) (string, error) {
	userID, err := getUserID(c)
	if err != nil {
		return "", err
	}
	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.FamilyID == nil {
		return "", apperrors.ErrNoFamily
	}
	return *user.FamilyID, nil
}

// GetPointsBalance returns the family point balance
// @Summary     Get family point balance
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Balance"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /ledger/points [get]
func (h *LedgerHandler) GetPointsBalance(c *gin.Context) {
	familyID, err := h.callerFamilyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	balance, err := h.pointsLedger.Balance(familyID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_points": balance})
}

// GetPointsTransactions returns the family point transaction history
// @Summary     List point transactions
// @Description List the family's point transactions, newest first
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Max rows (default 50, cap 200)"
// @Param       type query string false "Filter by transaction type"
// @Success     200 {array} models.PointsTransaction "Transactions"
// @Failure     404 {object} ErrorResponse "User has no family"
// @Router      /ledger/transactions [get]
func (h *LedgerHandler) GetPointsTransactions(c *gin.Context) {
	familyID, err := h.callerFamilyID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var query historyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	txns, err := h.pointsLedger.Transactions(familyID, query.Limit, query.txType())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// GetCoinBalance returns a child's coin balance
// @Summary     Get a child's coin balance
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       childID path string true "Child ID"
// @Success     200 {object} map[string]int64 "Balance"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /ledger/coins/{childID} [get]
func (h *LedgerHandler) GetCoinBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "childID")
	if err != nil {
		respondWithError(c, err)
		return
	}
	// Family scoping happens inside the child lookup.
	child, err := h.childService.GetChildByID(userID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	balance, err := h.coinLedger.Balance(child.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": balance})
}

// GetCoinTransactions returns a child's coin transaction history
// @Summary     List a child's coin transactions
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       childID path string true "Child ID"
// @Param       limit query int false "Max rows (default 50, cap 200)"
// @Param       type query string false "Filter by transaction type"
// @Success     200 {array} models.CoinTransaction "Transactions"
// @Failure     404 {object} ErrorResponse "Child not found"
// @Router      /ledger/coins/{childID}/transactions [get]
func (h *LedgerHandler) GetCoinTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	childID, err := pathID(c, "childID")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var query historyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	child, err := h.childService.GetChildByID(userID, childID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	txns, err := h.coinLedger.Transactions(child.ID, query.Limit, query.txType())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txns})
}

// AdjustPoints credits or debits the family pool
// @Summary     Manually adjust family points
// @Description Apply a signed manual adjustment to the family pool; manager only
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AdjustPointsRequest true "Signed amount"
// @Success     200 {object} models.PointsTransaction "Adjustment transaction"
// @Failure     400 {object} ErrorResponse "Zero amount or insufficient points"
// @Failure     403 {object} ErrorResponse "Not the family manager"
// @Router      /ledger/adjust [post]
func (h *LedgerHandler) AdjustPoints(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := h.settlement.SettleManualAdjustment(userID, req.Amount, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}
	h.auditService.Log(userID, "points.adjust", "points_transaction", txn.ID, c.ClientIP(), map[string]interface{}{
		"amount": strconv.FormatInt(req.Amount, 10),
	})
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// SetPoints overwrites the family point balance
// @Summary     Set the family point balance
// @Description Overwrite the family balance; a compensating adjustment keeps
// @Description the transaction history summing to the balance; manager only
// @Tags        ledger
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SetPointsRequest true "New total"
// @Success     200 {object} models.PointsTransaction "Compensating transaction"
// @Failure     400 {object} ErrorResponse "Negative total"
// @Failure     403 {object} ErrorResponse "Not the family manager"
// @Router      /ledger/points [put]
func (h *LedgerHandler) SetPoints(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req SetPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	txn, err := h.settlement.SetFamilyPoints(userID, *req.TotalPoints)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resourceID := ""
	if txn != nil {
		resourceID = txn.ID
	}
	h.auditService.Log(userID, "points.set", "points_transaction", resourceID, c.ClientIP(), map[string]interface{}{
		"total_points": strconv.FormatInt(*req.TotalPoints, 10),
	})
	c.JSON(http.StatusOK, gin.H{"transaction": txn, "total_points": *req.TotalPoints})
}
