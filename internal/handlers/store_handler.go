package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "chorebank/internal/errors"
	"chorebank/internal/services"
)

// StoreHandler handles reward catalog and purchase requests
type StoreHandler struct {
	catalog    services.CatalogServicer
	settlement services.SettlementServicer
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(catalog services.CatalogServicer, settlement services.SettlementServicer) *StoreHandler {
	return &StoreHandler{catalog: catalog, settlement: settlement}
}

// CreateRewardRequest represents the reward creation payload. A nil qty
// means infinite stock.
type CreateRewardRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Cost        int64  `json:"cost" binding:"required,min=1"`
	Qty         *int   `json:"qty" binding:"omitempty,min=1"`
}

// UpdateRewardRequest represents the reward update payload. Setting
// infinite to true clears the qty.
type UpdateRewardRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Cost        *int64  `json:"cost" binding:"omitempty,min=1"`
	Qty         *int    `json:"qty" binding:"omitempty,min=1"`
	Infinite    *bool   `json:"infinite"`
	IsAvailable *bool   `json:"is_available"`
}

// CreateConversionRequest represents the conversion item creation payload
type CreateConversionRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=200"`
	Description   string `json:"description" binding:"max=2000"`
	CoinsPerPoint int64  `json:"coins_per_point" binding:"required,min=1"`
}

// UpdateConversionRequest represents the conversion item update payload
type UpdateConversionRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=2,max=200"`
	Description   *string `json:"description" binding:"omitempty,max=2000"`
	CoinsPerPoint *int64  `json:"coins_per_point" binding:"omitempty,min=1"`
	IsAvailable   *bool   `json:"is_available"`
}

// PurchaseIndividualRequest represents the individual reward purchase payload
type PurchaseIndividualRequest struct {
	ChildID string `json:"child_id" binding:"required"`
}

// ConvertCoinsRequest represents the coin conversion payload
type ConvertCoinsRequest struct {
	ChildID string `json:"child_id" binding:"required"`
	Coins   int64  `json:"coins" binding:"required,min=1"`
}

func availableOnly(c *gin.Context) bool {
	return c.Query("available") == "true"
}

func rewardCreateFields(req CreateRewardRequest) services.RewardCreateFields {
	return services.RewardCreateFields{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		Qty:         req.Qty,
	}
}

func rewardUpdateFields(req UpdateRewardRequest) services.RewardUpdateFields {
	return services.RewardUpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Cost:        req.Cost,
		Qty:         req.Qty,
		Infinite:    req.Infinite,
		IsAvailable: req.IsAvailable,
	}
}

// CreateIndividualReward creates a coin-priced reward
// @Summary     Create an individual reward
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRewardRequest true "Reward data"
// @Success     201 {object} models.IndividualReward "Reward created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /store/rewards/individual [post]
func (h *StoreHandler) CreateIndividualReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	reward, err := h.catalog.CreateIndividualReward(userID, rewardCreateFields(req))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reward)
}

// ListIndividualRewards lists coin-priced rewards
// @Summary     List individual rewards
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       available query bool false "Only purchasable rewards"
// @Success     200 {array} models.IndividualReward "Rewards"
// @Router      /store/rewards/individual [get]
func (h *StoreHandler) ListIndividualRewards(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewards, err := h.catalog.ListIndividualRewards(userID, availableOnly(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// UpdateIndividualReward updates a coin-priced reward
// @Summary     Update an individual reward
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Param       request body UpdateRewardRequest true "Fields to update"
// @Success     200 {object} models.IndividualReward "Updated reward"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Router      /store/rewards/individual/{id} [put]
func (h *StoreHandler) UpdateIndividualReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	reward, err := h.catalog.UpdateIndividualReward(userID, rewardID, rewardUpdateFields(req))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// DeleteIndividualReward deletes a coin-priced reward, falling back to
// deactivation when purchase history references it
// @Summary     Delete an individual reward
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Success     200 {object} map[string]string "Deleted or deactivated"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Router      /store/rewards/individual/{id} [delete]
func (h *StoreHandler) DeleteIndividualReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	err = h.catalog.DeleteIndividualReward(userID, rewardID)
	if errors.Is(err, apperrors.ErrItemInUse) {
		if err := h.catalog.DeactivateIndividualReward(userID, rewardID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reward has purchase history and was deactivated instead"})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reward deleted"})
}

// PurchaseIndividualReward buys a reward with a child's coins
// @Summary     Purchase an individual reward
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Param       request body PurchaseIndividualRequest true "Purchasing child"
// @Success     200 {object} models.CoinTransaction "Purchase transaction"
// @Failure     402 {object} ErrorResponse "Insufficient coins"
// @Failure     404 {object} ErrorResponse "Reward or child not found"
// @Failure     409 {object} ErrorResponse "Reward unavailable"
// @Router      /store/rewards/individual/{id}/purchase [post]
func (h *StoreHandler) PurchaseIndividualReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req PurchaseIndividualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	txn, err := h.settlement.SettleIndividualRewardPurchase(rewardID, req.ChildID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// CreateFamilyReward creates a point-priced reward
// @Summary     Create a family reward
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRewardRequest true "Reward data"
// @Success     201 {object} models.FamilyReward "Reward created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /store/rewards/family [post]
func (h *StoreHandler) CreateFamilyReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	reward, err := h.catalog.CreateFamilyReward(userID, rewardCreateFields(req))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reward)
}

// ListFamilyRewards lists point-priced rewards
// @Summary     List family rewards
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       available query bool false "Only purchasable rewards"
// @Success     200 {array} models.FamilyReward "Rewards"
// @Router      /store/rewards/family [get]
func (h *StoreHandler) ListFamilyRewards(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewards, err := h.catalog.ListFamilyRewards(userID, availableOnly(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": rewards})
}

// UpdateFamilyReward updates a point-priced reward
// @Summary     Update a family reward
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Param       request body UpdateRewardRequest true "Fields to update"
// @Success     200 {object} models.FamilyReward "Updated reward"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Router      /store/rewards/family/{id} [put]
func (h *StoreHandler) UpdateFamilyReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	reward, err := h.catalog.UpdateFamilyReward(userID, rewardID, rewardUpdateFields(req))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reward)
}

// DeleteFamilyReward deletes a point-priced reward, falling back to
// deactivation when purchase history references it
// @Summary     Delete a family reward
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Success     200 {object} map[string]string "Deleted or deactivated"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Router      /store/rewards/family/{id} [delete]
func (h *StoreHandler) DeleteFamilyReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	err = h.catalog.DeleteFamilyReward(userID, rewardID)
	if errors.Is(err, apperrors.ErrItemInUse) {
		if err := h.catalog.DeactivateFamilyReward(userID, rewardID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reward has purchase history and was deactivated instead"})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reward deleted"})
}

// PurchaseFamilyReward buys a reward with family points
// @Summary     Purchase a family reward
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Reward ID"
// @Success     200 {object} models.PointsTransaction "Purchase transaction"
// @Failure     402 {object} ErrorResponse "Insufficient points"
// @Failure     404 {object} ErrorResponse "Reward not found"
// @Failure     409 {object} ErrorResponse "Reward unavailable"
// @Router      /store/rewards/family/{id}/purchase [post]
func (h *StoreHandler) PurchaseFamilyReward(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rewardID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	txn, err := h.settlement.SettleFamilyRewardPurchase(rewardID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// CreateConversionItem creates a coin-to-point conversion item
// @Summary     Create a conversion item
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateConversionRequest true "Conversion data"
// @Success     201 {object} models.ConversionItem "Item created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /store/conversions [post]
func (h *StoreHandler) CreateConversionItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req CreateConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	item, err := h.catalog.CreateConversionItem(userID, services.ConversionCreateFields{
		Name:          req.Name,
		Description:   req.Description,
		CoinsPerPoint: req.CoinsPerPoint,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListConversionItems lists conversion items
// @Summary     List conversion items
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       available query bool false "Only usable items"
// @Success     200 {array} models.ConversionItem "Items"
// @Router      /store/conversions [get]
func (h *StoreHandler) ListConversionItems(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	items, err := h.catalog.ListConversionItems(userID, availableOnly(c))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversions": items})
}

// UpdateConversionItem updates a conversion item
// @Summary     Update a conversion item
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Param       request body UpdateConversionRequest true "Fields to update"
// @Success     200 {object} models.ConversionItem "Updated item"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /store/conversions/{id} [put]
func (h *StoreHandler) UpdateConversionItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req UpdateConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	item, err := h.catalog.UpdateConversionItem(userID, itemID, services.ConversionUpdateFields{
		Name:          req.Name,
		Description:   req.Description,
		CoinsPerPoint: req.CoinsPerPoint,
		IsAvailable:   req.IsAvailable,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteConversionItem deletes a conversion item, falling back to
// deactivation when conversion history references it
// @Summary     Delete a conversion item
// @Tags        store
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Item ID"
// @Success     200 {object} map[string]string "Deleted or deactivated"
// @Failure     404 {object} ErrorResponse "Item not found"
// @Router      /store/conversions/{id} [delete]
func (h *StoreHandler) DeleteConversionItem(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	err = h.catalog.DeleteConversionItem(userID, itemID)
	if errors.Is(err, apperrors.ErrItemInUse) {
		if err := h.catalog.DeactivateConversionItem(userID, itemID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Conversion has history and was deactivated instead"})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversion deleted"})
}

// ConvertCoins exchanges a child's coins for family points
// @Summary     Convert coins to family points
// @Tags        store
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Conversion item ID"
// @Param       request body ConvertCoinsRequest true "Child and coin amount"
// @Success     200 {object} services.ConversionSettlement "Conversion result"
// @Failure     400 {object} ErrorResponse "Coins below the conversion minimum"
// @Failure     402 {object} ErrorResponse "Insufficient coins"
// @Failure     404 {object} ErrorResponse "Item or child not found"
// @Router      /store/conversions/{id}/convert [post]
func (h *StoreHandler) ConvertCoins(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	var req ConvertCoinsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	result, err := h.settlement.SettleConversion(itemID, req.ChildID, userID, req.Coins)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
