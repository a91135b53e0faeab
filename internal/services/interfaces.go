package services

import (
	"time"

	"gorm.io/gorm"

	"chorebank/internal/models"
	"chorebank/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateProfile(userID string, fields ProfileUpdateFields) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// ProfileUpdateFields holds the optional fields of a profile update.
// Nil fields are left unchanged.
type ProfileUpdateFields struct {
	Username *string
	Email    *string
}

// FamilyServicer defines the contract for family-related business logic.
type FamilyServicer interface {
	CreateFamily(name, creatorID string) (*models.Family, error)
	GetFamilyByID(id string) (*models.Family, error)
	GetUserFamily(userID string) (*models.Family, error)
	GetFamilyMembers(userID string) ([]models.User, error)
	RequestToJoin(familyCode, userID string) (*models.JoinRequest, error)
	PendingJoinRequests(managerID string) ([]models.JoinRequest, error)
	ApproveJoinRequest(managerID, requestID string) error
	RejectJoinRequest(managerID, requestID string) error
}

// ChildCreateFields holds the fields for adding a child to a family.
type ChildCreateFields struct {
	Name      string
	Birthdate *time.Time
	Age       *int
	PIN       string
}

// ChildUpdateFields holds the optional fields of a child update.
// Nil fields are left unchanged; an empty PIN clears it.
type ChildUpdateFields struct {
	Name      *string
	Birthdate *time.Time
	Age       *int
	PIN       *string
}

// ChildServicer defines the contract for child-related business logic.
type ChildServicer interface {
	AddChild(userID string, fields ChildCreateFields) (*models.Child, error)
	UpdateChild(userID, childID string, fields ChildUpdateFields) (*models.Child, error)
	RemoveChild(userID, childID string) error
	GetChildByID(userID, childID string) (*models.Child, error)
	GetFamilyChildren(userID string) ([]models.Child, error)
	VerifyPIN(child *models.Child, pin string) bool
}

// ChoreCreateFields holds the fields for creating a chore.
type ChoreCreateFields struct {
	Name            string
	Description     string
	CoinAmount      int64
	PointAmount     int64
	Priority        models.ChorePriority
	DueDate         *time.Time
	Notes           string
	IsRecurring     bool
	RecurringDays   []int
	AssignedChildID *string
	AssignedUserID  *string
}

// ChoreUpdateFields holds the optional fields of a chore update.
// Nil fields are left unchanged.
type ChoreUpdateFields struct {
	Name          *string
	Description   *string
	CoinAmount    *int64
	PointAmount   *int64
	Priority      *models.ChorePriority
	DueDate       *time.Time
	Notes         *string
	IsRecurring   *bool
	RecurringDays []int
}

// ChoreFilter holds optional filter parameters for listing chores.
type ChoreFilter struct {
	Status  *models.ChoreStatus
	ChildID *string
}

// ChoreServicer defines the contract for chore management and the chore
// lifecycle. Approve and Complete settle rewards through the settlement
// engine.
type ChoreServicer interface {
	CreateChore(userID string, fields ChoreCreateFields) (*models.Chore, error)
	UpdateChore(userID, choreID string, fields ChoreUpdateFields) (*models.Chore, error)
	GetChoreByID(userID, choreID string) (*models.Chore, error)
	GetFamilyChores(userID string, page pagination.PageRequest, filter ChoreFilter) (*pagination.PageResponse[models.Chore], error)
	AssignToChild(userID, choreID, childID string) (*models.Chore, error)
	AssignToUser(userID, choreID, assigneeID string) (*models.Chore, error)
	Unassign(userID, choreID string) (*models.Chore, error)
	SubmitChore(userID, choreID, childID string) (*models.Chore, error)
	ApproveChore(userID, choreID string) (*ChoreSettlement, error)
	RejectChore(userID, choreID string) (*models.Chore, error)
	CompleteChore(userID, choreID string, completer models.Actor) (*ChoreSettlement, error)
	ArchiveChore(userID, choreID string) error
}

// PointsLedgerServicer is the store for the shared family point balance.
// Credit, Debit, and Set must run inside the caller's database transaction;
// the caller owns the pairing of each mutation with its transaction record.
type PointsLedgerServicer interface {
	GetOrCreate(tx *gorm.DB, familyID string) (*models.FamilyPoints, error)
	Credit(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error)
	Debit(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error)
	Set(tx *gorm.DB, familyID string, amount int64, actor models.Actor) (int64, error)
	Balance(familyID string) (int64, error)
	Transactions(familyID string, limit int, txType *models.TransactionType) ([]models.PointsTransaction, error)
}

// CoinLedgerServicer is the per-child coin balance store, mirroring the
// family point ledger.
type CoinLedgerServicer interface {
	GetOrCreate(tx *gorm.DB, childID string) (*models.ChildCoins, error)
	Credit(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error)
	Debit(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error)
	Set(tx *gorm.DB, childID string, amount int64, actor models.Actor) (int64, error)
	Balance(childID string) (int64, error)
	Transactions(childID string, limit int, txType *models.TransactionType) ([]models.CoinTransaction, error)
}

// RewardCreateFields holds the fields for creating a reward catalog entry.
// Qty nil means infinite stock.
type RewardCreateFields struct {
	Name        string
	Description string
	Cost        int64
	Qty         *int
}

// RewardUpdateFields holds the optional fields of a reward update.
type RewardUpdateFields struct {
	Name        *string
	Description *string
	Cost        *int64
	Qty         *int
	Infinite    *bool
	IsAvailable *bool
}

// ConversionCreateFields holds the fields for creating a conversion item.
type ConversionCreateFields struct {
	Name          string
	Description   string
	CoinsPerPoint int64
}

// ConversionUpdateFields holds the optional fields of a conversion item update.
type ConversionUpdateFields struct {
	Name          *string
	Description   *string
	CoinsPerPoint *int64
	IsAvailable   *bool
}

// CatalogServicer manages the reward catalog: individual rewards (coins),
// family rewards (points), and coin-to-point conversion items.
type CatalogServicer interface {
	CreateIndividualReward(userID string, fields RewardCreateFields) (*models.IndividualReward, error)
	CreateFamilyReward(userID string, fields RewardCreateFields) (*models.FamilyReward, error)
	CreateConversionItem(userID string, fields ConversionCreateFields) (*models.ConversionItem, error)

	ListIndividualRewards(userID string, availableOnly bool) ([]models.IndividualReward, error)
	ListFamilyRewards(userID string, availableOnly bool) ([]models.FamilyReward, error)
	ListConversionItems(userID string, availableOnly bool) ([]models.ConversionItem, error)

	UpdateIndividualReward(userID, rewardID string, fields RewardUpdateFields) (*models.IndividualReward, error)
	UpdateFamilyReward(userID, rewardID string, fields RewardUpdateFields) (*models.FamilyReward, error)
	UpdateConversionItem(userID, itemID string, fields ConversionUpdateFields) (*models.ConversionItem, error)

	DeactivateIndividualReward(userID, rewardID string) error
	DeactivateFamilyReward(userID, rewardID string) error
	DeactivateConversionItem(userID, itemID string) error

	DeleteIndividualReward(userID, rewardID string) error
	DeleteFamilyReward(userID, rewardID string) error
	DeleteConversionItem(userID, itemID string) error

	// ConsumeOne* decrement a finite item's stock by one within the
	// caller's transaction, or fail with ErrItemUnavailable at zero.
	// Infinite items succeed without mutation.
	ConsumeOneIndividual(tx *gorm.DB, rewardID string) error
	ConsumeOneFamily(tx *gorm.DB, rewardID string) error
}

// ChoreSettlement is the outcome of settling a chore completion. The
// transaction fields are nil when the corresponding reward amount was zero.
type ChoreSettlement struct {
	Chore     *models.Chore             `json:"chore"`
	PointsTxn *models.PointsTransaction `json:"points_transaction,omitempty"`
	CoinTxn   *models.CoinTransaction   `json:"coin_transaction,omitempty"`
}

// ConversionSettlement is the outcome of converting coins to family points.
type ConversionSettlement struct {
	CoinsSpent   int64                     `json:"coins_spent"`
	PointsEarned int64                     `json:"points_earned"`
	PointsTxn    *models.PointsTransaction `json:"points_transaction"`
	CoinTxn      *models.CoinTransaction   `json:"coin_transaction"`
}

// SettlementServicer turns validated domain events into atomic balance
// mutations paired with audit transaction records. Every operation runs in
// a single database transaction: all mutations succeed or none do.
type SettlementServicer interface {
	SettleChoreCompletion(choreID string, completer models.Actor, approvedBy *string) (*ChoreSettlement, error)
	SettleFamilyRewardPurchase(rewardID, buyerID string) (*models.PointsTransaction, error)
	SettleIndividualRewardPurchase(rewardID, childID, byUserID string) (*models.CoinTransaction, error)
	SettleConversion(itemID, childID, byUserID string, coins int64) (*ConversionSettlement, error)
	SettleManualAdjustment(userID string, amount int64, description string) (*models.PointsTransaction, error)
	SetFamilyPoints(userID string, total int64) (*models.PointsTransaction, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
