package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"chorebank/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique
// username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserNamed(t, db, fmt.Sprintf("user%d", n), fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserNamed creates a user with the given username and email.
func CreateTestUserNamed(t *testing.T, db *gorm.DB, username, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestFamily creates a family managed by the given user, places the
// user in it, and opens its point balance at zero.
func CreateTestFamily(t *testing.T, db *gorm.DB, creator *models.User) *models.Family {
	t.Helper()

	family := &models.Family{
		Name:      fmt.Sprintf("Test Family %d", nextID()),
		Code:      fmt.Sprintf("TST%03d", nextID()%1000),
		CreatorID: creator.ID,
	}
	if err := db.Create(family).Error; err != nil {
		t.Fatalf("failed to create test family: %v", err)
	}
	if err := db.Model(creator).Update("family_id", family.ID).Error; err != nil {
		t.Fatalf("failed to attach creator to family: %v", err)
	}
	creator.FamilyID = &family.ID

	points := &models.FamilyPoints{FamilyID: family.ID}
	if err := db.Create(points).Error; err != nil {
		t.Fatalf("failed to create family points row: %v", err)
	}
	return family
}

// JoinFamily places an existing user into a family.
func JoinFamily(t *testing.T, db *gorm.DB, user *models.User, family *models.Family) {
	t.Helper()

	if err := db.Model(user).Update("family_id", family.ID).Error; err != nil {
		t.Fatalf("failed to join family: %v", err)
	}
	user.FamilyID = &family.ID
}

// CreateTestChild creates a child in the family with an empty coin balance.
func CreateTestChild(t *testing.T, db *gorm.DB, family *models.Family) *models.Child {
	t.Helper()

	child := &models.Child{
		Name:      fmt.Sprintf("Kid %d", nextID()),
		FamilyID:  family.ID,
		CreatedBy: family.CreatorID,
	}
	if err := db.Create(child).Error; err != nil {
		t.Fatalf("failed to create test child: %v", err)
	}
	coins := &models.ChildCoins{ChildID: child.ID}
	if err := db.Create(coins).Error; err != nil {
		t.Fatalf("failed to create child coins row: %v", err)
	}
	return child
}

// CreateTestChore creates a pending chore with the given reward amounts.
func CreateTestChore(t *testing.T, db *gorm.DB, family *models.Family, coinAmount, pointAmount int64) *models.Chore {
	t.Helper()

	chore := &models.Chore{
		Name:        fmt.Sprintf("Chore %d", nextID()),
		CoinAmount:  coinAmount,
		PointAmount: pointAmount,
		FamilyID:    family.ID,
		CreatedBy:   family.CreatorID,
		Status:      models.ChoreStatusPending,
		Priority:    models.ChorePriorityMedium,
	}
	if err := db.Create(chore).Error; err != nil {
		t.Fatalf("failed to create test chore: %v", err)
	}
	return chore
}

// CreateTestIndividualReward creates a coin-priced reward. Qty nil means
// infinite stock.
func CreateTestIndividualReward(t *testing.T, db *gorm.DB, family *models.Family, cost int64, qty *int) *models.IndividualReward {
	t.Helper()

	reward := &models.IndividualReward{
		Name:        fmt.Sprintf("Reward %d", nextID()),
		CoinCost:    cost,
		Qty:         qty,
		IsAvailable: true,
		FamilyID:    family.ID,
		CreatedBy:   family.CreatorID,
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("failed to create test individual reward: %v", err)
	}
	return reward
}

// CreateTestFamilyReward creates a point-priced reward. Qty nil means
// infinite stock.
func CreateTestFamilyReward(t *testing.T, db *gorm.DB, family *models.Family, cost int64, qty *int) *models.FamilyReward {
	t.Helper()

	reward := &models.FamilyReward{
		Name:        fmt.Sprintf("Family Reward %d", nextID()),
		PointCost:   cost,
		Qty:         qty,
		IsAvailable: true,
		FamilyID:    family.ID,
		CreatedBy:   family.CreatorID,
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("failed to create test family reward: %v", err)
	}
	return reward
}

// CreateTestConversionItem creates a conversion item with the given ratio.
func CreateTestConversionItem(t *testing.T, db *gorm.DB, family *models.Family, coinsPerPoint int64) *models.ConversionItem {
	t.Helper()

	item := &models.ConversionItem{
		Name:          fmt.Sprintf("Conversion %d", nextID()),
		CoinsPerPoint: coinsPerPoint,
		IsAvailable:   true,
		FamilyID:      family.ID,
		CreatedBy:     family.CreatorID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test conversion item: %v", err)
	}
	return item
}

// IntPtr returns a pointer to n, for finite stock fixtures.
func IntPtr(n int) *int {
	return &n
}
