package services

import (
	"testing"

	"gorm.io/gorm"

	"chorebank/internal/models"
	"chorebank/internal/testutil"
)

func newTestSettlement(db *gorm.DB) SettlementServicer {
	userService := NewUserService(db)
	return NewSettlementService(db,
		NewPointsLedgerService(db),
		NewCoinLedgerService(db),
		NewCatalogService(db, userService))
}

func TestSettleChoreCompletion(t *testing.T) {
	t.Run("direct_completion_by_adult", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		chore := testutil.CreateTestChore(t, db, family, 0, 25)

		result, err := settlement.SettleChoreCompletion(chore.ID, models.UserActor(user.ID), nil)
		testutil.AssertNoError(t, err)
		if result.Chore.Status != models.ChoreStatusCompleted {
			t.Errorf("expected status completed, got %s", result.Chore.Status)
		}
		if result.Chore.CompletedAt == nil {
			t.Error("expected completed_at to be set")
		}
		if result.PointsTxn == nil || result.PointsTxn.Amount != 25 {
			t.Fatalf("expected points transaction of 25, got %+v", result.PointsTxn)
		}
		if result.CoinTxn != nil {
			t.Error("expected no coin transaction for an adult completion")
		}

		balance, err := NewPointsLedgerService(db).Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 25 {
			t.Errorf("expected family balance 25, got %d", balance)
		}
	})

	t.Run("completion_by_child_pays_coins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		chore := testutil.CreateTestChore(t, db, family, 10, 5)

		result, err := settlement.SettleChoreCompletion(chore.ID, models.ChildActor(child.ID), nil)
		testutil.AssertNoError(t, err)
		if result.CoinTxn == nil || result.CoinTxn.Amount != 10 {
			t.Fatalf("expected coin transaction of 10, got %+v", result.CoinTxn)
		}
		if result.PointsTxn == nil || result.PointsTxn.Amount != 5 {
			t.Fatalf("expected points transaction of 5, got %+v", result.PointsTxn)
		}
		if result.Chore.CompletedByChildID == nil || *result.Chore.CompletedByChildID != child.ID {
			t.Error("expected chore to record the completing child")
		}

		coins, err := NewCoinLedgerService(db).Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 10 {
			t.Errorf("expected child coins 10, got %d", coins)
		}
	})

	t.Run("double_settlement_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		chore := testutil.CreateTestChore(t, db, family, 0, 25)

		_, err := settlement.SettleChoreCompletion(chore.ID, models.UserActor(user.ID), nil)
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleChoreCompletion(chore.ID, models.UserActor(user.ID), nil)
		testutil.AssertAppError(t, err, "CHORE_COMPLETED")

		// The failed attempt must not credit a second time.
		balance, err := NewPointsLedgerService(db).Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 25 {
			t.Errorf("expected family balance 25, got %d", balance)
		}
	})

	t.Run("wrong_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		chore := testutil.CreateTestChore(t, db, family, 0, 25)

		outsider := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, outsider)

		_, err := settlement.SettleChoreCompletion(chore.ID, models.UserActor(outsider.ID), nil)
		testutil.AssertAppError(t, err, "WRONG_FAMILY")
	})

	t.Run("assigned_chore_rejects_other_child", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		assignee := testutil.CreateTestChild(t, db, family)
		other := testutil.CreateTestChild(t, db, family)
		chore := testutil.CreateTestChore(t, db, family, 10, 0)
		db.Model(chore).Update("assigned_child_id", assignee.ID)

		_, err := settlement.SettleChoreCompletion(chore.ID, models.ChildActor(other.ID), nil)
		testutil.AssertAppError(t, err, "NOT_ASSIGNEE")
	})

	t.Run("submitted_requires_approver", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		chore := testutil.CreateTestChore(t, db, family, 10, 0)
		db.Model(chore).Updates(map[string]interface{}{
			"status":                models.ChoreStatusSubmitted,
			"submitted_by_child_id": child.ID,
		})

		_, err := settlement.SettleChoreCompletion(chore.ID, models.ChildActor(child.ID), nil)
		testutil.AssertAppError(t, err, "CHORE_NOT_PENDING")

		result, err := settlement.SettleChoreCompletion(chore.ID, models.ChildActor(child.ID), &user.ID)
		testutil.AssertNoError(t, err)
		if result.CoinTxn == nil || result.CoinTxn.UserID == nil || *result.CoinTxn.UserID != user.ID {
			t.Error("expected the coin transaction to record the approving adult")
		}
	})

	t.Run("chore_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := settlement.SettleChoreCompletion("no-such-chore", models.UserActor(user.ID), nil)
		testutil.AssertAppError(t, err, "CHORE_NOT_FOUND")
	})
}

func TestSettleFamilyRewardPurchase(t *testing.T) {
	t.Run("purchase_debits_points_and_stock", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		reward := testutil.CreateTestFamilyReward(t, db, family, 40, testutil.IntPtr(2))

		_, err := pointsLedger.Credit(nil, family.ID, 100, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		txn, err := settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertNoError(t, err)
		if txn.Amount != -40 {
			t.Errorf("expected transaction amount -40, got %d", txn.Amount)
		}
		if txn.Type != models.TransactionTypeStorePurchase {
			t.Errorf("expected store_purchase transaction, got %s", txn.Type)
		}

		balance, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 60 {
			t.Errorf("expected balance 60, got %d", balance)
		}

		var fresh models.FamilyReward
		if err := db.First(&fresh, "id = ?", reward.ID).Error; err != nil {
			t.Fatalf("failed to reload reward: %v", err)
		}
		if fresh.Qty == nil || *fresh.Qty != 1 {
			t.Errorf("expected qty 1 after purchase, got %v", fresh.Qty)
		}
	})

	t.Run("insufficient_points_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		reward := testutil.CreateTestFamilyReward(t, db, family, 40, testutil.IntPtr(2))

		_, err := pointsLedger.Credit(nil, family.ID, 30, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertAppError(t, err, "INSUFFICIENT_POINTS")

		balance, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 30 {
			t.Errorf("expected balance untouched at 30, got %d", balance)
		}
		var fresh models.FamilyReward
		if err := db.First(&fresh, "id = ?", reward.ID).Error; err != nil {
			t.Fatalf("failed to reload reward: %v", err)
		}
		if fresh.Qty == nil || *fresh.Qty != 2 {
			t.Errorf("expected qty untouched at 2, got %v", fresh.Qty)
		}

		var count int64
		db.Model(&models.PointsTransaction{}).
			Where("type = ?", models.TransactionTypeStorePurchase).Count(&count)
		if count != 0 {
			t.Errorf("expected no purchase transaction, found %d", count)
		}
	})

	t.Run("last_unit_depletes_stock", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		reward := testutil.CreateTestFamilyReward(t, db, family, 10, testutil.IntPtr(1))

		_, err := pointsLedger.Credit(nil, family.ID, 100, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertAppError(t, err, "ITEM_UNAVAILABLE")
	})

	t.Run("infinite_stock_never_depletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		reward := testutil.CreateTestFamilyReward(t, db, family, 10, nil)

		_, err := pointsLedger.Credit(nil, family.ID, 100, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		for i := 0; i < 3; i++ {
			_, err = settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
			testutil.AssertNoError(t, err)
		}
	})

	t.Run("reward_from_another_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)
		other := testutil.CreateTestUser(t, db)
		otherFamily := testutil.CreateTestFamily(t, db, other)
		reward := testutil.CreateTestFamilyReward(t, db, otherFamily, 10, nil)

		_, err := settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertAppError(t, err, "WRONG_FAMILY")
	})
}

func TestSettleIndividualRewardPurchase(t *testing.T) {
	t.Run("purchase_debits_coins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		reward := testutil.CreateTestIndividualReward(t, db, family, 15, testutil.IntPtr(3))

		_, err := coinLedger.Credit(nil, child.ID, 50, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		txn, err := settlement.SettleIndividualRewardPurchase(reward.ID, child.ID, user.ID)
		testutil.AssertNoError(t, err)
		if txn.Amount != -15 {
			t.Errorf("expected transaction amount -15, got %d", txn.Amount)
		}

		coins, err := coinLedger.Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 35 {
			t.Errorf("expected coins 35, got %d", coins)
		}
	})

	t.Run("insufficient_coins_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		reward := testutil.CreateTestIndividualReward(t, db, family, 15, testutil.IntPtr(3))

		_, err := settlement.SettleIndividualRewardPurchase(reward.ID, child.ID, user.ID)
		testutil.AssertAppError(t, err, "INSUFFICIENT_COINS")

		coins, err := coinLedger.Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 0 {
			t.Errorf("expected coins 0, got %d", coins)
		}
		var fresh models.IndividualReward
		if err := db.First(&fresh, "id = ?", reward.ID).Error; err != nil {
			t.Fatalf("failed to reload reward: %v", err)
		}
		if fresh.Qty == nil || *fresh.Qty != 3 {
			t.Errorf("expected qty untouched at 3, got %v", fresh.Qty)
		}
	})

	t.Run("child_from_another_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		reward := testutil.CreateTestIndividualReward(t, db, family, 15, nil)
		other := testutil.CreateTestUser(t, db)
		otherFamily := testutil.CreateTestFamily(t, db, other)
		outsideChild := testutil.CreateTestChild(t, db, otherFamily)

		_, err := settlement.SettleIndividualRewardPurchase(reward.ID, outsideChild.ID, user.ID)
		testutil.AssertAppError(t, err, "WRONG_FAMILY")
	})
}

func TestSettleConversion(t *testing.T) {
	t.Run("whole_multiple", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		item := testutil.CreateTestConversionItem(t, db, family, 3)

		_, err := coinLedger.Credit(nil, child.ID, 20, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		result, err := settlement.SettleConversion(item.ID, child.ID, user.ID, 9)
		testutil.AssertNoError(t, err)
		if result.PointsEarned != 3 {
			t.Errorf("expected 3 points from 9 coins at 3:1, got %d", result.PointsEarned)
		}
		if result.CoinsSpent != 9 {
			t.Errorf("expected 9 coins spent, got %d", result.CoinsSpent)
		}
		if result.CoinTxn.Amount != -9 || result.PointsTxn.Amount != 3 {
			t.Errorf("unexpected transaction amounts: coin %d, points %d",
				result.CoinTxn.Amount, result.PointsTxn.Amount)
		}

		coins, err := coinLedger.Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 11 {
			t.Errorf("expected coins 11, got %d", coins)
		}
		points, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if points != 3 {
			t.Errorf("expected family points 3, got %d", points)
		}
	})

	t.Run("remainder_stays_on_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		item := testutil.CreateTestConversionItem(t, db, family, 10)

		_, err := coinLedger.Credit(nil, child.ID, 25, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		result, err := settlement.SettleConversion(item.ID, child.ID, user.ID, 25)
		testutil.AssertNoError(t, err)
		if result.PointsEarned != 2 {
			t.Errorf("expected 2 points from 25 coins at 10:1, got %d", result.PointsEarned)
		}
		if result.CoinsSpent != 20 {
			t.Errorf("expected only 20 coins debited, got %d", result.CoinsSpent)
		}
		if result.CoinTxn.Amount != -20 {
			t.Errorf("expected coin transaction of -20, got %d", result.CoinTxn.Amount)
		}

		coins, err := coinLedger.Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 5 {
			t.Errorf("expected the 5-coin remainder kept, got %d", coins)
		}
		points, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if points != 2 {
			t.Errorf("expected family points 2, got %d", points)
		}
	})

	t.Run("below_minimum", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		item := testutil.CreateTestConversionItem(t, db, family, 5)

		_, err := coinLedger.Credit(nil, child.ID, 20, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleConversion(item.ID, child.ID, user.ID, 4)
		testutil.AssertAppError(t, err, "BELOW_MINIMUM")

		coins, err := coinLedger.Balance(child.ID)
		testutil.AssertNoError(t, err)
		if coins != 20 {
			t.Errorf("expected coins untouched at 20, got %d", coins)
		}
	})

	t.Run("zero_coins_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		item := testutil.CreateTestConversionItem(t, db, family, 5)

		_, err := settlement.SettleConversion(item.ID, child.ID, user.ID, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unavailable_item", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		coinLedger := NewCoinLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)
		item := testutil.CreateTestConversionItem(t, db, family, 2)
		db.Model(item).Update("is_available", false)

		_, err := coinLedger.Credit(nil, child.ID, 20, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		_, err = settlement.SettleConversion(item.ID, child.ID, user.ID, 10)
		testutil.AssertAppError(t, err, "ITEM_UNAVAILABLE")
	})
}

func TestSettleManualAdjustment(t *testing.T) {
	t.Run("manager_credits_and_debits", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		txn, err := settlement.SettleManualAdjustment(user.ID, 50, "weekly bonus")
		testutil.AssertNoError(t, err)
		if txn.Amount != 50 || txn.Type != models.TransactionTypeManualAdjustment {
			t.Errorf("unexpected transaction: %+v", txn)
		}

		txn, err = settlement.SettleManualAdjustment(user.ID, -20, "correction")
		testutil.AssertNoError(t, err)
		if txn.Amount != -20 {
			t.Errorf("expected amount -20, got %d", txn.Amount)
		}

		balance, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 30 {
			t.Errorf("expected balance 30, got %d", balance)
		}
	})

	t.Run("non_manager_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		member := testutil.CreateTestUser(t, db)
		testutil.JoinFamily(t, db, member, family)

		_, err := settlement.SettleManualAdjustment(member.ID, 50, "nope")
		testutil.AssertAppError(t, err, "NOT_FAMILY_MANAGER")
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := settlement.SettleManualAdjustment(user.ID, 0, "noop")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("debit_below_zero_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := settlement.SettleManualAdjustment(user.ID, -10, "too much")
		testutil.AssertAppError(t, err, "INSUFFICIENT_POINTS")
	})
}

func TestSetFamilyPoints(t *testing.T) {
	t.Run("set_writes_compensating_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := pointsLedger.Credit(nil, family.ID, 80, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		txn, err := settlement.SetFamilyPoints(user.ID, 100)
		testutil.AssertNoError(t, err)
		if txn == nil || txn.Amount != 20 {
			t.Fatalf("expected compensating transaction of 20, got %+v", txn)
		}
		if txn.Type != models.TransactionTypeManualAdjustment {
			t.Errorf("expected manual_adjustment transaction, got %s", txn.Type)
		}

		balance, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 100 {
			t.Errorf("expected balance 100, got %d", balance)
		}
	})

	t.Run("no_change_writes_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := pointsLedger.Credit(nil, family.ID, 80, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		txn, err := settlement.SetFamilyPoints(user.ID, 80)
		testutil.AssertNoError(t, err)
		if txn != nil {
			t.Errorf("expected nil transaction when nothing changed, got %+v", txn)
		}
	})

	t.Run("negative_total_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := settlement.SetFamilyPoints(user.ID, -5)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestLedgerReconciliation(t *testing.T) {
	t.Run("transaction_sum_matches_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		settlement := newTestSettlement(db)
		pointsLedger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		chore := testutil.CreateTestChore(t, db, family, 0, 30)
		reward := testutil.CreateTestFamilyReward(t, db, family, 25, nil)

		_, err := settlement.SettleChoreCompletion(chore.ID, models.UserActor(user.ID), nil)
		testutil.AssertNoError(t, err)
		_, err = settlement.SettleManualAdjustment(user.ID, 45, "bonus")
		testutil.AssertNoError(t, err)
		_, err = settlement.SettleFamilyRewardPurchase(reward.ID, user.ID)
		testutil.AssertNoError(t, err)
		_, err = settlement.SetFamilyPoints(user.ID, 10)
		testutil.AssertNoError(t, err)

		var sum int64
		if err := db.Model(&models.PointsTransaction{}).
			Where("family_id = ?", family.ID).
			Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error; err != nil {
			t.Fatalf("failed to sum transactions: %v", err)
		}
		balance, err := pointsLedger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if sum != balance {
			t.Errorf("transaction sum %d does not match balance %d", sum, balance)
		}
		if balance != 10 {
			t.Errorf("expected final balance 10, got %d", balance)
		}
	})
}
