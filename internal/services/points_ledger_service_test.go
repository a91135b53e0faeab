package services

import (
	"testing"

	"chorebank/internal/models"
	"chorebank/internal/testutil"
)

func TestPointsLedgerCredit(t *testing.T) {
	t.Run("credit_increases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		balance, err := ledger.Credit(nil, family.ID, 50, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 50 {
			t.Errorf("expected balance 50, got %d", balance)
		}

		balance, err = ledger.Credit(nil, family.ID, 25, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 75 {
			t.Errorf("expected balance 75, got %d", balance)
		}
	})

	t.Run("credit_creates_missing_balance_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		db.Where("family_id = ?", family.ID).Delete(&models.FamilyPoints{})

		balance, err := ledger.Credit(nil, family.ID, 10, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 10 {
			t.Errorf("expected balance 10, got %d", balance)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, 0, models.UserActor(user.ID))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("negative_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, -5, models.UserActor(user.ID))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("child_actor_stamps_updated_by", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)

		_, err := ledger.Credit(nil, family.ID, 10, models.ChildActor(child.ID))
		testutil.AssertNoError(t, err)

		var points models.FamilyPoints
		testutil.AssertNoError(t, db.Where("family_id = ?", family.ID).First(&points).Error)
		if points.UpdatedBy == nil || *points.UpdatedBy != child.ID {
			t.Error("expected updated_by stamped with the child's ID")
		}
	})
}

func TestPointsLedgerDebit(t *testing.T) {
	t.Run("debit_decreases_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, 100, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		balance, err := ledger.Debit(nil, family.ID, 40, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 60 {
			t.Errorf("expected balance 60, got %d", balance)
		}
	})

	t.Run("insufficient_points", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, 30, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		_, err = ledger.Debit(nil, family.ID, 31, models.UserActor(user.ID))
		testutil.AssertAppError(t, err, "INSUFFICIENT_POINTS")

		// Balance untouched by the failed debit
		balance, err := ledger.Balance(family.ID)
		testutil.AssertNoError(t, err)
		if balance != 30 {
			t.Errorf("expected balance 30, got %d", balance)
		}
	})

	t.Run("exact_balance_debit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, 20, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		balance, err := ledger.Debit(nil, family.ID, 20, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 0 {
			t.Errorf("expected balance 0, got %d", balance)
		}
	})

	t.Run("debit_empty_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Debit(nil, family.ID, 1, models.UserActor(user.ID))
		testutil.AssertAppError(t, err, "INSUFFICIENT_POINTS")
	})
}

func TestPointsLedgerSet(t *testing.T) {
	t.Run("set_overwrites_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Credit(nil, family.ID, 42, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)

		balance, err := ledger.Set(nil, family.ID, 7, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		if balance != 7 {
			t.Errorf("expected balance 7, got %d", balance)
		}
	})

	t.Run("negative_total_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		_, err := ledger.Set(nil, family.ID, -1, models.UserActor(user.ID))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestPointsLedgerBalance(t *testing.T) {
	t.Run("unknown_family_reads_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)

		balance, err := ledger.Balance("no-such-family")
		testutil.AssertNoError(t, err)
		if balance != 0 {
			t.Errorf("expected balance 0, got %d", balance)
		}
	})
}

func TestPointsLedgerTransactions(t *testing.T) {
	t.Run("newest_first_with_type_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		for i, txType := range []models.TransactionType{
			models.TransactionTypeChoreCompletion,
			models.TransactionTypeManualAdjustment,
			models.TransactionTypeChoreCompletion,
		} {
			txn := &models.PointsTransaction{
				FamilyID: family.ID,
				UserID:   &user.ID,
				Amount:   int64(i + 1),
				Type:     txType,
			}
			if err := db.Create(txn).Error; err != nil {
				t.Fatalf("failed to create transaction: %v", err)
			}
		}

		all, err := ledger.Transactions(family.ID, 0, nil)
		testutil.AssertNoError(t, err)
		if len(all) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(all))
		}

		choreType := models.TransactionTypeChoreCompletion
		filtered, err := ledger.Transactions(family.ID, 0, &choreType)
		testutil.AssertNoError(t, err)
		if len(filtered) != 2 {
			t.Fatalf("expected 2 chore transactions, got %d", len(filtered))
		}
		for _, txn := range filtered {
			if txn.Type != choreType {
				t.Errorf("expected type %q, got %q", choreType, txn.Type)
			}
		}
	})

	t.Run("limit_applies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		ledger := NewPointsLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		for i := 0; i < 5; i++ {
			txn := &models.PointsTransaction{
				FamilyID: family.ID,
				Amount:   1,
				Type:     models.TransactionTypeManualAdjustment,
			}
			if err := db.Create(txn).Error; err != nil {
				t.Fatalf("failed to create transaction: %v", err)
			}
		}

		txns, err := ledger.Transactions(family.ID, 2, nil)
		testutil.AssertNoError(t, err)
		if len(txns) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(txns))
		}
	})
}
