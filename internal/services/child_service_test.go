package services

import (
	"testing"
	"time"

	"chorebank/internal/models"
	"chorebank/internal/testutil"
)

func TestAddChild(t *testing.T) {
	t.Run("creates_child_with_coin_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)

		age := 9
		child, err := children.AddChild(user.ID, ChildCreateFields{
			Name: "Milo",
			Age:  &age,
			PIN:  "1234",
		})
		testutil.AssertNoError(t, err)
		if child.FamilyID != family.ID {
			t.Errorf("expected family %s, got %s", family.ID, child.FamilyID)
		}
		if child.PINHash == "" {
			t.Error("expected PIN hash stored")
		}
		if child.PINHash == "1234" {
			t.Error("expected PIN to be hashed, found plaintext")
		}

		var coins models.ChildCoins
		if err := db.First(&coins, "child_id = ?", child.ID).Error; err != nil {
			t.Fatalf("expected a zero coin balance row: %v", err)
		}
		if coins.TotalCoins != 0 {
			t.Errorf("expected starting coins 0, got %d", coins.TotalCoins)
		}
	})

	t.Run("rejects_bad_pin", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		for _, pin := range []string{"12", "123456789", "12ab"} {
			_, err := children.AddChild(user.ID, ChildCreateFields{Name: "Milo", PIN: pin})
			testutil.AssertAppError(t, err, "INVALID_INPUT")
		}
	})

	t.Run("rejects_missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := children.AddChild(user.ID, ChildCreateFields{Name: "  "})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("requires_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := children.AddChild(user.ID, ChildCreateFields{Name: "Milo"})
		testutil.AssertAppError(t, err, "NO_FAMILY")
	})
}

func TestUpdateChild(t *testing.T) {
	t.Run("updates_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)

		name := "Milo Jr"
		birthdate := time.Date(2017, 3, 14, 0, 0, 0, 0, time.UTC)
		updated, err := children.UpdateChild(user.ID, child.ID, ChildUpdateFields{
			Name:      &name,
			Birthdate: &birthdate,
		})
		testutil.AssertNoError(t, err)
		if updated.Name != name {
			t.Errorf("expected name %q, got %q", name, updated.Name)
		}
		if updated.Birthdate == nil || !updated.Birthdate.Equal(birthdate) {
			t.Error("expected birthdate updated")
		}
	})

	t.Run("empty_pin_clears_hash", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)

		pin := "4321"
		updated, err := children.UpdateChild(user.ID, child.ID, ChildUpdateFields{PIN: &pin})
		testutil.AssertNoError(t, err)
		if updated.PINHash == "" {
			t.Fatal("expected PIN hash set")
		}

		empty := ""
		updated, err = children.UpdateChild(user.ID, child.ID, ChildUpdateFields{PIN: &empty})
		testutil.AssertNoError(t, err)
		if updated.PINHash != "" {
			t.Error("expected PIN hash cleared")
		}
	})

	t.Run("foreign_child_not_visible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)
		other := testutil.CreateTestUser(t, db)
		otherFamily := testutil.CreateTestFamily(t, db, other)
		outsideChild := testutil.CreateTestChild(t, db, otherFamily)

		name := "Sneaky"
		_, err := children.UpdateChild(user.ID, outsideChild.ID, ChildUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "CHILD_NOT_FOUND")
	})
}

func TestRemoveChild(t *testing.T) {
	t.Run("removes_child_and_balance_keeps_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		coinLedger := NewCoinLedgerService(db)
		user := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, user)
		child := testutil.CreateTestChild(t, db, family)

		_, err := coinLedger.Credit(nil, child.ID, 5, models.UserActor(user.ID))
		testutil.AssertNoError(t, err)
		txn := &models.CoinTransaction{
			ChildID: child.ID,
			Amount:  5,
			Type:    models.TransactionTypeManualAdjustment,
		}
		testutil.AssertNoError(t, db.Create(txn).Error)

		testutil.AssertNoError(t, children.RemoveChild(user.ID, child.ID))

		var count int64
		db.Model(&models.Child{}).Where("id = ?", child.ID).Count(&count)
		if count != 0 {
			t.Error("expected child row removed")
		}
		db.Model(&models.ChildCoins{}).Where("child_id = ?", child.ID).Count(&count)
		if count != 0 {
			t.Error("expected balance row removed")
		}
		db.Model(&models.CoinTransaction{}).Where("child_id = ?", child.ID).Count(&count)
		if count != 1 {
			t.Error("expected transaction history preserved")
		}
	})
}

func TestChildAge(t *testing.T) {
	t.Run("birthdate_wins_over_stored_age", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		age := 3
		birthdate := time.Now().AddDate(-10, 0, -1)
		child, err := children.AddChild(user.ID, ChildCreateFields{
			Name:      "Nina",
			Age:       &age,
			Birthdate: &birthdate,
		})
		testutil.AssertNoError(t, err)

		current := child.CurrentAge(time.Now())
		if current == nil || *current != 10 {
			t.Errorf("expected derived age 10, got %v", current)
		}
	})
}

func TestVerifyPIN(t *testing.T) {
	t.Run("matches_correct_pin_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		child, err := children.AddChild(user.ID, ChildCreateFields{Name: "Milo", PIN: "1234"})
		testutil.AssertNoError(t, err)

		if !children.VerifyPIN(child, "1234") {
			t.Error("expected correct PIN to verify")
		}
		if children.VerifyPIN(child, "9999") {
			t.Error("expected wrong PIN to fail")
		}
	})

	t.Run("no_pin_set_accepts_anything", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		children := NewChildService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		child, err := children.AddChild(user.ID, ChildCreateFields{Name: "Milo"})
		testutil.AssertNoError(t, err)

		if !children.VerifyPIN(child, "whatever") {
			t.Error("expected PIN-less child to verify")
		}
	})
}
