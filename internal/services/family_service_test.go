package services

import (
	"regexp"
	"strings"
	"testing"

	"chorebank/internal/models"
	"chorebank/internal/testutil"
)

func TestCreateFamily(t *testing.T) {
	t.Run("creates_family_with_code_and_ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)

		family, err := families.CreateFamily("TheParkers", user.ID)
		testutil.AssertNoError(t, err)
		if family.CreatorID != user.ID {
			t.Errorf("expected creator %s, got %s", user.ID, family.CreatorID)
		}
		if !regexp.MustCompile(`^[A-Z0-9]{6}$`).MatchString(family.Code) {
			t.Errorf("unexpected join code format: %q", family.Code)
		}

		var fresh models.User
		if err := db.First(&fresh, "id = ?", user.ID).Error; err != nil {
			t.Fatalf("failed to reload user: %v", err)
		}
		if fresh.FamilyID == nil || *fresh.FamilyID != family.ID {
			t.Error("expected creator attached to the new family")
		}

		var points models.FamilyPoints
		if err := db.First(&points, "family_id = ?", family.ID).Error; err != nil {
			t.Fatalf("expected a zero balance row: %v", err)
		}
		if points.TotalPoints != 0 {
			t.Errorf("expected starting balance 0, got %d", points.TotalPoints)
		}
	})

	t.Run("rejects_second_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestFamily(t, db, user)

		_, err := families.CreateFamily("Second Family", user.ID)
		testutil.AssertAppError(t, err, "ALREADY_IN_FAMILY")
	})

	t.Run("rejects_short_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := families.CreateFamily("x", user.ID)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestJoinRequests(t *testing.T) {
	t.Run("request_and_approve", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		applicant := testutil.CreateTestUser(t, db)

		request, err := families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertNoError(t, err)
		if request.Status != models.JoinRequestPending {
			t.Errorf("expected pending request, got %s", request.Status)
		}

		pending, err := families.PendingJoinRequests(creator.ID)
		testutil.AssertNoError(t, err)
		if len(pending) != 1 {
			t.Fatalf("expected 1 pending request, got %d", len(pending))
		}

		testutil.AssertNoError(t, families.ApproveJoinRequest(creator.ID, request.ID))

		var fresh models.User
		if err := db.First(&fresh, "id = ?", applicant.ID).Error; err != nil {
			t.Fatalf("failed to reload user: %v", err)
		}
		if fresh.FamilyID == nil || *fresh.FamilyID != family.ID {
			t.Error("expected applicant attached after approval")
		}
	})

	t.Run("reject_leaves_user_out", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		applicant := testutil.CreateTestUser(t, db)

		request, err := families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, families.RejectJoinRequest(creator.ID, request.ID))

		var fresh models.User
		if err := db.First(&fresh, "id = ?", applicant.ID).Error; err != nil {
			t.Fatalf("failed to reload user: %v", err)
		}
		if fresh.FamilyID != nil {
			t.Error("expected applicant still unattached after rejection")
		}

		// A decided request cannot be decided again.
		err = families.ApproveJoinRequest(creator.ID, request.ID)
		testutil.AssertAppError(t, err, "JOIN_REQUEST_NOT_FOUND")
	})

	t.Run("lowercase_code_accepted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		applicant := testutil.CreateTestUser(t, db)

		_, err := families.RequestToJoin("  "+strings.ToLower(family.Code)+" ", applicant.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("unknown_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		applicant := testutil.CreateTestUser(t, db)

		_, err := families.RequestToJoin("ZZZZZZ", applicant.ID)
		testutil.AssertAppError(t, err, "FAMILY_NOT_FOUND")
	})

	t.Run("duplicate_pending_request", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		applicant := testutil.CreateTestUser(t, db)

		_, err := families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertNoError(t, err)
		_, err = families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertAppError(t, err, "JOIN_REQUEST_PENDING")
	})

	t.Run("non_manager_cannot_decide", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		member := testutil.CreateTestUser(t, db)
		testutil.JoinFamily(t, db, member, family)
		applicant := testutil.CreateTestUser(t, db)

		request, err := families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertNoError(t, err)

		err = families.ApproveJoinRequest(member.ID, request.ID)
		testutil.AssertAppError(t, err, "NOT_FAMILY_MANAGER")
	})

	t.Run("approving_member_of_another_family_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		applicant := testutil.CreateTestUser(t, db)

		request, err := families.RequestToJoin(family.Code, applicant.ID)
		testutil.AssertNoError(t, err)

		// The applicant founds their own family while the request waits.
		testutil.CreateTestFamily(t, db, applicant)

		err = families.ApproveJoinRequest(creator.ID, request.ID)
		testutil.AssertAppError(t, err, "ALREADY_IN_FAMILY")

		var fresh models.JoinRequest
		if err := db.First(&fresh, "id = ?", request.ID).Error; err != nil {
			t.Fatalf("failed to reload request: %v", err)
		}
		if fresh.Status != models.JoinRequestRejected {
			t.Errorf("expected request marked rejected, got %s", fresh.Status)
		}
	})
}

func TestGetFamilyMembers(t *testing.T) {
	t.Run("lists_all_members", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		creator := testutil.CreateTestUser(t, db)
		family := testutil.CreateTestFamily(t, db, creator)
		member := testutil.CreateTestUser(t, db)
		testutil.JoinFamily(t, db, member, family)

		members, err := families.GetFamilyMembers(creator.ID)
		testutil.AssertNoError(t, err)
		if len(members) != 2 {
			t.Errorf("expected 2 members, got %d", len(members))
		}
	})

	t.Run("no_family", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		families := NewFamilyService(db, NewUserService(db))
		user := testutil.CreateTestUser(t, db)

		_, err := families.GetFamilyMembers(user.ID)
		testutil.AssertAppError(t, err, "NO_FAMILY")
	})
}
