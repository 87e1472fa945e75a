package test_utils

import (
	"database/sql"
	"testing"

	"github.com/obralog/obralog/pkg/user"
)

// CreateTestUser inserts a user row and returns it. Repository tests need the
// foreign key target before inserting budgets.
func CreateTestUser(t *testing.T, db *sql.DB) user.User {
	t.Helper()

	u := user.User{
		Uid:         "test-user-uid",
		Username:    "test_user",
		DisplayName: "Test User",
	}
	result, err := db.Exec(
		"INSERT INTO app_user (uid, username, display_name) VALUES (?, ?, ?)",
		u.Uid, u.Username, u.DisplayName,
	)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to read test user id: %v", err)
	}
	u.Id = int(id)
	return u
}
