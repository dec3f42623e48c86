package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microtasklabs/microtask-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestUsersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_users.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CHECK (coins >= 0)",
		"UNIQUE (email)",
		"UNIQUE (firebase_uid)",
		"DROP TABLE IF EXISTS users",
	}
	assertContains(t, content, checks)
}

func TestTasksAndSubmissionsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_tasks_and_submissions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS tasks",
		"CHECK (required_workers >= 0)",
		"CHECK (payable_amount > 0)",
		"FOREIGN KEY (buyer_id) REFERENCES users(id) ON DELETE CASCADE",
		"CREATE TABLE IF NOT EXISTS submissions",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_task_worker ON submissions (task_id, worker_id)",
		"DROP TABLE IF EXISTS submissions",
	}
	assertContains(t, content, checks)
}

func TestPaymentsMigrationEnforcesIdempotency(t *testing.T) {
	content := readMigration(t, "*_create_withdrawals_and_payments.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS withdrawals",
		"CHECK (withdrawal_coin > 0)",
		"CHECK (status IN ('pending', 'approved'))",
		"CREATE TABLE IF NOT EXISTS payments",
		"UNIQUE (transaction_id)",
	}
	assertContains(t, content, checks)
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matching %q found", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
