package migrate_test

import (
	"strings"
	"testing"

	"github.com/tavolapos/tavola-backend/pkg/migrate"
)

func TestInventoryMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory.sql")

	checks := []string{
		"CREATE TYPE stock_transaction_type AS ENUM ('purchase', 'return', 'usage', 'waste', 'adjustment')",
		"CREATE TABLE IF NOT EXISTS ingredients",
		"CHECK (current_stock >= 0)",
		"FOREIGN KEY (ingredient_id) REFERENCES ingredients(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS stock_transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}
