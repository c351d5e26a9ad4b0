package database

import (
	"io/fs"
	"strings"
	"testing"

	"aroma-tales/migrations"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()

	content, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_products_table.sql",
		"00002_create_carts_table.sql",
		"00003_create_cart_items_table.sql",
		"00004_create_orders_table.sql",
		"00005_create_order_items_table.sql",
		"00006_create_notifications_table.sql",
		"00007_create_updated_at_trigger.sql",
		"00008_seed_products.sql",
	}

	for _, migration := range expectedMigrations {
		if _, err := fs.Stat(migrations.FS, migration); err != nil {
			t.Errorf("Migration file %s is not embedded: %v", migration, err)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No SQL migration files found")
	}

	for _, name := range files {
		content := readMigration(t, name)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(content, directive) {
				t.Errorf("Migration file %s missing '%s' directive", name, directive)
			}
		}
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"products":      "00001_create_products_table.sql",
		"carts":         "00002_create_carts_table.sql",
		"cart_items":    "00003_create_cart_items_table.sql",
		"orders":        "00004_create_orders_table.sql",
		"order_items":   "00005_create_order_items_table.sql",
		"notifications": "00006_create_notifications_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		content := readMigration(t, migrationFile)

		if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(content, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestCartItemsTableEnforcesOneLinePerProduct(t *testing.T) {
	content := readMigration(t, "00003_create_cart_items_table.sql")

	if !strings.Contains(content, "UNIQUE (session_id, product_id)") {
		t.Error("cart_items missing unique constraint on (session_id, product_id)")
	}
	if !strings.Contains(content, "CHECK (quantity > 0)") {
		t.Error("cart_items must reject non-positive quantities")
	}
	if !strings.Contains(content, "ON DELETE CASCADE") {
		t.Error("cart_items must be removed with their cart")
	}
}

func TestOrderItemsSnapshotPrice(t *testing.T) {
	content := readMigration(t, "00005_create_order_items_table.sql")

	if !strings.Contains(content, "unit_price DECIMAL") {
		t.Error("order_items must store the unit price captured at checkout")
	}
	if strings.Contains(content, "REFERENCES products") {
		t.Error("order_items must not depend on the live catalog row")
	}
}

func TestOrdersTableHasStatusConstraint(t *testing.T) {
	content := readMigration(t, "00004_create_orders_table.sql")

	for _, status := range []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled"} {
		if !strings.Contains(content, "'"+status+"'") {
			t.Errorf("Orders table status constraint missing value: %s", status)
		}
	}
	if !strings.Contains(content, "order_number VARCHAR(32) UNIQUE") {
		t.Error("order numbers must be unique")
	}
}

func TestSeedIncludesStorefrontCatalog(t *testing.T) {
	content := readMigration(t, "00008_seed_products.sql")

	for _, product := range []string{"Black Stone", "Ocean Safari", "Red Sea", "Timeless"} {
		if !strings.Contains(content, "'"+product+"'") {
			t.Errorf("seed missing product %s", product)
		}
	}
}
