package database

import (
	"io/fs"
	"strings"
	"testing"

	"shopkeeper/migrations"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		t.Fatalf("Failed to read migration file %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_products_table.sql",
		"00003_create_sales_tables.sql",
		"00004_create_purchases_tables.sql",
		"00005_create_expenses_table.sql",
		"00006_create_updated_at_trigger.sql",
		"00007_add_purchase_item_name.sql",
	}

	for _, migration := range expectedMigrations {
		if _, err := fs.Stat(migrations.FS, migration); err != nil {
			t.Errorf("Migration file %s does not exist", migration)
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

	for _, file := range files {
		content := readMigration(t, file)
		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(content, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file, directive)
			}
		}
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":          "00001_create_users_table.sql",
		"products":       "00002_create_products_table.sql",
		"sales":          "00003_create_sales_tables.sql",
		"sale_items":     "00003_create_sales_tables.sql",
		"purchases":      "00004_create_purchases_tables.sql",
		"purchase_items": "00004_create_purchases_tables.sql",
		"expenses":       "00005_create_expenses_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		content := readMigration(t, migrationFile)

		if !strings.Contains(content, "CREATE TABLE IF NOT EXISTS "+tableName+" (") {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(content, "DROP TABLE IF EXISTS "+tableName+";") {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestProductsTableGuardsStock(t *testing.T) {
	content := readMigration(t, "00002_create_products_table.sql")

	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"cost_price NUMERIC",
		"selling_price NUMERIC",
		"stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"min_stock INTEGER NOT NULL DEFAULT 5",
		"created_at TIMESTAMPTZ",
		"updated_at TIMESTAMPTZ",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(content, column) {
			t.Errorf("Products table missing required column definition: %s", column)
		}
	}
}

func TestSaleItemsHaveNoProductForeignKey(t *testing.T) {
	content := readMigration(t, "00003_create_sales_tables.sql")

	if strings.Contains(content, "REFERENCES products") {
		t.Error("sale_items must not reference products: deleted products keep their sales history")
	}
	if !strings.Contains(content, "cost_price NUMERIC") {
		t.Error("sale_items missing cost price snapshot column")
	}
}

func TestExpensesTableHasCategoryConstraint(t *testing.T) {
	content := readMigration(t, "00005_create_expenses_table.sql")

	for _, category := range []string{"Rent", "Electricity", "Salary", "Transport", "Miscellaneous"} {
		if !strings.Contains(content, "'"+category+"'") {
			t.Errorf("Expenses table category constraint missing value: %s", category)
		}
	}
}

func TestPurchaseItemsKeepProductName(t *testing.T) {
	content := readMigration(t, "00007_add_purchase_item_name.sql")

	if !strings.Contains(content, "ALTER TABLE purchase_items ADD COLUMN IF NOT EXISTS name VARCHAR(255) NOT NULL") {
		t.Error("purchase_items missing product name snapshot column")
	}
	if !strings.Contains(content, "DROP COLUMN IF EXISTS name;") {
		t.Error("purchase_items name column is not dropped in down section")
	}
}
