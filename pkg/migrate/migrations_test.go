package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/staffstore-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	embedded := migrate.EmbeddedFS()
	require.NoError(t, migrate.ValidateFS(embedded))

	names, err := fs.Glob(embedded, "*.sql")
	require.NoError(t, err)
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	assert.Len(t, names, len(onDisk))
}

func TestValidateFSRejects(t *testing.T) {
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	cases := map[string]fstest.MapFS{
		"empty":      {},
		"bad name":   {"create_things.sql": {Data: body}},
		"duplicate":  {"20250101000000_a.sql": {Data: body}, "20250101000000_b.sql": {Data: body}},
		"no down":    {"20250101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
		"unbalanced": {"20250101000000_a.sql": {Data: append([]byte("-- +goose StatementBegin\n"), body...)}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, migrate.ValidateFS(fsys))
		})
	}
}

func TestVariantMigrationGuardsStock(t *testing.T) {
	content := readMigration(t, "*_create_product_variants_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS product_variants",
		"PRIMARY KEY (product_id, size, color)",
		"FOREIGN KEY (product_id) REFERENCES products(product_id) ON DELETE CASCADE",
		"CHECK (stock >= 0)",
		"DROP TABLE IF EXISTS product_variants",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationIsDenormalized(t *testing.T) {
	content := readMigration(t, "*_create_orders_table.sql")

	for _, column := range []string{"product_name TEXT NOT NULL", "total NUMERIC(12,2) NOT NULL", "employee_code TEXT NOT NULL", "CHECK (quantity > 0)"} {
		if !strings.Contains(content, column) {
			t.Errorf("missing expected column %q", column)
		}
	}
	if strings.Contains(content, "REFERENCES products") {
		t.Errorf("orders must not reference products; ledger rows outlive catalog edits")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no migration matching %s", pattern)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}
