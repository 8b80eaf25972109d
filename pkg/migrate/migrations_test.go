package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/db/models"
	"github.com/loussodesigns/opts/pkg/migrate"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestCustomersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_customers.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS customers",
		"CONSTRAINT customers_email_key UNIQUE (email)",
		"CONSTRAINT customers_register_token_key UNIQUE (register_token)",
		"DROP TABLE IF EXISTS customers",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationCascadesChildren(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE TABLE IF NOT EXISTS order_milestones",
		"CREATE TABLE IF NOT EXISTS order_items",
		"CREATE TABLE IF NOT EXISTS order_specs",
		"CHECK (status IN ('not_started', 'in_progress', 'completed'))",
		"UNIQUE (order_id, stage_number)",
		"DROP TABLE IF EXISTS order_specs",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
	if got := strings.Count(content, "REFERENCES orders(order_id) ON DELETE CASCADE"); got != 3 {
		t.Errorf("expected 3 cascading child tables, got %d", got)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Order Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_order_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestMigrationFileNameUsesUTCVersion(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("EST", -5*3600))
	name, err := migrate.MigrationFileName("  Élan  Spec Columns ", at)
	require.NoError(t, err)
	require.Equal(t, "20260304100607_elan_spec_columns.sql", name)

	_, err = migrate.MigrationFileName("!!!", at)
	require.Error(t, err)
}

func TestValidateDirRejectsBrokenFiles(t *testing.T) {
	cases := map[string]string{
		"20260101000000_bad name.sql":   "-- +goose Up\n-- +goose Down\n",
		"20260101000000_reversed.sql":   "-- +goose Down\n-- +goose Up\n",
		"20260101000000_unbalanced.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		require.Error(t, migrate.ValidateDir(dir), name)
	}
}

func TestAutoMigrateModelsOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	client := db.NewWithConn(conn)

	require.NoError(t, migrate.AutoMigrateModels(context.Background(), client))
	for _, model := range []any{&models.Customer{}, &models.Order{}, &models.OrderMilestone{}, &models.OrderItem{}, &models.OrderSpec{}} {
		require.True(t, conn.Migrator().HasTable(model))
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file found for %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestParseVersion(t *testing.T) {
	v, err := migrate.ParseVersion("20260105140500")
	require.NoError(t, err)
	require.Equal(t, int64(20260105140500), v)

	for _, raw := range []string{"", "2026", "2026010514050x", "-0260105140500"} {
		_, err := migrate.ParseVersion(raw)
		require.Error(t, err, raw)
	}
}

func TestDirection(t *testing.T) {
	require.Equal(t, "up", migrate.Direction(20260105140000, 20260105140500))
	require.Equal(t, "down", migrate.Direction(20260105140500, 20260105140000))
	require.Equal(t, "", migrate.Direction(20260105140500, 20260105140500))
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = migrate.Run(context.Background(), sqlDB, "migrations", "fix")
	require.ErrorContains(t, err, "unsupported migration command")
}
