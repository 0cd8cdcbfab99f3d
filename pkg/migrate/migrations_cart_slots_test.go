package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/pkg/migrate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCartSlotsMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_cart_slots.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no cart slots migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_slots",
		"PRIMARY KEY (scope, name)",
		"CREATE INDEX IF NOT EXISTS idx_cart_slots_updated_at",
		"DROP TABLE IF EXISTS cart_slots",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestDialect(t *testing.T) {
	cases := map[string]string{"postgres": "postgres", "SQLite": "sqlite3"}
	for backend, want := range cases {
		got, err := migrate.Dialect(backend)
		if err != nil {
			t.Fatalf("dialect %s: %v", backend, err)
		}
		if got != want {
			t.Fatalf("dialect %s: expected %s got %s", backend, want, got)
		}
	}
	if _, err := migrate.Dialect("redis"); err == nil {
		t.Fatalf("expected redis to have no migration dialect")
	}
}

func TestUpEmbeddedCreatesCartSlots(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migrate.UpEmbedded(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("up embedded: %v", err)
	}
	if !conn.Migrator().HasTable("cart_slots") {
		t.Fatal("expected cart_slots table after migrating")
	}
	// Re-running is a no-op.
	if err := migrate.UpEmbedded(context.Background(), sqlDB, "sqlite"); err != nil {
		t.Fatalf("second up embedded: %v", err)
	}
}
