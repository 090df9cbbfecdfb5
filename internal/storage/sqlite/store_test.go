package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/platform/db"
	"leadtrack/internal/storage/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) tracking.Store {
		ctx := context.Background()
		sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "leadtrack.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { sqlDB.Close() })
		if err := db.MigrateSQLite(ctx, sqlDB); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		return New(sqlDB)
	})
}
