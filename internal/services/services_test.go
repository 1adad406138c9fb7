package services_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"glyde/internal/db"
	"glyde/internal/services"
	"glyde/internal/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type testEnv struct {
	db    *gorm.DB
	svc   *services.Services
	clock *utils.StubClock
	path  string
}

func openTestDB(t *testing.T, path string) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glyde.db")
	gdb := openTestDB(t, path)
	clock := utils.NewStubClock()
	svc := services.New(gdb, services.Options{
		Clock:      clock,
		UploadDir:  filepath.Join(t.TempDir(), "uploads"),
		LoginDelay: 5 * time.Second,
	})
	return &testEnv{db: gdb, svc: svc, clock: clock, path: path}
}
