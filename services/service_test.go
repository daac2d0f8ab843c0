package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/storage"
	"github.com/filenest/filenest/utils"
)

func init() {
	utils.Logger = zap.NewNop()
	utils.Sugar = utils.Logger.Sugar()
}

// newTestDB opens a fresh in-memory sqlite database migrated with the three
// models. A single connection keeps the shared-cache database alive and
// serializes writers the same way production sqlite is configured.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.SessionToken{}, &models.FileRecord{}))
	return db
}

func newTestBlobs(t *testing.T) *storage.DiskStore {
	t.Helper()
	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return blobs
}

// newTestAccount inserts an account with the given quota and returns it.
func newTestAccount(t *testing.T, db *gorm.DB, username string, maxStorage int64) *models.Account {
	t.Helper()
	account := &models.Account{
		UUID:         uuid.NewString(),
		Username:     username,
		PasswordHash: "x",
		MaxStorage:   maxStorage,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func reload(t *testing.T, db *gorm.DB, id uint) *models.Account {
	t.Helper()
	var account models.Account
	require.NoError(t, db.First(&account, id).Error)
	return &account
}
