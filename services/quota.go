package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/models"
)

// QuotaLedger is the sole gatekeeper for admission of new bytes. Every
// change to an account's storage usage goes through Commit.
type QuotaLedger struct {
	db *gorm.DB
}

func NewQuotaLedger(db *gorm.DB) *QuotaLedger {
	return &QuotaLedger{db: db}
}

// Commit atomically adds delta bytes (positive on upload, negative on
// delete) to the account's storage usage. The quota guard lives inside the
// UPDATE itself, so concurrent commits for the same account cannot lose
// updates or oversubscribe: the database serializes the increments and a
// commit that would exceed max_storage matches zero rows.
func (q *QuotaLedger) Commit(ctx context.Context, accountID uint, delta int64) (*models.Account, error) {
	tx := q.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID)
	if delta > 0 {
		tx = tx.Where("max_storage = ? OR storage_usage + ? <= max_storage", models.UnlimitedStorage, delta)
	}

	res := tx.UpdateColumn("storage_usage", gorm.Expr("storage_usage + ?", delta))
	if res.Error != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to update storage usage", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the account is gone or the guard rejected the delta.
		var count int64
		if err := q.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
			return nil, apperr.Wrap(apperr.Internal, "failed to look up account", err)
		}
		if count == 0 {
			return nil, apperr.New(apperr.NotFound, "account not found")
		}
		return nil, apperr.New(apperr.LowStorage, "you don't have enough storage space")
	}

	var account models.Account
	if err := q.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "account not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to reload account", err)
	}
	return &account, nil
}
