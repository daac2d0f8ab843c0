package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/config"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/utils"
)

const sessionCachePrefix = "session:"

func sessionCacheKey(token string) string {
	return sessionCachePrefix + token
}

// cachedSession is what Resolve stores in redis. Expiry is re-checked on
// every read so a cached entry can never outlive the token itself.
type cachedSession struct {
	Account   models.Account `json:"account"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// TokenService mints and resolves bearer tokens. Exactly one token is live
// per account: issuing a new one overwrites the row, so the old value stops
// resolving immediately.
type TokenService struct {
	db     *gorm.DB
	length int
	ttl    time.Duration
}

func NewTokenService(db *gorm.DB, cfg config.AppConfig) *TokenService {
	return &TokenService{
		db:     db,
		length: cfg.TokenLength,
		ttl:    time.Duration(cfg.TokenTTLHours) * time.Hour,
	}
}

// IssueOrRotate generates a fresh token for the account, inserting or
// overwriting its session row. The previous token's cache entry is dropped
// so the rotation takes effect everywhere at once.
func (s *TokenService) IssueOrRotate(ctx context.Context, account *models.Account) (string, error) {
	token, err := utils.MakeToken(s.length, false)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to generate token", err)
	}
	expiresAt := time.Now().Add(s.ttl)

	// Best-effort read of the current token so its cache entry can be
	// dropped after the rotation lands.
	var previous string
	var existing models.SessionToken
	err = s.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&existing).Error
	switch {
	case err == nil:
		previous = existing.Token
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return "", apperr.Wrap(apperr.Internal, "failed to look up session token", err)
	}

	// Upsert on account_id: concurrent logins for the same account race to
	// the same row and the last writer wins, which is rotation, not an error.
	row := models.SessionToken{
		Token:     token,
		AccountID: account.ID,
		ExpiresAt: expiresAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to store session token", err)
	}

	if previous != "" {
		utils.CacheDelete(sessionCacheKey(previous))
	}
	return token, nil
}

// Resolve maps a bearer token to its account. Expired or unknown tokens are
// Unauthorized. A redis cache fronts the database; a miss or an unreachable
// redis falls back to the store.
func (s *TokenService) Resolve(ctx context.Context, token string) (*models.Account, error) {
	if token == "" {
		return nil, apperr.New(apperr.Unauthorized, "invalid token")
	}

	if b, ok := utils.CacheGetBytes(sessionCacheKey(token)); ok {
		var cached cachedSession
		if err := json.Unmarshal(b, &cached); err == nil && time.Now().Before(cached.ExpiresAt) {
			account := cached.Account
			return &account, nil
		}
	}

	var row models.SessionToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "invalid token")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up session token", err)
	}
	if row.Expired(time.Now()) {
		return nil, apperr.New(apperr.Unauthorized, "token expired")
	}

	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, row.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "invalid token")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to load account", err)
	}

	ttl := time.Until(row.ExpiresAt)
	if ttl > 5*time.Minute {
		ttl = 5 * time.Minute
	}
	if ttl > 0 {
		utils.CacheSetJSON(sessionCacheKey(token), cachedSession{Account: account, ExpiresAt: row.ExpiresAt}, ttl)
	}

	return &account, nil
}
