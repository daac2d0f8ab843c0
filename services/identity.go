package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/storage"
	"github.com/filenest/filenest/utils"
)

// RootUUID marks the bootstrap root account. It doubles as the root
// account's blob directory name, like every other account UUID.
const RootUUID = "00000000-0000-0000-0000-000000000000"

const rootPasswordLength = 15

// IdentityService manages accounts and their credentials.
type IdentityService struct {
	db                *gorm.DB
	blobs             storage.BlobStore
	defaultMaxStorage int64
	disableSignup     bool
}

func NewIdentityService(db *gorm.DB, blobs storage.BlobStore, defaultMaxStorage int64, disableSignup bool) *IdentityService {
	return &IdentityService{
		db:                db,
		blobs:             blobs,
		defaultMaxStorage: defaultMaxStorage,
		disableSignup:     disableSignup,
	}
}

// Register creates an account with the default quota and zero usage.
func (s *IdentityService) Register(ctx context.Context, username, password string) (*models.Account, error) {
	if s.disableSignup {
		return nil, apperr.New(apperr.Unauthorized, "sign up is disabled")
	}
	if username == "" || password == "" {
		return nil, apperr.New(apperr.BadRequest, "username and password are required")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to hash password", err)
	}

	account := models.Account{
		UUID:         uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		MaxStorage:   s.defaultMaxStorage,
		StorageUsage: 0,
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "username already taken")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to create account", err)
	}
	return &account, nil
}

// Authenticate verifies credentials. Unknown usernames and wrong passwords
// yield the same error so callers cannot enumerate accounts.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthorized, "username or password are invalid")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up account", err)
	}
	if !utils.CheckPassword(account.PasswordHash, password) {
		return nil, apperr.New(apperr.Unauthorized, "username or password are invalid")
	}
	return &account, nil
}

// BootstrapRoot creates the unlimited-quota root account on first run. The
// generated password is printed once to stderr and never stored in
// plaintext; subsequent runs are no-ops.
func (s *IdentityService) BootstrapRoot(ctx context.Context) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("username = ? AND uuid = ?", "root", RootUUID).
		Count(&count).Error
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to look up root account", err)
	}
	if count > 0 {
		return nil
	}

	password, err := utils.MakeToken(rootPasswordLength, true)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to generate root password", err)
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "failed to hash root password", err)
	}

	root := models.Account{
		UUID:         RootUUID,
		Username:     "root",
		PasswordHash: hash,
		MaxStorage:   models.UnlimitedStorage,
		StorageUsage: 0,
	}
	if err := s.db.WithContext(ctx).Create(&root).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "failed to create root account", err)
	}

	fmt.Fprintf(os.Stderr, `
╔═════════════════════════════╗
║ user: "root"                ║
║ password: %q ║
╚═════════════════════════════╝
`, password)
	fmt.Fprintln(os.Stderr, "Warning! The root account should only be used for administrative purposes.")
	fmt.Fprintln(os.Stderr, "If you forget the root password there is no way to recover it.")
	fmt.Fprintln(os.Stderr, "This message won't be shown again.")

	return nil
}

// RemoveAccount deletes the account, its session token, every file record,
// and the blob directory. Blobs go first: if their removal fails, the
// metadata is still intact and the operation can be retried; the reverse
// order could leave records pointing at deleted bytes.
func (s *IdentityService) RemoveAccount(ctx context.Context, account *models.Account) error {
	if err := s.blobs.RemoveAll(account.UUID); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to remove stored files", err)
	}

	if err := s.db.WithContext(ctx).Where("account_id = ?", account.ID).Delete(&models.FileRecord{}).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "failed to remove file records", err)
	}

	var token models.SessionToken
	err := s.db.WithContext(ctx).Where("account_id = ?", account.ID).First(&token).Error
	switch {
	case err == nil:
		utils.CacheDelete(sessionCacheKey(token.Token))
		if err := s.db.WithContext(ctx).Delete(&token).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "failed to remove session token", err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.Internal, "failed to look up session token", err)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Account{}, account.ID).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "failed to remove account", err)
	}
	return nil
}
