package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/storage"
	"github.com/filenest/filenest/utils"
)

// Incoming is one file of an upload batch, fully materialized in memory.
type Incoming struct {
	Filename string
	Data     []byte
}

// FileService coordinates the metadata store, the blob store, and the quota
// ledger so the two stores never diverge. A file record exists if and only
// if its blob does; maintaining that is this service's central job.
type FileService struct {
	db     *gorm.DB
	blobs  storage.BlobStore
	quota  *QuotaLedger
	detect Detector
}

func NewFileService(db *gorm.DB, blobs storage.BlobStore, quota *QuotaLedger, detect Detector) *FileService {
	return &FileService{db: db, blobs: blobs, quota: quota, detect: detect}
}

// AddBatch stores the files of one upload request in submission order.
//
// A zero-length file anywhere in the batch rejects the whole batch before
// anything is admitted. After that, files are committed one by one; when a
// later file fails (quota, duplicate name), files already committed in this
// call stay committed. The batch is deliberately not transactional — partial
// success is the documented behavior, not an accident.
func (s *FileService) AddBatch(ctx context.Context, account *models.Account, batch []Incoming) error {
	if len(batch) == 0 {
		return apperr.New(apperr.BadRequest, "no files provided")
	}
	for _, in := range batch {
		if in.Filename == "" {
			return apperr.New(apperr.BadRequest, "missing filename")
		}
		if len(in.Data) == 0 {
			return apperr.New(apperr.BadRequest, "invalid file size")
		}
	}

	for _, in := range batch {
		if err := s.addOne(ctx, account, in); err != nil {
			return err
		}
	}
	return nil
}

// addOne admits one file: quota first, then blob, then record. The quota
// commit is the admission gate — because it is an atomic conditional update,
// later files in the batch (and concurrent requests for the same account)
// always see the cumulative usage, never a stale snapshot.
func (s *FileService) addOne(ctx context.Context, account *models.Account, in Incoming) error {
	size := int64(len(in.Data))

	updated, err := s.quota.Commit(ctx, account.ID, size)
	if err != nil {
		return err
	}
	account.StorageUsage = updated.StorageUsage

	if err := s.blobs.Create(account.UUID, in.Filename, in.Data); err != nil {
		s.releaseBytes(ctx, account, size)
		if errors.Is(err, storage.ErrExists) {
			return apperr.Newf(apperr.Conflict, "file %q already exists", in.Filename)
		}
		return apperr.Wrap(apperr.Internal, "failed to store file", err)
	}

	record := models.FileRecord{
		AccountID: account.ID,
		Filename:  in.Filename,
		Filetype:  s.detect.Detect(in.Data),
		Size:      size,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		// Keep the stores in lockstep: a blob without a record must not
		// survive this call.
		if rerr := s.blobs.Remove(account.UUID, in.Filename); rerr != nil && utils.Sugar != nil {
			utils.Sugar.Errorf("orphan blob %s/%s left behind: %v", account.UUID, in.Filename, rerr)
		}
		s.releaseBytes(ctx, account, size)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Newf(apperr.Conflict, "file %q already exists", in.Filename)
		}
		return apperr.Wrap(apperr.Internal, "failed to record file", err)
	}

	return nil
}

func (s *FileService) releaseBytes(ctx context.Context, account *models.Account, size int64) {
	if updated, err := s.quota.Commit(ctx, account.ID, -size); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("failed to release %d reserved bytes for account %d: %v", size, account.ID, err)
		}
	} else {
		account.StorageUsage = updated.StorageUsage
	}
}

// Get returns the file record and the full blob contents. A record whose
// blob is missing, or whose recorded size disagrees with the blob length, is
// a cross-store consistency violation and surfaces as an internal error —
// never as "not found".
func (s *FileService) Get(ctx context.Context, account *models.Account, filename string) (*models.FileRecord, []byte, error) {
	record, err := s.find(ctx, account, filename)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Read(account.UUID, filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil, apperr.Newf(apperr.Internal, "file %q has a record but no stored contents", filename)
		}
		return nil, nil, apperr.Wrap(apperr.Internal, "failed to read file", err)
	}
	if int64(len(data)) != record.Size {
		return nil, nil, apperr.Newf(apperr.Internal, "file %q stored size disagrees with its record", filename)
	}

	return record, data, nil
}

// Remove deletes the record, then the blob, then releases the bytes. The
// record goes first on purpose: a crash in between leaves an orphan blob
// (recoverable by a sweep) rather than a record pointing at nothing, which
// would corrupt reads.
func (s *FileService) Remove(ctx context.Context, account *models.Account, filename string) error {
	record, err := s.find(ctx, account, filename)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.FileRecord{}, record.ID).Error; err != nil {
		return apperr.Wrap(apperr.Internal, "failed to remove file record", err)
	}

	if err := s.blobs.Remove(account.UUID, filename); err != nil {
		return apperr.Wrap(apperr.Internal, "failed to remove stored file", err)
	}

	updated, err := s.quota.Commit(ctx, account.ID, -record.Size)
	if err != nil {
		return err
	}
	account.StorageUsage = updated.StorageUsage
	return nil
}

// List returns every file record of the account.
func (s *FileService) List(ctx context.Context, account *models.Account) ([]models.FileRecord, error) {
	var records []models.FileRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ?", account.ID).
		Order("filename").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to list files", err)
	}
	return records, nil
}

func (s *FileService) find(ctx context.Context, account *models.Account, filename string) (*models.FileRecord, error) {
	if filename == "" {
		return nil, apperr.New(apperr.BadRequest, "missing filename")
	}
	var record models.FileRecord
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND filename = ?", account.ID, filename).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "file %q not found", filename)
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to look up file", err)
	}
	return &record, nil
}
