package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/filenest/filenest/apperr"
	"github.com/filenest/filenest/models"
	"github.com/filenest/filenest/storage"
)

func newTestFileService(t *testing.T, db *gorm.DB) (*FileService, storage.BlobStore) {
	t.Helper()
	blobs := newTestBlobs(t)
	return NewFileService(db, blobs, NewQuotaLedger(db), MimeDetector{}), blobs
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestFileRoundTrip(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "alice", 1<<20)

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 100)...)
	err := files.AddBatch(context.Background(), account, []Incoming{{Filename: "pic.png", Data: data}})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), account.StorageUsage)

	record, got, err := files.Get(context.Background(), account, "pic.png")
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "png", record.Filetype)
	assert.Equal(t, int64(len(data)), record.Size)
}

func TestFileBatchOrderAndListing(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "bob", 1<<20)

	err := files.AddBatch(context.Background(), account, []Incoming{
		{Filename: "b.txt", Data: []byte("second")},
		{Filename: "a.txt", Data: []byte("first")},
	})
	require.NoError(t, err)

	records, err := files.List(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a.txt", records[0].Filename)
	assert.Equal(t, "b.txt", records[1].Filename)
}

func TestFileDuplicateName(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "carol", 1<<20)

	original := []byte("original contents")
	require.NoError(t, files.AddBatch(context.Background(), account, []Incoming{{Filename: "notes.txt", Data: original}}))

	err := files.AddBatch(context.Background(), account, []Incoming{{Filename: "notes.txt", Data: []byte("other")}})
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// The original survives untouched and no quota leaked.
	_, got, err := files.Get(context.Background(), account, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, original, got)
	assert.Equal(t, int64(len(original)), reload(t, db, account.ID).StorageUsage)
}

func TestFileSameNameDifferentAccounts(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	alice := newTestAccount(t, db, "alice2", 1<<20)
	bob := newTestAccount(t, db, "bob2", 1<<20)

	require.NoError(t, files.AddBatch(context.Background(), alice, []Incoming{{Filename: "report.txt", Data: []byte("alice's")}}))
	require.NoError(t, files.AddBatch(context.Background(), bob, []Incoming{{Filename: "report.txt", Data: []byte("bob's")}}))

	_, got, err := files.Get(context.Background(), bob, "report.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("bob's"), got)
}

func TestFileZeroLengthRejectsBatch(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "dave", 1<<20)

	err := files.AddBatch(context.Background(), account, []Incoming{
		{Filename: "good.txt", Data: []byte("fine")},
		{Filename: "empty.txt", Data: nil},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	// Nothing from the batch was admitted, not even the valid file.
	records, err := files.List(context.Background(), account)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int64(0), reload(t, db, account.ID).StorageUsage)
}

func TestFileEmptyBatch(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "erin", 1<<20)

	err := files.AddBatch(context.Background(), account, nil)
	require.Error(t, err)
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}

// A batch that runs out of quota midway keeps the files committed before the
// failure. Partial success is the documented contract.
func TestFileBatchPartialCommit(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "frank", 100)

	err := files.AddBatch(context.Background(), account, []Incoming{
		{Filename: "first.bin", Data: bytes.Repeat([]byte{1}, 60)},
		{Filename: "second.bin", Data: bytes.Repeat([]byte{2}, 60)},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.LowStorage, apperr.KindOf(err))

	records, err := files.List(context.Background(), account)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "first.bin", records[0].Filename)
	assert.Equal(t, int64(60), reload(t, db, account.ID).StorageUsage)
}

func TestFileQuotaFreedByRemove(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "grace", 100)

	payload := bytes.Repeat([]byte{7}, 60)
	require.NoError(t, files.AddBatch(context.Background(), account, []Incoming{{Filename: "big.bin", Data: payload}}))

	err := files.AddBatch(context.Background(), account, []Incoming{{Filename: "big2.bin", Data: payload}})
	require.Error(t, err)
	assert.Equal(t, apperr.LowStorage, apperr.KindOf(err))

	require.NoError(t, files.Remove(context.Background(), account, "big.bin"))
	assert.Equal(t, int64(0), account.StorageUsage)

	require.NoError(t, files.AddBatch(context.Background(), account, []Incoming{{Filename: "big2.bin", Data: payload}}))
}

func TestFileRemove(t *testing.T) {
	db := newTestDB(t)
	files, blobs := newTestFileService(t, db)
	account := newTestAccount(t, db, "heidi", 1<<20)

	require.NoError(t, files.AddBatch(context.Background(), account, []Incoming{{Filename: "gone.txt", Data: []byte("bye")}}))
	require.NoError(t, files.Remove(context.Background(), account, "gone.txt"))

	_, _, err := files.Get(context.Background(), account, "gone.txt")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))

	_, err = blobs.Read(account.UUID, "gone.txt")
	assert.ErrorIs(t, err, storage.ErrNotExist)

	// Removing again is NotFound, not an internal error.
	err = files.Remove(context.Background(), account, "gone.txt")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

// A record without a blob is corruption, not absence. It must surface as an
// internal error so it is never mistaken for a deleted file.
func TestFileRecordWithoutBlob(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "ivan", 1<<20)

	record := models.FileRecord{AccountID: account.ID, Filename: "ghost.txt", Filetype: "txt", Size: 5}
	require.NoError(t, db.Create(&record).Error)

	_, _, err := files.Get(context.Background(), account, "ghost.txt")
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))
}

func TestFileMissingFilename(t *testing.T) {
	db := newTestDB(t)
	files, _ := newTestFileService(t, db)
	account := newTestAccount(t, db, "judy", 1<<20)

	_, _, err := files.Get(context.Background(), account, "")
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))

	err = files.AddBatch(context.Background(), account, []Incoming{{Filename: "", Data: []byte("x")}})
	assert.Equal(t, apperr.BadRequest, apperr.KindOf(err))
}
