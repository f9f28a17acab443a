package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrn/ptouch/internal/clock"
	"github.com/orrn/ptouch/internal/db"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) (*db.Store, []string) {
	t.Helper()
	store, err := db.Open(db.Config{Path: filepath.Join(t.TempDir(), "ptouch.db")}, db.WithClock(clock.Fake(epoch)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	var ids []string
	for i, state := range []string{db.StateCompleted, db.StateTimedOut, db.StatePolling} {
		j := &db.PrintJob{PrinterName: "desk", PrinterURI: "ipp://desk.local/ipp/print", TapeWidth: 12}
		require.NoError(t, store.CreateJob(ctx, j))
		require.NoError(t, store.UpdateJobState(ctx, j.ID, db.JobUpdate{State: state, IPPJobID: i + 1}))
		ids = append(ids, j.ID)
	}
	return store, ids
}

func newTestArchiver(t *testing.T, store Store, passphrase string, now time.Time) *Archiver {
	t.Helper()
	a, err := NewArchiver(store, Config{Path: t.TempDir(), Days: 30, Passphrase: passphrase}, WithClock(clock.Fake(now)))
	require.NoError(t, err)
	a.workFactor = 10
	return a
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		suffix     string
	}{
		{name: "plain", suffix: ".jsonl.zst"},
		{name: "encrypted", passphrase: "correct horse", suffix: ".jsonl.zst.age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, ids := seedStore(t)
			ctx := context.Background()
			a := newTestArchiver(t, store, tt.passphrase, epoch.AddDate(0, 0, 31))

			record, err := a.Run(ctx)
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, 2, record.JobCount)
			assert.Equal(t, tt.passphrase != "", record.Encrypted)
			assert.Equal(t, "archive_2024_04_01_090000"+tt.suffix, record.ArchiveFile)

			jobs, err := a.Read(record.ArchiveFile)
			require.NoError(t, err)
			require.Len(t, jobs, 2)
			assert.ElementsMatch(t, ids[:2], []string{jobs[0].ID, jobs[1].ID})

			for _, id := range ids[:2] {
				_, err := store.GetJob(ctx, id)
				assert.ErrorIs(t, err, db.ErrNotFound)
			}
			_, err = store.GetJob(ctx, ids[2])
			assert.NoError(t, err)

			archives, err := store.ListArchives(ctx, 10, 0)
			require.NoError(t, err)
			require.Len(t, archives, 1)
			assert.Equal(t, record.ArchiveFile, archives[0].ArchiveFile)

			files, err := a.List()
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, tt.passphrase != "", files[0].Encrypted)
			assert.Positive(t, files[0].Size)
		})
	}
}

func TestRunNothingToArchive(t *testing.T) {
	store, _ := seedStore(t)
	a := newTestArchiver(t, store, "", epoch.AddDate(0, 0, 5))

	record, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)

	files, err := a.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReadEncryptedWithoutPassphrase(t *testing.T) {
	store, _ := seedStore(t)
	a := newTestArchiver(t, store, "s3cret", epoch.AddDate(0, 0, 31))

	record, err := a.Run(context.Background())
	require.NoError(t, err)

	reader := newTestArchiver(t, store, "", epoch)
	_, err = reader.Read(filepath.Join(a.path, record.ArchiveFile))
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	wrong := newTestArchiver(t, store, "nope", epoch)
	_, err = wrong.Read(filepath.Join(a.path, record.ArchiveFile))
	assert.Error(t, err)
}

func TestListSkipsForeignFiles(t *testing.T) {
	a := newTestArchiver(t, nil, "", epoch)
	for _, name := range []string{"notes.txt", "archive_x.db", ".archive-123", "archive_2024_01_01_000000.jsonl.zst"} {
		require.NoError(t, os.WriteFile(filepath.Join(a.path, name), []byte("x"), 0o644))
	}

	files, err := a.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0].Filename, "archive_2024"))
}

type failingStore struct {
	*db.Store
}

func (failingStore) RecordArchive(context.Context, *db.Archive, []string) error {
	return errors.New("disk I/O error")
}

func TestRunRemovesUnrecordedArchive(t *testing.T) {
	store, ids := seedStore(t)
	ctx := context.Background()
	a := newTestArchiver(t, failingStore{store}, "", epoch.AddDate(0, 0, 31))

	record, err := a.Run(ctx)
	require.Error(t, err)
	assert.Nil(t, record)

	entries, err := os.ReadDir(a.path)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, id := range ids {
		_, err := store.GetJob(ctx, id)
		assert.NoError(t, err)
	}
}
