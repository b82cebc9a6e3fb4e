package store_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/hourbridge/internal/reconcile"
	"github.com/christopherklint97/hourbridge/internal/store"
)

var _ reconcile.Recorder = (*store.DB)(nil)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "nested", "hourbridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestState(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetState("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, db.SetState("k", "one"))
	require.NoError(t, db.SetState("k", "two"))
	v, err = db.GetState("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestCatalogRefreshed(t *testing.T) {
	db := openTestDB(t)

	_, ok, err := db.CatalogRefreshed()
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2019, 1, 1, 9, 30, 0, 0, time.FixedZone("", -7*3600))
	require.NoError(t, db.SetCatalogRefreshed(at))

	got, ok, err := db.CatalogRefreshed()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))
}

func TestRecordOutcome(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordOutcome("run-1", "2019-01-01", reconcile.Outcome{
		Index:          0,
		Status:         reconcile.UploadDone,
		Classification: reconcile.Classification{Status: reconcile.StatusValid, ProjectID: 123, TaskID: 15},
		Hours:          1.5,
		Notes:          "TEST-1 work",
	}))
	require.NoError(t, db.RecordOutcome("run-1", "2019-01-01", reconcile.Outcome{
		Index:          1,
		Status:         reconcile.UploadSkippedInvalid,
		Classification: reconcile.Classification{Status: reconcile.StatusMissingProject},
		Hours:          0.25,
		Notes:          "lunch",
		Err:            reconcile.ErrMissingLedgerProject,
	}))
	require.NoError(t, db.RecordOutcome("run-1", "2019-01-02", reconcile.Outcome{Status: reconcile.UploadDone}))

	uploads, err := db.UploadsForDay("2019-01-01")
	require.NoError(t, err)
	require.Len(t, uploads, 2)

	assert.Equal(t, "run-1", uploads[0].RunID)
	assert.Equal(t, "uploaded", uploads[0].Status)
	assert.Equal(t, int64(123), uploads[0].ProjectID)
	assert.Equal(t, int64(15), uploads[0].TaskID)
	assert.Equal(t, 1.5, uploads[0].Hours)
	assert.Empty(t, uploads[0].Error)
	assert.False(t, uploads[0].CreatedAt.IsZero())

	assert.Equal(t, 1, uploads[1].Index)
	assert.Equal(t, int64(0), uploads[1].ProjectID)
	assert.Equal(t, reconcile.ErrMissingLedgerProject.Error(), uploads[1].Error)
}

func TestFailedUploads_LatestAttemptWins(t *testing.T) {
	db := openTestDB(t)
	failed := reconcile.Outcome{Index: 0, Status: reconcile.UploadFailed, Err: errors.New("status 502")}

	require.NoError(t, db.RecordOutcome("run-1", "2019-01-01", failed))
	require.NoError(t, db.RecordOutcome("run-1", "2019-01-02", failed))
	require.NoError(t, db.RecordOutcome("run-2", "2019-01-01", reconcile.Outcome{Index: 0, Status: reconcile.UploadDone}))

	uploads, err := db.FailedUploads()
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "2019-01-02", uploads[0].Day)
	assert.Equal(t, "status 502", uploads[0].Error)
}
