package jobs

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checklistapi/models"
	"checklistapi/services"
)

type fakeUploader struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (u *fakeUploader) UploadSnapshot(ctx context.Context, name string, data []byte) (*services.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return nil, u.err
	}
	u.names = append(u.names, name)
	return &services.UploadResult{FileName: name, Size: int64(len(data))}, nil
}

func (u *fakeUploader) uploads() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.names...)
}

func newTestStore(t *testing.T) services.ChecklistStore {
	t.Helper()
	store, err := services.NewJSONStore(services.JSONStoreOptions{Path: filepath.Join(t.TempDir(), "checklists.json")})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), &models.Checklist{Name: "Trip"})
	require.NoError(t, err)
	return store
}

func TestSnapshotJob_RunOnce(t *testing.T) {
	uploader := &fakeUploader{}
	job := NewSnapshotJob(newTestStore(t), uploader, time.Hour)
	job.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, job.RunOnce(context.Background()))
	assert.Equal(t, []string{"snapshots/checklists-20240501T120000Z.json"}, uploader.uploads())
}

func TestSnapshotJob_RunOnceError(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unavailable")}
	job := NewSnapshotJob(newTestStore(t), uploader, time.Hour)

	assert.EqualError(t, job.RunOnce(context.Background()), "bucket unavailable")
}

func TestSnapshotJob_StartStopsOnCancel(t *testing.T) {
	uploader := &fakeUploader{}
	job := NewSnapshotJob(newTestStore(t), uploader, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(uploader.uploads()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot job did not stop")
	}
}

func TestSnapshotJob_Ticks(t *testing.T) {
	uploader := &fakeUploader{}
	job := NewSnapshotJob(newTestStore(t), uploader, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartSnapshotJob(ctx, job)

	assert.Eventually(t, func() bool { return len(uploader.uploads()) >= 3 }, 5*time.Second, 10*time.Millisecond)
}
