package jobs

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"checklistapi/services"
	"checklistapi/utils"
)

// SnapshotJob periodically uploads the checklist document to B2.
type SnapshotJob struct {
	store    services.ChecklistStore
	uploader services.SnapshotUploader
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

func NewSnapshotJob(store services.ChecklistStore, uploader services.SnapshotUploader, interval time.Duration) *SnapshotJob {
	return &SnapshotJob{
		store:    store,
		uploader: uploader,
		interval: interval,
		now:      time.Now,
		logger:   utils.Logger().WithPrefix("snapshot"),
	}
}

// Start uploads a snapshot immediately, then every interval until ctx is
// cancelled. It blocks; run it in its own goroutine.
func (j *SnapshotJob) Start(ctx context.Context) {
	j.logger.Info("Starting snapshot job", "interval", j.interval)

	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Snapshot job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce uploads one snapshot. Failures are logged and returned.
func (j *SnapshotJob) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	result, err := services.UploadDocumentSnapshot(ctx, j.store, j.uploader, j.now())
	if err != nil {
		j.logger.Error("Snapshot upload failed", "err", err)
		return err
	}

	j.logger.Info("Snapshot uploaded", "object", result.FileName, "bytes", result.Size, "sha1", result.SHA1)
	return nil
}

// StartSnapshotJob runs job in the background.
func StartSnapshotJob(ctx context.Context, job *SnapshotJob) {
	go job.Start(ctx)
}
