package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlexZinkM/did-card/didcard"
	"github.com/AlexZinkM/did-card/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const refreshWorkerName = "RefreshCronWorker"

// Refresher reloads the record snapshot
type Refresher interface {
	Refresh(ctx context.Context) (model.Snapshot, error)
}

// RefreshWorker reloads records on a cron schedule while a session is ready
type RefreshWorker struct {
	refresher Refresher
	schedule  string
	cron      *cron.Cron
	log       *logrus.Logger
}

// NewRefreshWorker validates schedule; runs never overlap
func NewRefreshWorker(refresher Refresher, schedule string, log *logrus.Logger) (*RefreshWorker, error) {
	w := &RefreshWorker{
		refresher: refresher,
		schedule:  schedule,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		log:       log,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("failed to schedule refresh %q: %w", schedule, err)
	}
	return w, nil
}

// Name identifies the worker in logs
func (w *RefreshWorker) Name() string {
	return refreshWorkerName
}

// Start runs the schedule in the background
func (w *RefreshWorker) Start() {
	w.log.WithField("schedule", w.schedule).Info("starting " + refreshWorkerName)
	w.cron.Start()
}

// Stop stops scheduling and waits for a running refresh, or for ctx
func (w *RefreshWorker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (w *RefreshWorker) run() {
	snap, err := w.refresher.Refresh(context.Background())
	if err != nil {
		if errors.Is(err, didcard.ErrNotConnected) {
			w.log.Debug("scheduled refresh skipped: not connected")
			return
		}
		w.log.WithError(err).Warn("scheduled refresh failed")
		return
	}
	w.log.WithField("records", len(snap.Records)).Debug("scheduled refresh done")
}
