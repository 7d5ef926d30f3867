package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/vouchergrid/internal/jobs"
	"github.com/odyssey-erp/vouchergrid/internal/lookup"
	"github.com/odyssey-erp/vouchergrid/internal/masterdata"
	"github.com/odyssey-erp/vouchergrid/internal/prefs"
	"github.com/odyssey-erp/vouchergrid/internal/voucher"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPrefPush mirrors a locally saved preference bag to the remote store.
	TaskPrefPush = "prefs:push"
	// TaskLookupWarm pre-populates the lookup cache for common prefixes.
	TaskLookupWarm = "lookup:warm"
)

// PrefPushPayload carries a preference bag to the remote mirror.
type PrefPushPayload struct {
	VoucherType voucher.VoucherType `json:"voucher_type"`
	Bag         prefs.Bag           `json:"bag"`
}

// NewPrefPushTask constructs an Asynq task for a preference push.
func NewPrefPushTask(payload PrefPushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPrefPush, data), nil
}

// NewPrefPushHandler returns a handler that writes pushed bags to the remote store.
func NewPrefPushHandler(remote prefs.Store, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskPrefPush)
		var payload PrefPushPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.VoucherType != voucher.TypeJournal && payload.VoucherType != voucher.TypeItem {
			return asynq.SkipRetry
		}
		if err := remote.Save(ctx, payload.VoucherType, payload.Bag); err != nil {
			logger.Warn("preference push failed",
				slog.String("voucher_type", string(payload.VoucherType)),
				slog.Any("error", err))
			return tracker.End(err)
		}
		return tracker.End(nil)
	}
}

// NewLookupWarmTask constructs the cache warmup task.
func NewLookupWarmTask() *asynq.Task {
	return asynq.NewTask(TaskLookupWarm, nil)
}

// NewLookupWarmHandler returns a handler that runs an empty-prefix search per
// entity kind through the cached source so first keystrokes hit warm entries.
func NewLookupWarmHandler(source lookup.Source, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskLookupWarm)
		for _, kind := range masterdata.Kinds() {
			if _, err := source.Search(ctx, kind, "", lookup.DefaultLimit); err != nil {
				logger.Warn("lookup warmup failed",
					slog.String("kind", string(kind)),
					slog.Any("error", err))
			}
		}
		return tracker.End(nil)
	}
}
