package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ringmast4r/project147/internal/store"
	"github.com/ringmast4r/project147/internal/util"
	"github.com/ringmast4r/project147/pkg/chart"
	"github.com/ringmast4r/project147/pkg/dataset"
	"github.com/ringmast4r/project147/pkg/logger"
)

const (
	ExportQueue = "export_queue"

	// ExportTopicPrefix prefixes the status events published for exports,
	// e.g. "export.done".
	ExportTopicPrefix = "export."
	ReloadTopic       = "dataset.reload"
)

type ExportMsg struct {
	ExportID string `json:"export_id"`
}

// ExportEvent announces an export status change to the API servers.
type ExportEvent struct {
	ExportID string       `json:"export_id"`
	Status   store.Status `json:"status"`
	Error    string       `json:"error,omitempty"`
}

// ExportDocument is the file written for a finished export.
type ExportDocument struct {
	ID             string         `json:"id"`
	Chart          string         `json:"chart"`
	Filter         dataset.Filter `json:"filter"`
	DatasetVersion string         `json:"dataset_version"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Data           any            `json:"data"`
}

type ExportStore interface {
	Get(ctx context.Context, id string) (store.Export, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkDone(ctx context.Context, id, datasetVersion, objectKey string) error
	MarkFailed(ctx context.Context, id, reason string) error
	ResetStale(ctx context.Context, olderThan time.Duration) ([]string, error)
}

type Uploader interface {
	Put(ctx context.Context, key string, content []byte) error
}

// DepsFunc returns the chart inputs currently loaded and the dataset
// version they belong to.
type DepsFunc func(ctx context.Context) (chart.Deps, string, error)

type ExportProcessor struct {
	Store    ExportStore
	Uploader Uploader
	Deps     DepsFunc
	// Events is optional. Status changes are published on it as topics.
	Events Channel
}

func ExportKey(id string) string {
	return "exports/" + id + ".json"
}

// EnqueueExport queues an export for the workers.
func EnqueueExport(ch Channel, id string) error {
	body, err := json.Marshal(ExportMsg{ExportID: id})
	if err != nil {
		return err
	}
	return PublishFIFO(ch, ExportQueue, body)
}

func (p *ExportProcessor) announce(id string, status store.Status, reason string) {
	if p.Events == nil {
		return
	}
	body, err := json.Marshal(ExportEvent{ExportID: id, Status: status, Error: reason})
	if err != nil {
		return
	}
	if err := PublishTopic(p.Events, ExportTopicPrefix+string(status), body); err != nil {
		logger.Warn("[Export] Failed to publish status event", "export_id", id, "err", err)
	}
}

// Process builds and uploads one export. Messages for unknown or already
// finished exports, and exports that can never succeed, return nil so they
// are acknowledged. Any other error leaves the export failed and is meant
// to be retried.
func (p *ExportProcessor) Process(ctx context.Context, body []byte) error {
	var msg ExportMsg
	if err := json.Unmarshal(body, &msg); err != nil || msg.ExportID == "" {
		logger.Error("[Export] Dropping malformed message", "body", string(body), "err", err)
		return nil
	}
	id := msg.ExportID

	exp, err := p.Store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("[Export] Export no longer exists", "export_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	if err := p.Store.MarkProcessing(ctx, id); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			logger.Info("[Export] Export already handled", "export_id", id, "status", exp.Status)
			return nil
		}
		return err
	}
	p.announce(id, store.StatusProcessing, "")
	start := time.Now()

	fail := func(err error, permanent bool) error {
		logger.Error("[Export] Export failed", "export_id", id, "permanent", permanent, "err", err)
		if markErr := p.Store.MarkFailed(ctx, id, err.Error()); markErr != nil {
			logger.Error("[Export] Failed to mark export failed", "export_id", id, "err", markErr)
		}
		p.announce(id, store.StatusFailed, err.Error())
		if permanent {
			return nil
		}
		return err
	}

	if err := exp.Filter.Validate(); err != nil {
		return fail(err, true)
	}
	deps, version, err := p.Deps(ctx)
	if err != nil {
		return fail(err, false)
	}
	data, err := chart.Build(exp.Chart, deps, exp.Filter)
	if errors.Is(err, chart.ErrUnknownChart) {
		return fail(err, true)
	}
	if err != nil {
		return fail(err, false)
	}

	content, err := json.Marshal(ExportDocument{
		ID:             id,
		Chart:          exp.Chart,
		Filter:         exp.Filter,
		DatasetVersion: version,
		GeneratedAt:    time.Now().UTC(),
		Data:           data,
	})
	if err != nil {
		return fail(fmt.Errorf("encode export: %w", err), true)
	}

	key := ExportKey(id)
	if err := p.Uploader.Put(ctx, key, content); err != nil {
		return fail(err, false)
	}
	if err := p.Store.MarkDone(ctx, id, version, key); err != nil {
		return err
	}
	p.announce(id, store.StatusDone, "")
	logger.Info("[Export] Export finished", "export_id", id, "chart", exp.Chart,
		"bytes", len(content), "duration", util.FormatDuration(time.Since(start)))
	return nil
}

// RecoverStaleExports requeues exports stuck in processing, e.g. after a
// worker crash.
func RecoverStaleExports(ctx context.Context, ch Channel, s ExportStore, olderThan time.Duration) error {
	ids, err := s.ResetStale(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("failed to reset stale exports: %w", err)
	}
	if len(ids) == 0 {
		logger.Debug("[Queue] No stale exports found")
		return nil
	}

	logger.Info("[Queue] Found stale exports", "count", len(ids))
	for _, id := range ids {
		if err := EnqueueExport(ch, id); err != nil {
			logger.Error("[Queue] Failed to requeue export", "export_id", id, "err", err)
			continue
		}
		logger.Info("[Queue] Recovered stale export", "export_id", id)
	}
	return nil
}
