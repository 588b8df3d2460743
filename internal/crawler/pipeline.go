// Package crawler runs the per-source acquisition pipelines. Each
// crawler walks the same stages: locate the newest artifact, fetch it,
// parse it into raw rows, and normalize the rows into canonical
// records. A run that reaches Done produces exactly one CrawlResult; a
// run that fails produces none.
package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/metrics"
	"github.com/sayouzone/sayou-healthcare/internal/normalizer"
)

// Crawler is one source-specific pipeline.
type Crawler interface {
	Source() healthdata.SourceKind
	Crawl(ctx context.Context) (healthdata.CrawlResult, error)
}

// Deps carries the collaborators every pipeline shares. Zero fields
// get production defaults.
type Deps struct {
	Logger     *zap.Logger
	Clock      healthdata.Clock
	IDs        healthdata.IDGenerator
	Normalizer *normalizer.Normalizer
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = systemClock{}
	}
	if d.IDs == nil {
		d.IDs = uuidGenerator{}
	}
	if d.Normalizer == nil {
		d.Normalizer = normalizer.New(normalizer.Options{})
	}
	return d
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type uuidGenerator struct{}

func (uuidGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate run ID: %w", err)
	}
	return id.String(), nil
}

// run tracks a single crawl through its stages.
type run struct {
	source  healthdata.SourceKind
	deps    Deps
	stage   healthdata.Stage
	started time.Time
	result  healthdata.CrawlResult
}

func newRun(source healthdata.SourceKind, deps Deps) (*run, error) {
	id, err := deps.IDs.NewID()
	if err != nil {
		return nil, &healthdata.StageError{Source: source, Stage: healthdata.StageIdle, Err: err}
	}
	now := deps.Clock.Now()
	r := &run{
		source:  source,
		deps:    deps,
		stage:   healthdata.StageIdle,
		started: now,
		result: healthdata.CrawlResult{
			Source:    source,
			RunID:     id,
			FetchedAt: now,
		},
	}
	deps.Logger.Info("crawl started",
		zap.String("source", string(source)),
		zap.String("run_id", id),
	)
	return r, nil
}

// enter moves the run to the next stage and logs the transition.
func (r *run) enter(stage healthdata.Stage) {
	r.deps.Logger.Debug("stage transition",
		zap.String("source", string(r.source)),
		zap.String("run_id", r.result.RunID),
		zap.String("from", string(r.stage)),
		zap.String("to", string(stage)),
	)
	r.stage = stage
}

// fail ends the run and wraps err with the stage it died in.
func (r *run) fail(err error) (healthdata.CrawlResult, error) {
	stageErr := &healthdata.StageError{Source: r.source, Stage: r.stage, Err: err}
	r.deps.Logger.Error("crawl failed",
		zap.String("source", string(r.source)),
		zap.String("run_id", r.result.RunID),
		zap.String("stage", string(r.stage)),
		zap.Error(err),
	)
	r.stage = healthdata.StageFailed
	metrics.ObserveCrawl(string(r.source), "failed", r.deps.Clock.Now().Sub(r.started))
	return healthdata.CrawlResult{}, stageErr
}

// finish ends the run successfully.
func (r *run) finish() (healthdata.CrawlResult, error) {
	r.stage = healthdata.StageDone
	elapsed := r.deps.Clock.Now().Sub(r.started)
	metrics.ObserveCrawl(string(r.source), "done", elapsed)
	r.deps.Logger.Info("crawl finished",
		zap.String("source", string(r.source)),
		zap.String("run_id", r.result.RunID),
		zap.Int("records", r.result.Records()),
		zap.Int("row_errors", len(r.result.RowErrors)),
		zap.Int("duplicates", len(r.result.Duplicates)),
		zap.Duration("elapsed", elapsed),
	)
	return r.result, nil
}

// retain keeps an artifact's bytes for object storage, hashed for the
// delivery record.
func (r *run) retain(artifact healthdata.RawArtifact) {
	sum := sha256.Sum256(artifact.Body)
	r.result.Artifacts = append(r.result.Artifacts, healthdata.RetainedArtifact{
		Name:        artifact.Name,
		ContentType: artifact.ContentType,
		Body:        artifact.Body,
		SHA256:      hex.EncodeToString(sum[:]),
	})
	metrics.ObserveArtifact(string(r.source))
}

// absorb folds a normalization batch into the result.
func (r *run) absorb(batch normalizer.Batch) {
	r.result.Medicines = append(r.result.Medicines, batch.Medicines...)
	r.result.Hospitals = append(r.result.Hospitals, batch.Hospitals...)
	r.result.Pharmacies = append(r.result.Pharmacies, batch.Pharmacies...)
	r.result.RowErrors = append(r.result.RowErrors, batch.RowErrors...)
	r.result.Duplicates = append(r.result.Duplicates, batch.Duplicates...)
	metrics.ObserveNormalization(string(r.source), string(batch.Kind),
		batch.Len(), len(batch.RowErrors), len(batch.Duplicates))
}
