// Package deliver fans a finished crawl out to its sinks: local CSV
// checkpoints, object storage for the raw artifacts, the warehouse
// tables, and a completion event.
package deliver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/checkpoint"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// Deliverer pushes CrawlResults to the configured sinks.
type Deliverer struct {
	blobs       healthdata.BlobStore
	warehouse   healthdata.Warehouse
	checkpoints *checkpoint.Writer
	notifier    healthdata.Notifier
	logger      *zap.Logger
}

// New wires a Deliverer. Checkpoints and notifier may be nil when the
// deployment does not use them.
func New(blobs healthdata.BlobStore, wh healthdata.Warehouse, cp *checkpoint.Writer, notifier healthdata.Notifier, logger *zap.Logger) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deliverer{
		blobs:       blobs,
		warehouse:   wh,
		checkpoints: cp,
		notifier:    notifier,
		logger:      logger,
	}
}

// Receipt records where a result ended up.
type Receipt struct {
	Checkpoints []string
	ObjectURIs  []string
	Tables      []healthdata.RecordKind
	MessageID   string
}

// Event is the completion payload published after a delivery.
type Event struct {
	Source      healthdata.SourceKind   `json:"source"`
	RunID       string                  `json:"run_id"`
	FetchedAt   string                  `json:"fetched_at"`
	Records     int                     `json:"records"`
	Tables      []healthdata.RecordKind `json:"tables"`
	ObjectURIs  []string                `json:"object_uris,omitempty"`
	RowErrors   int                     `json:"row_errors"`
	Duplicates  int                     `json:"duplicates"`
}

// Deliver pushes the result to every configured sink. Checkpoints are
// written first so records survive locally if a remote sink fails.
func (d *Deliverer) Deliver(ctx context.Context, result healthdata.CrawlResult) (Receipt, error) {
	if !result.Valid() {
		return Receipt{}, fmt.Errorf("deliver: result is missing provenance (source=%q run=%q)", result.Source, result.RunID)
	}
	var receipt Receipt

	if d.checkpoints != nil {
		paths, err := d.checkpoints.Write(result)
		if err != nil {
			return receipt, fmt.Errorf("write checkpoints: %w", err)
		}
		receipt.Checkpoints = paths
	}

	for _, artifact := range result.Artifacts {
		path := objectPath(result, artifact)
		uri, err := d.blobs.PutObject(ctx, path, artifact.ContentType, artifact.Body)
		if err != nil {
			return receipt, fmt.Errorf("upload artifact %s: %w", artifact.Name, err)
		}
		d.logger.Info("artifact uploaded",
			zap.String("source", string(result.Source)),
			zap.String("uri", uri),
			zap.String("sha256", artifact.SHA256),
		)
		receipt.ObjectURIs = append(receipt.ObjectURIs, uri)
	}

	if err := d.load(ctx, result, &receipt); err != nil {
		return receipt, err
	}

	if d.notifier != nil {
		event := Event{
			Source:     result.Source,
			RunID:      result.RunID,
			FetchedAt:  result.FetchedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Records:    result.Records(),
			Tables:     receipt.Tables,
			ObjectURIs: receipt.ObjectURIs,
			RowErrors:  len(result.RowErrors),
			Duplicates: len(result.Duplicates),
		}
		id, err := d.notifier.Publish(ctx, event)
		if err != nil {
			return receipt, fmt.Errorf("publish completion event: %w", err)
		}
		receipt.MessageID = id
	}

	d.logger.Info("delivery finished",
		zap.String("source", string(result.Source)),
		zap.String("run_id", result.RunID),
		zap.Int("records", result.Records()),
		zap.Int("objects", len(receipt.ObjectURIs)),
		zap.Int("tables", len(receipt.Tables)),
	)
	return receipt, nil
}

func (d *Deliverer) load(ctx context.Context, result healthdata.CrawlResult, receipt *Receipt) error {
	if len(result.Medicines) > 0 {
		if err := d.warehouse.LoadMedicines(ctx, string(healthdata.KindMedicine), result.Medicines); err != nil {
			return fmt.Errorf("load medicines: %w", err)
		}
		receipt.Tables = append(receipt.Tables, healthdata.KindMedicine)
	}
	if len(result.Hospitals) > 0 {
		if err := d.warehouse.LoadHospitals(ctx, string(healthdata.KindHospital), result.Hospitals); err != nil {
			return fmt.Errorf("load hospitals: %w", err)
		}
		receipt.Tables = append(receipt.Tables, healthdata.KindHospital)
	}
	if len(result.Pharmacies) > 0 {
		if err := d.warehouse.LoadPharmacies(ctx, string(healthdata.KindPharmacy), result.Pharmacies); err != nil {
			return fmt.Errorf("load pharmacies: %w", err)
		}
		receipt.Tables = append(receipt.Tables, healthdata.KindPharmacy)
	}
	return nil
}

// objectPath shapes stable, date-partitioned object keys, e.g.
// "nedrug/2024/03/01/8f14e45f/drug_list.xls".
func objectPath(result healthdata.CrawlResult, artifact healthdata.RetainedArtifact) string {
	short := result.RunID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s/%s/%s/%s",
		result.Source,
		result.FetchedAt.UTC().Format("2006/01/02"),
		short,
		artifact.Name,
	)
}
