package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// BigQueryWarehouse replaces record tables in a BigQuery dataset. Each
// load truncates the destination table and streams the new rows in.
type BigQueryWarehouse struct {
	client  *bigquery.Client
	dataset string
}

// NewBigQuery creates a BigQuery-backed warehouse.
func NewBigQuery(ctx context.Context, projectID, dataset string) (*BigQueryWarehouse, error) {
	if projectID == "" || dataset == "" {
		return nil, fmt.Errorf("project ID and dataset are required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client init failed: %w", err)
	}
	return &BigQueryWarehouse{client: client, dataset: dataset}, nil
}

type medicineRow struct {
	Code         string    `bigquery:"code"`
	Name         string    `bigquery:"name"`
	Manufacturer string    `bigquery:"manufacturer"`
	DosageForm   string    `bigquery:"dosage_form"`
	Price        int64     `bigquery:"price"`
	ValidFrom    time.Time `bigquery:"valid_from"`
	ValidTo      time.Time `bigquery:"valid_to"`
}

type facilityRow struct {
	Code       string `bigquery:"code"`
	Name       string `bigquery:"name"`
	Address    string `bigquery:"address"`
	RegionCode string `bigquery:"region_code"`
	TypeCode   string `bigquery:"type_code"`
	TypeName   string `bigquery:"type_name"`
}

func (w *BigQueryWarehouse) LoadMedicines(ctx context.Context, table string, records []healthdata.MedicineRecord) error {
	rows := make([]medicineRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, medicineRow{
			Code:         r.Code,
			Name:         r.Name,
			Manufacturer: r.Manufacturer,
			DosageForm:   r.DosageForm,
			Price:        r.Price,
			ValidFrom:    r.ValidFrom,
			ValidTo:      r.ValidTo,
		})
	}
	return w.replace(ctx, table, rows)
}

func (w *BigQueryWarehouse) LoadHospitals(ctx context.Context, table string, records []healthdata.HospitalRecord) error {
	rows := make([]facilityRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, facilityRow{
			Code:       r.Code,
			Name:       r.Name,
			Address:    r.Address,
			RegionCode: r.RegionCode,
			TypeCode:   r.TypeCode,
			TypeName:   r.TypeName,
		})
	}
	return w.replace(ctx, table, rows)
}

func (w *BigQueryWarehouse) LoadPharmacies(ctx context.Context, table string, records []healthdata.PharmacyRecord) error {
	rows := make([]facilityRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, facilityRow{
			Code:       r.Code,
			Name:       r.Name,
			Address:    r.Address,
			RegionCode: r.RegionCode,
			TypeCode:   r.TypeCode,
			TypeName:   r.TypeName,
		})
	}
	return w.replace(ctx, table, rows)
}

func (w *BigQueryWarehouse) replace(ctx context.Context, table string, rows any) error {
	if err := w.truncate(ctx, table); err != nil {
		return err
	}
	inserter := w.client.Dataset(w.dataset).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert into %s.%s: %w", w.dataset, table, err)
	}
	return nil
}

func (w *BigQueryWarehouse) truncate(ctx context.Context, table string) error {
	q := w.client.Query(fmt.Sprintf("TRUNCATE TABLE `%s.%s`", w.dataset, table))
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("truncate %s.%s: %w", w.dataset, table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("truncate %s.%s: %w", w.dataset, table, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("truncate %s.%s: %w", w.dataset, table, err)
	}
	return nil
}

func (w *BigQueryWarehouse) Close() error {
	return w.client.Close()
}
