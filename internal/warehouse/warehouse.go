// Package warehouse loads normalized record tables into an analytical
// store. Every load is a full-replace unit: the table ends up holding
// exactly the records of the latest successful crawl.
package warehouse

import (
	"context"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// NoopWarehouse discards every load. It backs the "noop" provider used
// in dry runs.
type NoopWarehouse struct{}

func NewNoop() NoopWarehouse { return NoopWarehouse{} }

func (NoopWarehouse) LoadMedicines(context.Context, string, []healthdata.MedicineRecord) error {
	return nil
}

func (NoopWarehouse) LoadHospitals(context.Context, string, []healthdata.HospitalRecord) error {
	return nil
}

func (NoopWarehouse) LoadPharmacies(context.Context, string, []healthdata.PharmacyRecord) error {
	return nil
}

func (NoopWarehouse) Close() error { return nil }
