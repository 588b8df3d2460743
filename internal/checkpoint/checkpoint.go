// Package checkpoint writes local CSV snapshots of normalized records.
// The snapshots let an operator inspect a crawl and recover records
// without re-downloading when a downstream sink fails.
package checkpoint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// Snapshot file names per record kind.
const (
	MedicineFile = "medicine_list.csv"
	HospitalFile = "hospital_list.csv"
	PharmacyFile = "pharmacy_list.csv"
)

// Writer persists record snapshots under a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("checkpoint directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Write snapshots every populated record kind of the result. Files for
// kinds the result does not carry are left untouched.
func (w *Writer) Write(result healthdata.CrawlResult) ([]string, error) {
	var written []string
	if len(result.Medicines) > 0 {
		path, err := w.writeMedicines(result.Medicines)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(result.Hospitals) > 0 {
		path, err := w.writeFacilities(HospitalFile, hospitalRows(result.Hospitals))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if len(result.Pharmacies) > 0 {
		path, err := w.writeFacilities(PharmacyFile, pharmacyRows(result.Pharmacies))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (w *Writer) writeMedicines(records []healthdata.MedicineRecord) (string, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"code", "name", "manufacturer", "dosage_form", "price", "valid_from", "valid_to"})
	for _, r := range records {
		rows = append(rows, []string{
			r.Code, r.Name, r.Manufacturer, r.DosageForm,
			strconv.FormatInt(r.Price, 10),
			formatDate(r.ValidFrom), formatDate(r.ValidTo),
		})
	}
	return w.writeFile(MedicineFile, rows)
}

func hospitalRows(records []healthdata.HospitalRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"code", "name", "address", "region_code", "type_code", "type_name"})
	for _, r := range records {
		rows = append(rows, []string{r.Code, r.Name, r.Address, r.RegionCode, r.TypeCode, r.TypeName})
	}
	return rows
}

func pharmacyRows(records []healthdata.PharmacyRecord) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"code", "name", "address", "region_code", "type_code", "type_name"})
	for _, r := range records {
		rows = append(rows, []string{r.Code, r.Name, r.Address, r.RegionCode, r.TypeCode, r.TypeName})
	}
	return rows
}

func (w *Writer) writeFacilities(name string, rows [][]string) (string, error) {
	return w.writeFile(name, rows)
}

// writeFile writes rows atomically: a temp file in the same directory
// is renamed over the target so a crash never leaves a half-written
// snapshot.
func (w *Writer) writeFile(name string, rows [][]string) (string, error) {
	tmp, err := os.CreateTemp(w.dir, name+".*")
	if err != nil {
		return "", fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close snapshot %s: %w", name, err)
	}

	target := filepath.Join(w.dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("replace snapshot %s: %w", name, err)
	}
	return target, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
