package checkpoint

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriteMedicineSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	result := healthdata.CrawlResult{
		Medicines: []healthdata.MedicineRecord{
			{
				Code: "645102220", Name: "타이레놀정500mg", Manufacturer: "한국얀센",
				DosageForm: "정제", Price: 1250,
				ValidFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	written, err := w.Write(result)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != MedicineFile {
		t.Fatalf("written = %v", written)
	}

	rows := readCSV(t, written[0])
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	want := []string{"645102220", "타이레놀정500mg", "한국얀센", "정제", "1250", "2024-03-01", ""}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Errorf("cell %d = %q, want %q", i, rows[1][i], cell)
		}
	}
}

func TestWriteFacilitySnapshots(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	result := healthdata.CrawlResult{
		Hospitals:  []healthdata.HospitalRecord{{Code: "H1", Name: "서울중앙병원", Address: "서울"}},
		Pharmacies: []healthdata.PharmacyRecord{{Code: "P1", Name: "우리약국"}, {Code: "P2", Name: "참약국"}},
	}
	written, err := w.Write(result)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("written = %v", written)
	}

	if rows := readCSV(t, filepath.Join(dir, HospitalFile)); len(rows) != 2 || rows[1][1] != "서울중앙병원" {
		t.Errorf("hospital snapshot rows = %v", rows)
	}
	if rows := readCSV(t, filepath.Join(dir, PharmacyFile)); len(rows) != 3 {
		t.Errorf("pharmacy snapshot rows = %v", rows)
	}
	if _, err := os.Stat(filepath.Join(dir, MedicineFile)); !os.IsNotExist(err) {
		t.Errorf("medicine snapshot should not exist, stat err = %v", err)
	}
}

func TestWriteReplacesPreviousSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	first := healthdata.CrawlResult{Medicines: []healthdata.MedicineRecord{{Code: "A"}, {Code: "B"}}}
	if _, err := w.Write(first); err != nil {
		t.Fatalf("Write: %v", err)
	}
	second := healthdata.CrawlResult{Medicines: []healthdata.MedicineRecord{{Code: "C"}}}
	if _, err := w.Write(second); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows := readCSV(t, filepath.Join(dir, MedicineFile))
	if len(rows) != 2 || rows[1][0] != "C" {
		t.Errorf("snapshot not replaced: %v", rows)
	}
}
