// Package normalizer converts raw parsed rows into canonical records.
//
// Each source publishes its own column headers, so normalization is
// driven by a fixed per-source field map. Rows that fail type coercion
// are reported as RowErrors and skipped instead of aborting the batch,
// and duplicate identifying codes collapse to a single record.
package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// dateLayouts are the date formats seen across the portals.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006.01.02",
	"2006/01/02",
}

// Options controls normalization behavior.
type Options struct {
	// KeepLast makes a later duplicate replace the earlier record.
	// The default keeps the first occurrence.
	KeepLast bool
}

// Normalizer maps RawTables to canonical record batches.
type Normalizer struct {
	opts Options
}

func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Batch is the outcome of normalizing one RawTable. Exactly one of the
// record slices is populated, matching Kind.
type Batch struct {
	Kind       healthdata.RecordKind
	Medicines  []healthdata.MedicineRecord
	Hospitals  []healthdata.HospitalRecord
	Pharmacies []healthdata.PharmacyRecord
	RowErrors  []healthdata.RowError
	Duplicates []healthdata.DuplicateKeyWarning
}

// Len reports how many records survived normalization.
func (b Batch) Len() int {
	return len(b.Medicines) + len(b.Hospitals) + len(b.Pharmacies)
}

// Normalize converts every row of the table using the field map for
// the given source. Rows with a missing code or uncoercible values are
// recorded as RowErrors; rows repeating an earlier code are recorded
// as Duplicates. The same input always yields the same output.
func (n *Normalizer) Normalize(table healthdata.RawTable, source healthdata.SourceKind) (Batch, error) {
	fields, ok := MappingFor(source, table.Kind)
	if !ok {
		return Batch{}, fmt.Errorf("normalizer: no field map for source %q kind %q", source, table.Kind)
	}

	batch := Batch{Kind: table.Kind}
	seen := make(map[string]int, len(table.Rows))

	for i, row := range table.Rows {
		line := i + 1
		code := strings.TrimSpace(row[fields[attrCode]])
		if code == "" {
			batch.RowErrors = append(batch.RowErrors, healthdata.RowError{
				Line:  line,
				Field: attrCode,
				Value: row[fields[attrCode]],
				Err:   fmt.Errorf("missing identifying code"),
			})
			continue
		}

		var (
			med     healthdata.MedicineRecord
			hosp    healthdata.HospitalRecord
			pharm   healthdata.PharmacyRecord
			rowErrs []healthdata.RowError
		)
		switch table.Kind {
		case healthdata.KindMedicine:
			med, rowErrs = n.medicine(code, line, row, fields)
		case healthdata.KindHospital:
			hosp = facilityHospital(code, row, fields)
		case healthdata.KindPharmacy:
			pharm = facilityPharmacy(code, row, fields)
		default:
			return Batch{}, fmt.Errorf("normalizer: unsupported record kind %q", table.Kind)
		}
		if len(rowErrs) > 0 {
			batch.RowErrors = append(batch.RowErrors, rowErrs...)
			continue
		}

		if prev, dup := seen[code]; dup {
			batch.Duplicates = append(batch.Duplicates, healthdata.DuplicateKeyWarning{Key: code, Line: line})
			if n.opts.KeepLast {
				switch table.Kind {
				case healthdata.KindMedicine:
					batch.Medicines[prev] = med
				case healthdata.KindHospital:
					batch.Hospitals[prev] = hosp
				case healthdata.KindPharmacy:
					batch.Pharmacies[prev] = pharm
				}
			}
			continue
		}

		switch table.Kind {
		case healthdata.KindMedicine:
			seen[code] = len(batch.Medicines)
			batch.Medicines = append(batch.Medicines, med)
		case healthdata.KindHospital:
			seen[code] = len(batch.Hospitals)
			batch.Hospitals = append(batch.Hospitals, hosp)
		case healthdata.KindPharmacy:
			seen[code] = len(batch.Pharmacies)
			batch.Pharmacies = append(batch.Pharmacies, pharm)
		}
	}
	return batch, nil
}

func (n *Normalizer) medicine(code string, line int, row healthdata.RawRow, fields FieldMap) (healthdata.MedicineRecord, []healthdata.RowError) {
	rec := healthdata.MedicineRecord{
		Code:         code,
		Name:         strings.TrimSpace(row[fields[attrName]]),
		Manufacturer: strings.TrimSpace(row[fields[attrManufacturer]]),
		DosageForm:   strings.TrimSpace(row[fields[attrDosageForm]]),
	}
	var errs []healthdata.RowError

	if col, ok := fields[attrPrice]; ok {
		raw := row[col]
		price, err := parsePrice(raw)
		if err != nil {
			errs = append(errs, healthdata.RowError{Line: line, Field: attrPrice, Value: raw, Err: err})
		} else {
			rec.Price = price
		}
	}
	if col, ok := fields[attrValidFrom]; ok {
		raw := row[col]
		t, err := parseDate(raw)
		if err != nil {
			errs = append(errs, healthdata.RowError{Line: line, Field: attrValidFrom, Value: raw, Err: err})
		} else {
			rec.ValidFrom = t
		}
	}
	if col, ok := fields[attrValidTo]; ok {
		raw := row[col]
		t, err := parseDate(raw)
		if err != nil {
			errs = append(errs, healthdata.RowError{Line: line, Field: attrValidTo, Value: raw, Err: err})
		} else {
			rec.ValidTo = t
		}
	}
	return rec, errs
}

func facilityHospital(code string, row healthdata.RawRow, fields FieldMap) healthdata.HospitalRecord {
	return healthdata.HospitalRecord{
		Code:       code,
		Name:       strings.TrimSpace(row[fields[attrName]]),
		Address:    strings.TrimSpace(row[fields[attrAddress]]),
		RegionCode: strings.TrimSpace(row[fields[attrRegionCode]]),
		TypeCode:   strings.TrimSpace(row[fields[attrTypeCode]]),
		TypeName:   strings.TrimSpace(row[fields[attrTypeName]]),
	}
}

func facilityPharmacy(code string, row healthdata.RawRow, fields FieldMap) healthdata.PharmacyRecord {
	return healthdata.PharmacyRecord{
		Code:       code,
		Name:       strings.TrimSpace(row[fields[attrName]]),
		Address:    strings.TrimSpace(row[fields[attrAddress]]),
		RegionCode: strings.TrimSpace(row[fields[attrRegionCode]]),
		TypeCode:   strings.TrimSpace(row[fields[attrTypeCode]]),
		TypeName:   strings.TrimSpace(row[fields[attrTypeName]]),
	}
}

// parsePrice coerces a localized amount like "1,250" to an integer
// number of won. An empty cell means no listed price.
func parsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not a monetary amount: %w", err)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %d", v)
	}
	return v, nil
}

// parseDate tries each layout the portals use. An empty cell yields
// the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
