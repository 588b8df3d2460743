// Package healthdata defines core types shared across the acquisition pipeline.
package healthdata

import (
	"time"
)

// SourceKind identifies one crawl source variant.
type SourceKind string

// Source variants. HIRA runs two independent operations against the same
// portal, so each gets its own kind.
const (
	SourceNedrug       SourceKind = "nedrug"
	SourceHiraDownload SourceKind = "hira_download"
	SourceHiraOpenData SourceKind = "hira_opendata"
	SourceHealth       SourceKind = "health"
)

// RecordKind names a canonical record table.
type RecordKind string

// Warehouse table identifiers per record kind.
const (
	KindMedicine RecordKind = "medicine_data"
	KindHospital RecordKind = "hospital_data"
	KindPharmacy RecordKind = "pharmacy_data"
)

// Stage labels one step of the crawl state machine.
type Stage string

// Crawl stages in execution order.
const (
	StageIdle        Stage = "idle"
	StageLocating    Stage = "locating"
	StageFetching    Stage = "fetching"
	StageParsing     Stage = "parsing"
	StageNormalizing Stage = "normalizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// ArtifactKind tags the format of a downloaded artifact so readers can be
// selected without content sniffing.
type ArtifactKind string

// Supported artifact formats.
const (
	ArtifactSpreadsheet ArtifactKind = "spreadsheet"
	ArtifactArchive     ArtifactKind = "archive"
	ArtifactMarkup      ArtifactKind = "markup"
)

// RawArtifact is a downloaded file or HTML fragment before parsing.
type RawArtifact struct {
	Name        string
	ContentType string
	Kind        ArtifactKind
	Body        []byte
	SourceURL   string
}

// RawPage is one page of a paginated listing fetch.
type RawPage struct {
	Index int
	Body  []byte
	URL   string
}

// RawRow maps source column names to unparsed string values. Readers emit
// RawRows without any type coercion; the normalizer owns conversion.
type RawRow map[string]string

// RawTable groups the raw rows parsed from one artifact member together
// with the record kind they normalize into.
type RawTable struct {
	Kind   RecordKind
	Origin string
	Rows   []RawRow
}

// SourceDescriptor is one candidate entry scraped from a portal listing.
type SourceDescriptor struct {
	Filename    string
	PublishedAt time.Time
	// Handle is whatever the portal needs to download this entry: a board
	// posting number, an upload handler code, or a full URL.
	Handle string
}

// MedicineRecord is the canonical drug row. Code is the unique key.
type MedicineRecord struct {
	Code         string
	Name         string
	Manufacturer string
	DosageForm   string
	// Price is the insurance ceiling price in won; zero when the source
	// does not publish pricing.
	Price     int64
	ValidFrom time.Time
	ValidTo   time.Time
}

// HospitalRecord is the canonical hospital row. Code is the unique key.
type HospitalRecord struct {
	Code       string
	Name       string
	Address    string
	RegionCode string
	TypeCode   string
	TypeName   string
}

// PharmacyRecord is the canonical pharmacy row. Code is the unique key.
type PharmacyRecord struct {
	Code       string
	Name       string
	Address    string
	RegionCode string
	TypeCode   string
	TypeName   string
}

// RetainedArtifact references a raw download or extracted archive member
// kept for upload to object storage.
type RetainedArtifact struct {
	Name        string
	ContentType string
	Body        []byte
	SHA256      string
}

// CrawlResult is the output unit of a single crawl run. A Failed run
// produces no CrawlResult at all; a Done run carries exactly one, fully
// populated.
type CrawlResult struct {
	Source    SourceKind
	RunID     string
	FetchedAt time.Time
	// Origin is the originating file name or URL of the primary artifact.
	Origin string

	Medicines  []MedicineRecord
	Hospitals  []HospitalRecord
	Pharmacies []PharmacyRecord

	// RowErrors and Duplicates are the non-fatal per-row conditions
	// collected during normalization. They are reported even on success.
	RowErrors  []RowError
	Duplicates []DuplicateKeyWarning

	// Artifacts are the raw bytes retained for object storage.
	Artifacts []RetainedArtifact
	// ExtractedPaths are the temp-file paths of unpacked archive members.
	// The files themselves are removed before the run returns; the paths
	// stay as provenance.
	ExtractedPaths []string
}

// Records returns the record count across all kinds.
func (r CrawlResult) Records() int {
	return len(r.Medicines) + len(r.Hospitals) + len(r.Pharmacies)
}

// Tables lists the record kinds populated in this result.
func (r CrawlResult) Tables() []RecordKind {
	var kinds []RecordKind
	if len(r.Medicines) > 0 {
		kinds = append(kinds, KindMedicine)
	}
	if len(r.Hospitals) > 0 {
		kinds = append(kinds, KindHospital)
	}
	if len(r.Pharmacies) > 0 {
		kinds = append(kinds, KindPharmacy)
	}
	return kinds
}

// Valid reports whether the provenance invariants hold: a result with
// records must carry a source, run ID, and retrieval timestamp.
func (r CrawlResult) Valid() bool {
	if r.Source == "" || r.RunID == "" || r.FetchedAt.IsZero() {
		return false
	}
	return true
}
