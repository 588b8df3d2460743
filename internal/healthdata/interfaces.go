package healthdata

import (
	"context"
	"time"
)

// FetchRequest captures everything needed to retrieve one remote resource.
type FetchRequest struct {
	URL string
	// Method defaults to GET when empty.
	Method string
	// Form carries application/x-www-form-urlencoded body fields for POST
	// requests; the portals here shape almost everything as form posts.
	Form map[string]string
	// Query is appended to the URL.
	Query map[string]string
	// Headers are merged over the fetcher's client profile.
	Headers map[string]string
	Referer string
}

// Fetcher retrieves a remote resource. Implementations perform network I/O
// only and never write to disk.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (RawArtifact, error)
}

// PageIterator walks a paginated listing lazily. Next issues the request
// for the following page; iteration is finite and restartable by asking
// the fetcher for a fresh iterator.
type PageIterator interface {
	Next(ctx context.Context) (RawPage, bool, error)
}

// FormatReader decodes a single artifact into raw tables. Readers are
// format-preserving: no type coercion happens here.
type FormatReader interface {
	Read(ctx context.Context, artifact RawArtifact) ([]RawTable, error)
}

// BlobStore writes a retained artifact and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Warehouse loads one table of normalized records as a full-replace unit.
type Warehouse interface {
	LoadMedicines(ctx context.Context, table string, records []MedicineRecord) error
	LoadHospitals(ctx context.Context, table string, records []HospitalRecord) error
	LoadPharmacies(ctx context.Context, table string, records []PharmacyRecord) error
	Close() error
}

// Notifier publishes a crawl-completion event.
type Notifier interface {
	Publish(ctx context.Context, payload any) (string, error)
	Close() error
}

// Clock returns the current time (swapped out in tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces crawl run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
