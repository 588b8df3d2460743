package reader

import (
	"context"
	"fmt"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// Dispatcher routes artifacts to the reader matching their tagged kind,
// so no content sniffing or runtime type inspection is needed.
type Dispatcher struct {
	Spreadsheet *SpreadsheetReader
	Archive     *ArchiveReader
	Markup      *MarkupReader
}

// Read decodes the artifact with the strategy its kind tag selects.
func (d Dispatcher) Read(ctx context.Context, artifact healthdata.RawArtifact) ([]healthdata.RawTable, error) {
	switch artifact.Kind {
	case healthdata.ArtifactSpreadsheet:
		if d.Spreadsheet == nil {
			return nil, fmt.Errorf("no spreadsheet reader configured")
		}
		return d.Spreadsheet.Read(ctx, artifact)
	case healthdata.ArtifactArchive:
		if d.Archive == nil {
			return nil, fmt.Errorf("no archive reader configured")
		}
		return d.Archive.Read(ctx, artifact)
	case healthdata.ArtifactMarkup:
		if d.Markup == nil {
			return nil, fmt.Errorf("no markup reader configured")
		}
		return d.Markup.Read(ctx, artifact)
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", artifact.Kind)
	}
}
