package reader

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/fetcher"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// MemberPattern maps an expected archive member name fragment to the
// record kind its sheet normalizes into.
type MemberPattern struct {
	// Match is a substring of the decoded member filename, e.g.
	// "병원정보서비스" for the hospital extract.
	Match     string
	Kind      healthdata.RecordKind
	KeyColumn string
}

// ArchiveConfig controls ZIP unpacking.
type ArchiveConfig struct {
	Patterns []MemberPattern
	// Pick selects among multiple members matching one pattern. Portals
	// have been seen to re-upload revised extracts inside one archive, so
	// the precedence is configurable; the default keeps the first member
	// in archive order.
	Pick func(matches []string) string
}

// ExtractedMember is one unpacked archive member, kept in memory so the
// crawl can hand it to the object-storage sink after the temp dir is gone.
type ExtractedMember struct {
	Name string
	Path string
	Body []byte
}

// ArchiveReader unpacks a ZIP artifact, writes matching members to a
// run-scoped temp directory, and delegates each to the spreadsheet reader.
type ArchiveReader struct {
	cfg    ArchiveConfig
	logger *zap.Logger

	tempDir string
	members []ExtractedMember
}

// NewArchive builds an ArchiveReader.
func NewArchive(cfg ArchiveConfig, logger *zap.Logger) *ArchiveReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Pick == nil {
		cfg.Pick = func(matches []string) string { return matches[0] }
	}
	return &ArchiveReader{cfg: cfg, logger: logger}
}

// Read unpacks the archive and returns one raw table per matched member.
// Fails with UnexpectedArchiveLayoutError when no member matches any
// configured pattern.
func (r *ArchiveReader) Read(ctx context.Context, artifact healthdata.RawArtifact) ([]healthdata.RawTable, error) {
	zr, err := zip.NewReader(bytes.NewReader(artifact.Body), int64(len(artifact.Body)))
	if err != nil {
		return nil, fmt.Errorf("open archive %q: %w", artifact.Name, err)
	}

	members := map[string]*zip.File{}
	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := decodeMemberName(f.Name)
		members[name] = f
		names = append(names, name)
	}

	var tables []healthdata.RawTable
	matchedAny := false
	for _, pattern := range r.cfg.Patterns {
		var matches []string
		for _, name := range names {
			if strings.Contains(name, pattern.Match) {
				matches = append(matches, name)
			}
		}
		if len(matches) == 0 {
			continue
		}
		matchedAny = true
		picked := r.cfg.Pick(matches)

		body, path, err := r.extract(members[picked], picked)
		if err != nil {
			return nil, err
		}
		r.members = append(r.members, ExtractedMember{Name: picked, Path: path, Body: body})

		sheet := NewSpreadsheet(SpreadsheetConfig{Kind: pattern.Kind, KeyColumn: pattern.KeyColumn}, r.logger)
		memberTables, err := sheet.Read(ctx, healthdata.RawArtifact{
			Name: picked,
			Kind: healthdata.ArtifactSpreadsheet,
			Body: body,
		})
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", picked, err)
		}
		tables = append(tables, memberTables...)
	}

	if !matchedAny {
		return nil, &healthdata.UnexpectedArchiveLayoutError{Archive: artifact.Name, Members: names}
	}
	return tables, nil
}

// Extracted returns the temp-file paths of unpacked members, in pattern order.
func (r *ArchiveReader) Extracted() []string {
	paths := make([]string, 0, len(r.members))
	for _, m := range r.members {
		paths = append(paths, m.Path)
	}
	return paths
}

// Members returns the unpacked members themselves, in pattern order. The
// bodies stay valid after Cleanup removes the temp files.
func (r *ArchiveReader) Members() []ExtractedMember {
	return append([]ExtractedMember(nil), r.members...)
}

// Cleanup removes the temp directory and everything in it. Callers must
// run it on every exit path of a crawl.
func (r *ArchiveReader) Cleanup() {
	if r.tempDir == "" {
		return
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		r.logger.Warn("remove archive temp dir", zap.String("dir", r.tempDir), zap.Error(err))
	}
	r.tempDir = ""
}

func (r *ArchiveReader) extract(member *zip.File, name string) ([]byte, string, error) {
	rc, err := member.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open member %q: %w", name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, "", fmt.Errorf("read member %q: %w", name, err)
	}

	if r.tempDir == "" {
		dir, err := os.MkdirTemp("", "sayou-archive-")
		if err != nil {
			return nil, "", fmt.Errorf("create temp dir: %w", err)
		}
		r.tempDir = dir
	}
	path := filepath.Join(r.tempDir, filepath.Base(name))
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return nil, "", fmt.Errorf("write member %q: %w", name, err)
	}
	return body, path, nil
}

// decodeMemberName repairs Korean member filenames. Legacy portal archives
// store names as EUC-KR bytes, which arrive undecoded from archive/zip.
func decodeMemberName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	if decoded, err := fetcher.DecodeEUCKR([]byte(name)); err == nil {
		return decoded
	}
	return name
}
