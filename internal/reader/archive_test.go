package reader

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func buildZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func facilitySheet(t *testing.T, code, name string) []byte {
	return buildSheet(t, [][]any{
		{"암호화요양기호", "요양기관명", "주소"},
		{code, name, "서울특별시 종로구"},
	})
}

func facilityPatterns() []MemberPattern {
	return []MemberPattern{
		{Match: "병원정보서비스", Kind: healthdata.KindHospital, KeyColumn: "암호화요양기호"},
		{Match: "약국정보서비스", Kind: healthdata.KindPharmacy, KeyColumn: "암호화요양기호"},
	}
}

func TestArchiveReadsMatchingMembers(t *testing.T) {
	t.Parallel()

	body := buildZip(t, map[string][]byte{
		"1.병원정보서비스 2024.12.xlsx": facilitySheet(t, "H0001", "서울대학교병원"),
		"2.약국정보서비스 2024.12.xlsx": facilitySheet(t, "P0001", "온누리약국"),
		"readme.txt":               []byte("ignore me"),
	})

	r := NewArchive(ArchiveConfig{Patterns: facilityPatterns()}, nil)
	defer r.Cleanup()

	tables, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "opendata.zip", Body: body})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.Equal(t, healthdata.KindHospital, tables[0].Kind)
	require.Equal(t, "서울대학교병원", tables[0].Rows[0]["요양기관명"])
	require.Equal(t, healthdata.KindPharmacy, tables[1].Kind)
	require.Equal(t, "온누리약국", tables[1].Rows[0]["요양기관명"])

	extracted := r.Extracted()
	require.Len(t, extracted, 2)
	for _, path := range extracted {
		_, err := os.Stat(path)
		require.NoError(t, err, "extracted member should exist until Cleanup")
	}

	members := r.Members()
	require.Len(t, members, 2)
	require.Equal(t, "1.병원정보서비스 2024.12.xlsx", members[0].Name)
	require.Equal(t, "2.약국정보서비스 2024.12.xlsx", members[1].Name)

	// Member bodies stay usable after the temp files are gone, so they
	// can still be handed to object storage.
	r.Cleanup()
	for _, m := range members {
		require.NotEmpty(t, m.Body)
	}
}

func TestArchiveCleanupRemovesTempFiles(t *testing.T) {
	t.Parallel()

	body := buildZip(t, map[string][]byte{
		"1.병원정보서비스.xlsx": facilitySheet(t, "H0001", "부산의료원"),
	})

	r := NewArchive(ArchiveConfig{Patterns: facilityPatterns()}, nil)
	_, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "opendata.zip", Body: body})
	require.NoError(t, err)

	extracted := r.Extracted()
	require.NotEmpty(t, extracted)
	r.Cleanup()

	for _, path := range extracted {
		_, err := os.Stat(path)
		require.True(t, os.IsNotExist(err), "expected %s to be removed", path)
	}
}

func TestArchiveUnexpectedLayout(t *testing.T) {
	t.Parallel()

	body := buildZip(t, map[string][]byte{
		"surprise.csv": []byte("a,b"),
	})

	r := NewArchive(ArchiveConfig{Patterns: facilityPatterns()}, nil)
	defer r.Cleanup()

	_, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "opendata.zip", Body: body})
	var layout *healthdata.UnexpectedArchiveLayoutError
	require.ErrorAs(t, err, &layout)
	require.Equal(t, "opendata.zip", layout.Archive)
	require.Contains(t, layout.Members, "surprise.csv")
}

func TestArchivePickOverridesPrecedence(t *testing.T) {
	t.Parallel()

	body := buildZip(t, map[string][]byte{
		"1.병원정보서비스 v1.xlsx": facilitySheet(t, "H0001", "첫번째업로드"),
		"1.병원정보서비스 v2.xlsx": facilitySheet(t, "H0001", "재업로드"),
	})

	// Default: first member in archive order wins.
	first := NewArchive(ArchiveConfig{Patterns: facilityPatterns()}, nil)
	defer first.Cleanup()
	tables, err := first.Read(t.Context(), healthdata.RawArtifact{Name: "opendata.zip", Body: body})
	require.NoError(t, err)
	require.Len(t, tables, 1)

	// Override: pick the lexically last (revised) member.
	last := NewArchive(ArchiveConfig{
		Patterns: facilityPatterns(),
		Pick: func(matches []string) string {
			best := matches[0]
			for _, m := range matches[1:] {
				if m > best {
					best = m
				}
			}
			return best
		},
	}, nil)
	defer last.Cleanup()
	tables, err = last.Read(t.Context(), healthdata.RawArtifact{Name: "opendata.zip", Body: body})
	require.NoError(t, err)
	require.Equal(t, "재업로드", tables[0].Rows[0]["요양기관명"])
}

func TestDecodeMemberNameEUCKR(t *testing.T) {
	t.Parallel()

	// 병원 in EUC-KR bytes, as legacy archives store member names.
	raw := string([]byte{0xBA, 0xB4, 0xBF, 0xF8}) + ".xlsx"
	require.Equal(t, "병원.xlsx", decodeMemberName(raw))

	// Valid UTF-8 passes through untouched.
	require.Equal(t, "약국.xlsx", decodeMemberName("약국.xlsx"))
}

func TestArchiveRejectsGarbage(t *testing.T) {
	t.Parallel()

	r := NewArchive(ArchiveConfig{Patterns: facilityPatterns()}, nil)
	_, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "broken.zip", Body: []byte("not a zip")})
	require.Error(t, err)
	require.False(t, errors.As(err, new(*healthdata.UnexpectedArchiveLayoutError)))
}
