package fetcher

import (
	"net/http"
	"testing"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

func headerWith(disposition string) http.Header {
	h := http.Header{}
	h.Set("Content-Disposition", disposition)
	return h
}

func TestFilenameFromHeadersPlain(t *testing.T) {
	t.Parallel()

	got := FilenameFromHeaders(headerWith(`attachment; filename="list.xlsx"`))
	if got != "list.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestFilenameFromHeadersPercentEncoded(t *testing.T) {
	t.Parallel()

	got := FilenameFromHeaders(headerWith(`attachment; filename="%EC%9D%98%EC%95%BD%ED%92%88.xls"`))
	if got != "의약품.xls" {
		t.Fatalf("got %q", got)
	}
}

func TestFilenameFromHeadersLatin1Mangled(t *testing.T) {
	t.Parallel()

	// UTF-8 bytes of 약제 read back as Latin-1 runes, the way net/http
	// hands over non-ASCII header bytes.
	raw := []byte("약제급여목록표.xlsx")
	mangled := make([]rune, len(raw))
	for i, b := range raw {
		mangled[i] = rune(b)
	}

	got := FilenameFromHeaders(headerWith(`attachment; filename="` + string(mangled) + `"`))
	if got != "약제급여목록표.xlsx" {
		t.Fatalf("got %q", got)
	}
}

func TestFilenameFromHeadersEUCKR(t *testing.T) {
	t.Parallel()

	encoded, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte("병원정보.zip"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	mangled := make([]rune, len(encoded))
	for i, b := range encoded {
		mangled[i] = rune(b)
	}

	got := FilenameFromHeaders(headerWith(`attachment; filename="` + string(mangled) + `"`))
	if got != "병원정보.zip" {
		t.Fatalf("got %q", got)
	}
}

func TestFilenameFromHeadersMissing(t *testing.T) {
	t.Parallel()

	if got := FilenameFromHeaders(http.Header{}); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
	if got := FilenameFromHeaders(headerWith("attachment")); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
