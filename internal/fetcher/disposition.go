package fetcher

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

var dispositionFilename = regexp.MustCompile(`filename\*?=['"]?(?:UTF-8'')?([^'";\n]+)`)

// FilenameFromHeaders recovers the download filename from a
// Content-Disposition header. The portals serve Korean filenames that
// arrive percent-encoded, raw UTF-8 bytes smuggled through Latin-1, or
// EUC-KR, so each repair is tried in turn.
func FilenameFromHeaders(h http.Header) string {
	disposition := h.Get("Content-Disposition")
	if disposition == "" {
		return ""
	}
	match := dispositionFilename.FindStringSubmatch(disposition)
	if match == nil {
		return ""
	}
	name := strings.Trim(match[1], `"`)

	if strings.Contains(name, "%") {
		if unquoted, err := url.QueryUnescape(name); err == nil {
			name = unquoted
		}
	}
	return repairEncoding(name)
}

// repairEncoding undoes the Latin-1 mangling net/http applies to non-ASCII
// header bytes, falling back to EUC-KR for legacy portals.
func repairEncoding(s string) string {
	raw, ok := latin1Bytes(s)
	if !ok {
		return s
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, err := DecodeEUCKR(raw); err == nil {
		return decoded
	}
	return s
}

// latin1Bytes maps each rune back to the single byte it arrived as.
// Returns false when the string holds runes that never fit one byte.
func latin1Bytes(s string) ([]byte, bool) {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return nil, false
		}
		b = append(b, byte(r))
	}
	return b, true
}

// DecodeEUCKR converts EUC-KR (or its CP949 superset) bytes to UTF-8.
func DecodeEUCKR(b []byte) (string, error) {
	decoded, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
