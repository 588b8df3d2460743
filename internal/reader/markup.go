package reader

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// KoreanInitials are the consonant category markers the drug-information
// site groups its listing by. A full crawl pages through every one.
var KoreanInitials = []string{
	"ㄱ", "ㄴ", "ㄷ", "ㄹ", "ㅁ", "ㅂ", "ㅅ",
	"ㅇ", "ㅈ", "ㅊ", "ㅋ", "ㅌ", "ㅍ", "ㅎ",
}

// markupColumns are the positional field names of the result table, after
// the leading index cell is dropped.
var markupColumns = []string{
	"name", "ingredient", "effect", "company", "category",
	"form", "expert", "insurance", "bioequiv",
}

const emptyImagePath = "/images/img_empty3.jpg"

var (
	idfyPopPattern    = regexp.MustCompile(`show_idfypop\('(.+?)'\)`)
	detailHrefPattern = regexp.MustCompile(`drug_detailHref\('(.+?)'\)`)
)

// MarkupReader extracts medicine rows from one page of the
// drug-information site's search result fragment.
type MarkupReader struct {
	logger *zap.Logger
}

// NewMarkup builds a MarkupReader.
func NewMarkup(logger *zap.Logger) *MarkupReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkupReader{logger: logger}
}

// Read parses the fragment's result table into one raw table. Header rows
// (th cells) are skipped; the medicine code is recovered from the row's
// onclick handlers.
func (r *MarkupReader) Read(_ context.Context, artifact healthdata.RawArtifact) ([]healthdata.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(artifact.Body))
	if err != nil {
		return nil, fmt.Errorf("parse markup %q: %w", artifact.Name, err)
	}

	var rows []healthdata.RawRow
	doc.Find("table#tbl_pro tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("th").Length() > 0 {
			return
		}
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}

		row := healthdata.RawRow{
			"code":  extractCode(tr),
			"image": extractImage(tr),
		}
		// Drop the leading index cell, then map positionally.
		cells.Each(func(i int, td *goquery.Selection) {
			if i == 0 {
				return
			}
			if i-1 < len(markupColumns) {
				row[markupColumns[i-1]] = trimmedText(td)
			}
		})
		rows = append(rows, row)
	})

	return []healthdata.RawTable{{
		Kind:   healthdata.KindMedicine,
		Origin: artifact.SourceURL,
		Rows:   rows,
	}}, nil
}

// RowCount counts the data rows of a fragment without building RawRows.
// Pagination uses it to detect the short final page of a category.
func RowCount(body []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0
	}
	count := 0
	doc.Find("table#tbl_pro tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("th").Length() > 0 || tr.Find("td").Length() == 0 {
			return
		}
		count++
	})
	return count
}

func extractCode(tr *goquery.Selection) string {
	code := ""
	tr.Find("td.img img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		onclick, _ := img.Attr("onclick")
		if m := idfyPopPattern.FindStringSubmatch(onclick); m != nil {
			code = m[1]
			return false
		}
		return true
	})
	if code != "" {
		return code
	}
	tr.Find("td.txtL").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		onclick, _ := td.Attr("onclick")
		if m := detailHrefPattern.FindStringSubmatch(onclick); m != nil {
			code = m[1]
			return false
		}
		return true
	})
	return code
}

func extractImage(tr *goquery.Selection) string {
	src, ok := tr.Find("td.img img").Attr("src")
	if !ok || src == emptyImagePath {
		return ""
	}
	return src
}

func trimmedText(s *goquery.Selection) string {
	return collapseSpace(s.Text())
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}
