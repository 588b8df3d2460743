package reader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

const markupFixture = `
<article id="resultMoreTable">
<table id="tbl_pro">
  <tr><th>사진</th><th>제품명</th><th>성분</th></tr>
  <tr>
    <td class="img"><img src="/images/img_empty3.jpg"></td>
    <td class="txtL" onclick="drug_detailHref('2018061800005')">가스모틴정</td>
    <td>모사프리드</td>
    <td>위장관 운동 촉진</td>
    <td>대웅제약</td>
    <td>전문</td>
    <td>정제</td>
    <td>전문의약품</td>
    <td>급여</td>
    <td>동등</td>
  </tr>
  <tr>
    <td class="img"><img src="/images/drug/12345.jpg" onclick="show_idfypop('2019010100001')"></td>
    <td class="txtL">가나칸정</td>
    <td>이토프리드</td>
    <td>소화불량</td>
    <td>제일약품</td>
    <td>전문</td>
    <td>정제</td>
    <td>전문의약품</td>
    <td>급여</td>
    <td>동등</td>
  </tr>
  <tr>
    <td class="img"><img src="/images/img_empty3.jpg"></td>
    <td class="txtL" onclick="drug_detailHref('2020020200002')">가레오액</td>
    <td>우루사데옥시콜산</td>
    <td>간기능 개선</td>
    <td>일동제약</td>
    <td>일반</td>
    <td>액제</td>
    <td>일반의약품</td>
    <td>비급여</td>
    <td>해당없음</td>
  </tr>
</table>
</article>`

func TestMarkupReadRows(t *testing.T) {
	t.Parallel()

	r := NewMarkup(nil)
	tables, err := r.Read(t.Context(), healthdata.RawArtifact{
		Name: "result_more.asp",
		Body: []byte(markupFixture),
	})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Equal(t, healthdata.KindMedicine, tables[0].Kind)

	rows := tables[0].Rows
	require.Len(t, rows, 3, "header row must be skipped")

	require.Equal(t, "2018061800005", rows[0]["code"])
	require.Equal(t, "가스모틴정", rows[0]["name"])
	require.Equal(t, "모사프리드", rows[0]["ingredient"])
	require.Equal(t, "", rows[0]["image"])

	// Code from the image onclick wins when present.
	require.Equal(t, "2019010100001", rows[1]["code"])
	require.Equal(t, "/images/drug/12345.jpg", rows[1]["image"])

	// Placeholder image is treated as no image.
	require.Equal(t, "2020020200002", rows[2]["code"])
	require.Equal(t, "", rows[2]["image"])
}

func TestMarkupRowCount(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, RowCount([]byte(markupFixture)))
	require.Equal(t, 0, RowCount([]byte("<table id=\"tbl_pro\"><tr><th>h</th></tr></table>")))
	require.Equal(t, 0, RowCount([]byte("no table at all")))
}

func TestMarkupEmptyFragment(t *testing.T) {
	t.Parallel()

	r := NewMarkup(nil)
	tables, err := r.Read(t.Context(), healthdata.RawArtifact{Body: []byte("<html><body></body></html>")})
	require.NoError(t, err)
	require.Empty(t, tables[0].Rows)
}

func TestDispatcherRoutesByKind(t *testing.T) {
	t.Parallel()

	d := Dispatcher{Markup: NewMarkup(nil)}

	tables, err := d.Read(t.Context(), healthdata.RawArtifact{
		Kind: healthdata.ArtifactMarkup,
		Body: []byte(markupFixture),
	})
	require.NoError(t, err)
	require.Len(t, tables[0].Rows, 3)

	_, err = d.Read(t.Context(), healthdata.RawArtifact{Kind: healthdata.ArtifactSpreadsheet})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "no spreadsheet reader"))

	_, err = d.Read(t.Context(), healthdata.RawArtifact{Kind: "pdf"})
	require.Error(t, err)
}
