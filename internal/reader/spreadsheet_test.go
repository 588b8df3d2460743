package reader

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// buildSheet assembles an in-memory xlsx with the given rows.
func buildSheet(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestSpreadsheetReadHeaderAndRows(t *testing.T) {
	t.Parallel()

	body := buildSheet(t, [][]any{
		{"품목기준코드", "제품명", "업체명"},
		{"195700020", "아스피린정", "바이엘코리아"},
		{"200808876", "타이레놀정", "한국얀센"},
	})

	r := NewSpreadsheet(SpreadsheetConfig{Kind: healthdata.KindMedicine, KeyColumn: "품목기준코드"}, nil)
	tables, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "drugs.xlsx", Body: body})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Equal(t, healthdata.KindMedicine, tables[0].Kind)
	require.Len(t, tables[0].Rows, 2)
	require.Equal(t, "아스피린정", tables[0].Rows[0]["제품명"])
	require.Equal(t, "한국얀센", tables[0].Rows[1]["업체명"])
}

func TestSpreadsheetSkipsBlankAndKeylessRows(t *testing.T) {
	t.Parallel()

	body := buildSheet(t, [][]any{
		{"품목기준코드", "제품명"},
		{"1001", "첫째"},
		{"", "키 없는 행"},
		{"", ""},
		{"1002", "둘째"},
		{"", ""},
	})

	r := NewSpreadsheet(SpreadsheetConfig{Kind: healthdata.KindMedicine, KeyColumn: "품목기준코드"}, nil)
	tables, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "drugs.xlsx", Body: body})
	require.NoError(t, err)

	rows := tables[0].Rows
	require.Len(t, rows, 2, "blank and keyless rows are formatting artifacts, not data")
	require.Equal(t, "첫째", rows[0]["제품명"])
	require.Equal(t, "둘째", rows[1]["제품명"])
}

func TestSpreadsheetShortRowsPadded(t *testing.T) {
	t.Parallel()

	body := buildSheet(t, [][]any{
		{"코드", "이름", "주소"},
		{"A1", "서울병원"},
	})

	r := NewSpreadsheet(SpreadsheetConfig{Kind: healthdata.KindHospital, KeyColumn: "코드"}, nil)
	tables, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "hospitals.xlsx", Body: body})
	require.NoError(t, err)
	require.Len(t, tables[0].Rows, 1)
	require.Equal(t, "", tables[0].Rows[0]["주소"])
}

func TestSpreadsheetRejectsGarbage(t *testing.T) {
	t.Parallel()

	r := NewSpreadsheet(SpreadsheetConfig{Kind: healthdata.KindMedicine}, nil)
	_, err := r.Read(t.Context(), healthdata.RawArtifact{Name: "broken.xlsx", Body: []byte("not an xlsx")})
	require.Error(t, err)
}
