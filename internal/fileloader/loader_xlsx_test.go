package fileloader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/solardesk/tariff-import/internal/domain"
)

// buildWorkbook writes rows into the first sheet of a fresh workbook and
// returns the serialized xlsx bytes.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestLoadSpreadsheet(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Sigla", "Subgrupo", "TUSD", "TE"},
		{"CEMIG", "B1", "0,45", "0,30"},
		{"CPFL", "A4", "0,20", "0,25"},
	})

	table, err := LoadSpreadsheet(bytes.NewReader(data), "tarifas.xlsx")
	require.NoError(t, err)

	assert.Equal(t, []string{"Sigla", "Subgrupo", "TUSD", "TE"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "CEMIG", table.Rows[0][0])
	assert.Equal(t, "0,25", table.Rows[1][3])
}

func TestLoadSpreadsheetHeaderOnly(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Sigla", "Subgrupo", "TUSD", "TE"},
	})

	_, err := LoadSpreadsheet(bytes.NewReader(data), "tarifas.xlsx")
	var emptyErr *domain.EmptyFileError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestLoadSpreadsheetGarbage(t *testing.T) {
	_, err := LoadSpreadsheet(bytes.NewReader([]byte("not an xlsx")), "tarifas.xlsx")
	var structErr *domain.StructuralFileError
	assert.ErrorAs(t, err, &structErr)
}
