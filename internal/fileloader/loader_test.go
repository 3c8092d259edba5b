package fileloader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solardesk/tariff-import/internal/domain"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCommaDelimited(t *testing.T) {
	path := writeTempFile(t, "tarifas.csv",
		"Sigla,Subgrupo,TUSD,TE\nCEMIG,B1,\"0,45\",\"0,30\"\nCPFL,A4,\"0,20\",\"0,25\"\n")

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sigla", "Subgrupo", "TUSD", "TE"}, table.Headers)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "0,45", table.Rows[0][2])
	assert.Equal(t, "tarifas.csv", table.SourceFile)
}

func TestLoadSemicolonDelimited(t *testing.T) {
	path := writeTempFile(t, "tarifas.csv",
		"Sigla;Subgrupo;TUSD;TE\nCEMIG;B1;0,45;0,30\n")

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sigla", "Subgrupo", "TUSD", "TE"}, table.Headers)
	require.Len(t, table.Rows, 1)
	// Comma stays inside the cell when the file is semicolon delimited.
	assert.Equal(t, "0,45", table.Rows[0][2])
}

func TestLoadQuotedDelimiterInsideField(t *testing.T) {
	path := writeTempFile(t, "tarifas.csv",
		"Sigla,Distribuidora,Subgrupo\nCEMIG,\"CEMIG Distribuição, S.A.\",B1\n")

	table, err := Load(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "CEMIG Distribuição, S.A.", table.Rows[0][1])
}

func TestLoadStripsUTF8BOM(t *testing.T) {
	path := writeTempFile(t, "tarifas.csv",
		"\xEF\xBB\xBFSigla,Subgrupo\nCEMIG,B1\n")

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Sigla", table.Headers[0])
}

func TestLoadSkipsLeadingBlankRows(t *testing.T) {
	path := writeTempFile(t, "tarifas.csv",
		",,\n,,\nSigla,Subgrupo,TUSD\nCEMIG,B1,0\n")

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sigla", "Subgrupo", "TUSD"}, table.Headers)
	assert.Len(t, table.Rows, 1)
}

func TestLoadEmptyFile(t *testing.T) {
	for name, content := range map[string]string{
		"no content":  "",
		"header only": "Sigla,Subgrupo,TUSD\n",
		"only blanks": ",,\n,,\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeTempFile(t, "empty.csv", content)

			_, err := Load(path)
			var emptyErr *domain.EmptyFileError
			assert.ErrorAs(t, err, &emptyErr)
		})
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "tarifas.pdf", "not a table")

	_, err := Load(path)
	var structErr *domain.StructuralFileError
	assert.ErrorAs(t, err, &structErr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

// Every non-header line of a well-formed file must come back as a data row.
func TestLoadRowCountMatchesSource(t *testing.T) {
	var b strings.Builder
	b.WriteString("Sigla,Subgrupo,TUSD,TE\n")
	const n = 57
	for i := 0; i < n; i++ {
		b.WriteString("CEMIG,B1,1,2\n")
	}
	path := writeTempFile(t, "bulk.csv", b.String())

	table, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, n)
}
