package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims and lowercases", "  Subgrupo  ", "subgrupo"},
		{"strips diacritics", "Distribuição", "distribuicao"},
		{"collapses whitespace", "inicio   vigencia", "inicio vigencia"},
		{"underscores count as whitespace", "inicio_vigencia", "inicio vigencia"},
		{"mixed accents and case", "CONCESSIONÁRIA", "concessionaria"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, String(tt.input))
		})
	}
}

func TestStringIsIdempotent(t *testing.T) {
	inputs := []string{
		"  Início_Vigência  ",
		"TARIFA DE ENERGIA",
		"fio b",
		"Energisa Mato Grosso - Distribuidora de Energia S/A",
	}
	for _, s := range inputs {
		once := String(s)
		assert.Equal(t, once, String(once), "String must be idempotent for %q", s)
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{"comma decimal", "0,45", 0.45, true},
		{"thousands plus comma", "1.234,56", 1234.56, true},
		{"plain integer", "450", 450, true},
		{"dot decimal untouched without comma", "0.072", 0.072, true},
		{"empty is zero", "", 0, true},
		{"dash is zero", "-", 0, true},
		{"whitespace only is zero", "   ", 0, true},
		{"garbage fails", "abc", 0, false},
		{"mixed garbage fails", "12,3x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Decimal(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.expected, v, 1e-9)
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		ok       bool
	}{
		{"iso", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"iso with time suffix", "2024-07-01T00:00:00", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"brazilian slash", "15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"brazilian dash", "15-03-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"spreadsheet serial", "45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"serial below window", "222", time.Time{}, false},
		{"serial above window", "99999", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"garbage", "not-a-date", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.expected.Equal(got), "want %s, got %s", tt.expected, got)
			}
		})
	}
}
