package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packd/internal/apperr"
	"packd/internal/service"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []service.ImportRow
	}{
		{
			name:  "with header",
			input: "category,item\nToiletries,Toothbrush\nClothes, Socks\n",
			want: []service.ImportRow{
				{Category: "Toiletries", Item: "Toothbrush"},
				{Category: "Clothes", Item: "Socks"},
			},
		},
		{
			name:  "without header",
			input: "Toiletries,Toothbrush\n",
			want:  []service.ImportRow{{Category: "Toiletries", Item: "Toothbrush"}},
		},
		{
			name:  "quoted comma",
			input: "Electronics,\"Charger, USB-C\"\n",
			want:  []service.ImportRow{{Category: "Electronics", Item: "Charger, USB-C"}},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := parseCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestParseCSV_WrongFieldCount(t *testing.T) {
	_, err := parseCSV(strings.NewReader("Toiletries,Toothbrush,extra\n"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestParseYAML(t *testing.T) {
	input := `
Toiletries:
  - Toothbrush
  - Sunscreen
Clothes:
  - Socks
`
	rows, err := parseYAML(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []service.ImportRow{
		{Category: "Toiletries", Item: "Toothbrush"},
		{Category: "Toiletries", Item: "Sunscreen"},
		{Category: "Clothes", Item: "Socks"},
	}, rows)
}

func TestParseYAML_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "list at top level", input: "- Toothbrush\n"},
		{name: "scalar items", input: "Toiletries: Toothbrush\n"},
		{name: "nested mapping", input: "Toiletries:\n  a: b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseYAML(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation))
		})
	}
}

func TestReadImportFile_FormatFromExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "list.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("Clothes:\n  - Socks\n"), 0o600))
	rows, err := readImportFile(yamlPath, "")
	require.NoError(t, err)
	assert.Equal(t, []service.ImportRow{{Category: "Clothes", Item: "Socks"}}, rows)

	csvPath := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(csvPath, []byte("Clothes,Socks\n"), 0o600))
	rows, err = readImportFile(csvPath, "")
	require.NoError(t, err)
	assert.Equal(t, []service.ImportRow{{Category: "Clothes", Item: "Socks"}}, rows)

	_, err = readImportFile(csvPath, "xml")
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}
