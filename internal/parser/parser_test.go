package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datalens-cli/internal/parser"
)

func TestParseJSON_ArrayOfObjects(t *testing.T) {
	content := `[{"city":"NY","pop":8},{"city":"LA","pop":4}]`
	data, err := parser.Parse("cities.json", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"city", "pop"}, data.Columns)
	assert.Equal(t, 2, data.RowCount)
	assert.Equal(t, parser.FormatJSON, data.Format)
	assert.Equal(t, parser.Number(8), data.Rows[0].Get("pop"))
	assert.Equal(t, parser.Text("LA"), data.Rows[1].Get("city"))
}

func TestParseJSON_KeepsSourceKeyOrder(t *testing.T) {
	content := `[{"zeta":1,"alpha":2,"mid":null},{"alpha":3,"extra":true}]`
	data, err := parser.Parse("order.json", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, data.Columns)
	assert.Equal(t, parser.KindMissing, data.Rows[0].Get("mid").Kind())
	assert.Equal(t, parser.Bool(true), data.Rows[1].Get("extra"))
	assert.Equal(t, parser.KindMissing, data.Rows[1].Get("zeta").Kind())
}

func TestParseJSON_ObjectWithRecordsArray(t *testing.T) {
	content := `{"meta":{}, "records":[{"x":1}], "later":[{"y":2}]}`
	data, err := parser.Parse("wrapped.json", []byte(content))
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, data.Columns)
	assert.Equal(t, 1, data.RowCount)
	assert.Equal(t, parser.Number(1), data.Rows[0].Get("x"))
}

func TestParseJSON_SkipsEmptyAndScalarArrays(t *testing.T) {
	content := `{"empty":[], "tags":["a","b"], "items":[{"k":"v"}]}`
	data, err := parser.Parse("mixed.json", []byte(content))
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, data.Columns)
}

func TestParseJSON_OverflowingNumberKeptAsText(t *testing.T) {
	data, err := parser.Parse("big.json", []byte(`[{"n":1e400,"m":-2.5}]`))
	require.NoError(t, err)
	assert.Equal(t, parser.Text("1e400"), data.Rows[0].Get("n"))
	assert.Equal(t, parser.Number(-2.5), data.Rows[0].Get("m"))
}

func TestParseJSON_NestedValuesAreComposite(t *testing.T) {
	content := `[{"id":1,"tags":["a"],"geo":{"lat":1}}]`
	data, err := parser.Parse("nested.json", []byte(content))
	require.NoError(t, err)

	geo := data.Rows[0].Get("geo")
	assert.Equal(t, parser.KindComposite, geo.Kind())
	assert.Equal(t, `{"lat":1}`, geo.String())
	assert.Equal(t, parser.KindComposite, data.Rows[0].Get("tags").Kind())
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "no tabular structure",
			content: `{"meta":{"a":1},"n":3}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, parser.ErrNoTabularStructure), "got %v", err)
			},
		},
		{
			name:    "scalar root",
			content: `42`,
			check: func(t *testing.T, err error) {
				var mErr *parser.MalformedInputError
				assert.True(t, errors.As(err, &mErr), "got %v", err)
			},
		},
		{
			name:    "syntax error",
			content: `[{"a":1},`,
			check: func(t *testing.T, err error) {
				var mErr *parser.MalformedInputError
				require.True(t, errors.As(err, &mErr), "got %v", err)
				assert.Equal(t, parser.FormatJSON, mErr.Format)
			},
		},
		{
			name:    "trailing garbage",
			content: `[{"a":1}] x`,
			check: func(t *testing.T, err error) {
				var mErr *parser.MalformedInputError
				assert.True(t, errors.As(err, &mErr), "got %v", err)
			},
		},
		{
			name:    "empty array",
			content: `[]`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, parser.ErrEmptyData), "got %v", err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse("input.json", []byte(tt.content))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	_, err := parser.Parse("data.txt", []byte("name,score\nA,1\n"))
	require.Error(t, err)

	var uErr *parser.UnsupportedFormatError
	require.True(t, errors.As(err, &uErr))
	assert.Equal(t, ".txt", uErr.Ext)
	assert.True(t, errors.Is(err, parser.ErrUnsupported))
	assert.False(t, parser.Supported("data.txt"))
	assert.True(t, parser.Supported("DATA.JSON"))
}

func TestParseFile_UnsupportedBeforeRead(t *testing.T) {
	// the file does not exist: the extension check must fail first
	_, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.True(t, errors.Is(err, parser.ErrUnsupported), "got %v", err)
}

func TestParseFile_CSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "hop_harvest.csv")
	content := "date,plot,alpha_acids\n2024-08-10,A1,12.5\n2024-08-12,A1,11.8\n"
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	data, err := parser.ParseFile(p)
	require.NoError(t, err)
	assert.Equal(t, "hop_harvest.csv", data.FileName)
	assert.Equal(t, 2, data.RowCount)
}

func TestParseReader_SizeLimit(t *testing.T) {
	body := "a\n" + strings.Repeat("1\n", 100)
	_, err := parser.ParseReader("big.csv", strings.NewReader(body), 16)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrInputTooLarge), "got %v", err)

	data, err := parser.ParseReader("big.csv", strings.NewReader(body), 0)
	require.NoError(t, err)
	assert.Equal(t, 100, data.RowCount)
}
