package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterForcedAndEscapedQuotes(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ID", "FullName", "Note"},
		Quoted:  []string{"FullName"},
		Rows: []map[string]string{
			{"ID": "S001", "FullName": "Ana Lima", "Note": "plain"},
			{"ID": "S002", "FullName": `Ben "Benny" Okafor, Jr.`, "Note": "a,b"},
		},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,FullName,Note", lines[0])
	assert.Equal(t, `S001,"Ana Lima",plain`, lines[1])
	assert.Equal(t, `S002,"Ben ""Benny"" Okafor, Jr.","a,b"`, lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestReadRowsRoundTrip(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"ID", "FullName"},
		Quoted:  []string{"FullName"},
		Rows:    []map[string]string{{"ID": "S001", "FullName": `Doe, "JD" John`}},
	})
	require.NoError(t, err)

	var got [][]string
	err = ReadRows(bytes.NewReader(out), func(_ int, fields []string) {
		got = append(got, append([]string(nil), fields...))
	}, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"S001", `Doe, "JD" John`}, got[0])
}

func TestReadRowsSkipsHeaderAndBlankLines(t *testing.T) {
	input := "id,name\n\n S001 , Ana \n   \nS002,Ben,extra\n"
	var lines []int
	var rows [][]string
	err := ReadRows(strings.NewReader(input), func(line int, fields []string) {
		lines = append(lines, line)
		rows = append(rows, append([]string(nil), fields...))
	}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"S001", "Ana"}, rows[0])
	assert.Equal(t, []string{"S002", "Ben", "extra"}, rows[1])
	assert.Equal(t, []int{3, 5}, lines)
}

func TestReadRowsIsolatesUnterminatedQuote(t *testing.T) {
	input := "id,regNo,name,email\n" +
		"S001,2024-CS-0001,\"Ana,ana@campus.test\n" +
		"S002,2024-CS-0002,Ben,ben@campus.test\n" +
		"S003,2024-CS-0003,Dana O\"Neil,dana@campus.test\n"
	var ids []string
	var badLines []int
	err := ReadRows(strings.NewReader(input), func(_ int, fields []string) {
		ids = append(ids, fields[0])
	}, func(line int, err error) {
		assert.Error(t, err)
		badLines = append(badLines, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"S002", "S003"}, ids)
	assert.Equal(t, []int{2}, badLines)
}

func TestCSVExporterKeepsRecordsOnOneLine(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"Code", "Title"},
		Quoted:  []string{"Title"},
		Rows:    []map[string]string{{"Code": "CS101-A", "Title": "Intro\r\nto  Programming"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Code,Title\nCS101-A,\"Intro to Programming\"\n", string(out))
}

func TestReadRowsEmptyInput(t *testing.T) {
	called := false
	require.NoError(t, ReadRows(strings.NewReader(""), func(int, []string) { called = true }, nil))
	assert.False(t, called)
}

func TestPDFExporterRender(t *testing.T) {
	doc := Document{
		Title:   "Transcript",
		Summary: []string{"Student: Ana Lima", "GPA: 8.50"},
		Data: Dataset{
			Headers: []string{"Code", "Title", "Grade"},
			Rows:    []map[string]string{{"Code": "CS101-A", "Title": "Intro", "Grade": "A"}},
		},
		Widths: []float64{1, 3, 1},
	}
	out, err := NewPDFExporter().Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	doc.Widths = []float64{1}
	_, err = NewPDFExporter().Render(doc)
	assert.Error(t, err)
}
