package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(rows int) Table {
	t := Table{
		Title:   "Student Directory",
		Columns: []Column{{Header: "Name", Width: 2}, {Header: "University ID"}, {Header: "Batch"}},
	}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, []string{"Rahim Uddin", "1810001", "BBA 5"})
	}
	return t
}

func TestCSVExporterRender(t *testing.T) {
	table := sampleTable(1)
	table.Rows = append(table.Rows, []string{"Karim, Jr.", "1810002", "BBA 5"})

	out, err := NewCSVExporter().Render(table)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,University ID,Batch", lines[0])
	assert.Equal(t, `"Karim, Jr.",1810002,BBA 5`, lines[2])
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	table := sampleTable(0)
	table.Rows = [][]string{{"only one"}}

	_, err := NewCSVExporter().Render(table)
	assert.Error(t, err)
}

func TestPDFExporterRenderPaginates(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleTable(80))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresColumns(t *testing.T) {
	_, err := NewPDFExporter().Render(Table{})
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths([]Column{{Width: 2}, {}, {Width: 1}})
	assert.InDelta(t, pdfPageWidth/2, widths[0], 0.001)
	assert.InDelta(t, pdfPageWidth, widths[0]+widths[1]+widths[2], 0.001)
}
