// package formatter renders extracted material lists (terminal table, CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

// Placeholder is rendered for absent values; absence is never shown as zero.
const Placeholder = "-"

// Output formats accepted by [Export].
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatJSON     = "json"
)

// Headers are the ten display columns, in order.
var Headers = []string{
	"Name", "Type", "Profile", "Depth", "Width",
	"Web t", "Flange t", "Grade", "Diameter", "Length",
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// Row projects one record onto the display columns.
//
// Numbers are formatted to two decimals and flange width falls back to the generic width.
func Row(r models.MaterialRecord) []string {
	return []string{
		text(r.Name),
		text(r.ElementType),
		text(r.ProfileType),
		r.OverallDepth.Format(Placeholder),
		r.DisplayWidth().Format(Placeholder),
		r.WebThickness.Format(Placeholder),
		r.FlangeThickness.Format(Placeholder),
		text(r.Grade),
		r.NominalDiameter.Format(Placeholder),
		r.Length.Format(Placeholder),
	}
}

// Rows projects list in order.
func Rows(list models.MaterialList) [][]string {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, Row(r))
	}
	return rows
}

// Table is a complete rendering of one material list. Building a new Table replaces the previous content.
type Table struct {
	Headers []string
	Rows    [][]string
	Count   int
}

// NewTable builds the table for list.
func NewTable(list models.MaterialList) Table {
	return Table{Headers: Headers, Rows: Rows(list), Count: list.Len()}
}

// CountLabel is the total shown under the table.
func (t Table) CountLabel() string {
	if t.Count == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", t.Count)
}

// Render draws the table with lipgloss at its natural width.
//
// Columns are never shrunk to fit a terminal: a wrapped cell would split a
// two-decimal value across lines.
func (t Table) Render() string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case isNumeric(col):
				return numberStyle
			default:
				return cellStyle
			}
		})

	return tbl.Render() + "\n" + t.CountLabel()
}

// ExportToCSV converts a material list to CSV with the display columns.
func ExportToCSV(list models.MaterialList) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range Rows(list) {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a material list to a Markdown table with a count line.
func ExportToMarkdown(list models.MaterialList) ([]byte, error) {
	var buf bytes.Buffer
	t := NewTable(list)

	buf.WriteString("# Materials\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %s\n\n", t.CountLabel()))

	buf.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	sep := make([]string, len(t.Headers))
	for i := range sep {
		sep[i] = "---"
		if isNumeric(i) {
			sep[i] = "---:"
		}
	}
	buf.WriteString("| " + strings.Join(sep, " | ") + " |\n")

	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a material list to plain text, one record per line.
func ExportToText(list models.MaterialList) ([]byte, error) {
	var buf bytes.Buffer
	t := NewTable(list)

	buf.WriteString(fmt.Sprintf("Materials: %d\n\n", t.Count))
	for i, row := range t.Rows {
		buf.WriteString(fmt.Sprintf("%d. %s (%s)", i+1, row[0], row[1]))
		for col := 2; col < len(row); col++ {
			if row[col] == Placeholder {
				continue
			}
			buf.WriteString(fmt.Sprintf(" %s=%s", t.Headers[col], row[col]))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a material list to indented JSON; absent numbers are null.
func ExportToJSON(list models.MaterialList) ([]byte, error) {
	if list == nil {
		list = models.MaterialList{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal materials: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders list in the named format.
func Export(list models.MaterialList, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return []byte(NewTable(list).Render() + "\n"), nil
	case FormatCSV:
		return ExportToCSV(list)
	case FormatMarkdown, "md":
		return ExportToMarkdown(list)
	case FormatText, "txt":
		return ExportToText(list)
	case FormatJSON:
		return ExportToJSON(list)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (use table, csv, markdown, text or json)", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders list in format and writes it to path.
func WriteExport(list models.MaterialList, format, path string) (string, error) {
	data, err := Export(list, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}

func isNumeric(col int) bool {
	switch col {
	case 3, 4, 5, 6, 8, 9:
		return true
	}
	return false
}
