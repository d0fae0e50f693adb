package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by results that have a table form.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes a borderless, left-aligned table.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w)
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.SetColumnSeparator("")
	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// KeyValues is a two-column "key: value" listing.
type KeyValues [][2]string

// PrintKeyValues writes pairs as aligned "key: value" lines.
func PrintKeyValues(w io.Writer, pairs KeyValues) error {
	table := newTable(w)
	table.SetAutoFormatHeaders(false)
	table.SetColumnSeparator(":")
	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}
	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
