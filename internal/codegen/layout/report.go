package layout

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// WriteReport renders the locations chosen for globals, strings and every
// frame as text tables.
func WriteReport(out io.Writer, g *Globals, frames []*Frame) {
	dataTable := table.NewWriter()
	dataTable.SetOutputMirror(out)
	dataTable.SetTitle("Data section")
	dataTable.AppendHeader(table.Row{"Label", "Kind", "Width", "Value"})
	for _, s := range g.Strings {
		dataTable.AppendRow(table.Row{s.Label, "string", len(s.Text) + 1, fmt.Sprintf("%q", s.Text)})
	}
	for _, v := range g.Vars {
		dataTable.AppendRow(table.Row{v.Label, v.Opd.Kind(), v.Opd.Width(), ""})
	}
	dataTable.Render()

	for _, f := range frames {
		frameTable := table.NewWriter()
		frameTable.SetOutputMirror(out)
		frameTable.SetTitle(fmt.Sprintf("Frame %s", f.Proc.Name))
		frameTable.AppendHeader(table.Row{"Operand", "Role", "Width", "Offset"})
		for _, slot := range f.Slots {
			frameTable.AppendRow(table.Row{slot.Opd.String(), slot.Role, slot.Opd.Width(), slot.Offset})
		}
		frameTable.AppendFooter(table.Row{"", "", "size", f.Size})
		frameTable.Render()
	}
}
