package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/BartekS5/flightetl/pkg/models"
	"github.com/BartekS5/flightetl/pkg/utils"
)

// maxCellWidth truncates long values so the preview stays readable.
const maxCellWidth = 32

// PrintPreview writes the first n rows of b as an aligned table.
func PrintPreview(w io.Writer, title string, b *models.Batch, n int) error {
	if n <= 0 {
		return nil
	}
	fmt.Fprintf(w, "%s: %d rows x %d columns\n", title, b.Len(), len(b.Columns))
	if len(b.Columns) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(b.Columns, "\t"))
	shown := 0
	for _, r := range b.Records {
		if shown == n {
			break
		}
		cells := make([]string, len(b.Columns))
		for i, c := range b.Columns {
			cells[i] = cell(r[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
		shown++
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if shown < b.Len() {
		fmt.Fprintf(w, "... %d more rows\n", b.Len()-shown)
	}
	return nil
}

func cell(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	s := strings.NewReplacer("\t", " ", "\n", " ").Replace(utils.ToText(v))
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-3]) + "..."
	}
	return s
}
