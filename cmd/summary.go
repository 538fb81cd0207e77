package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TFMV/hapviz/render"
)

func summaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <data-file>",
		Short: "Show the clusters of a data file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graph, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}

			w := out(cmd)
			fmt.Fprintf(w, "  %s %s\n", ui.Brand.Sprint(graph.Name), ui.Subtle.Sprintf("(%s)", graph.DataSource))
			fmt.Fprintf(w, "  %d rows, %d nodes, %d exemplars\n\n", graph.RowCount, len(graph.Nodes), graph.Targets.Len())

			headers := []string{"", "COLOR", "ANCHOR", "NODES", "EXEMPLARS"}
			var rows, plain [][]string
			for _, c := range graph.Clusters() {
				swatch := ui.Subtle.Sprint("?")
				if rgb, ok := render.ParseColor(c.Color); ok {
					r, g, b := rgb.RGB255()
					swatch = color.RGB(int(r), int(g), int(b)).Sprint("●")
				}
				anchor := graph.Nodes[c.Anchor].Name
				row := []string{swatch, c.Color, anchor, strconv.Itoa(len(c.Members)), strconv.Itoa(c.Targets)}
				rows = append(rows, row)
				plain = append(plain, []string{"●", c.Color, anchor, row[3], row[4]})
			}
			if len(rows) == 0 {
				ui.Warn.Fprintln(w, "  no rows")
				return nil
			}
			table(w, headers, rows, plain)
			return nil
		},
	}
}
