package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/isseis/go-mojibake-fixer/internal/logging"
	"github.com/isseis/go-mojibake-fixer/internal/repair"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newTableCommand(a *app) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the substitution table",
		Long: "table prints every substitution in the order it is applied. With --verify it\n" +
			"also garbles each replacement through Windows-1252 and reports whether the\n" +
			"pattern is exact, divergent or shadowed by an earlier entry.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTable(verify)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check each pattern against the garbled replacement")
	return cmd
}

func (a *app) runTable(verify bool) error {
	caps := a.detector()

	headers := []string{"#", "KIND", "PATTERN", "REPLACEMENT"}
	var rows [][]string

	if verify {
		results, err := repair.VerifyTable(repair.DefaultTable())
		if err != nil {
			return a.fail(logging.ErrorTypeSystemError, "table", "cannot verify substitution table", err)
		}
		headers = append(headers, "FIDELITY")
		for _, r := range results {
			rows = append(rows, append(tableRow(r.Index, r.Substitution), string(r.Fidelity)))
		}
	} else {
		for i, s := range repair.DefaultTable() {
			rows = append(rows, tableRow(i, s))
		}
	}

	if caps.IsInteractive() {
		_, _ = fmt.Fprintln(a.stdout, renderStyledTable(a.stdout, caps.SupportsColor(), headers, rows))
		return nil
	}
	writePlainTable(a.stdout, headers, rows)
	return nil
}

// tableRow quotes pattern and replacement so invisible characters show up.
func tableRow(index int, s repair.Substitution) []string {
	return []string{
		strconv.Itoa(index),
		s.Kind.String(),
		strconv.Quote(s.Pattern),
		strconv.Quote(s.Replacement),
	}
}

func writePlainTable(w io.Writer, headers []string, rows [][]string) {
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

func renderStyledTable(w io.Writer, color bool, headers []string, rows [][]string) string {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	headerStyle := r.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := r.NewStyle().Padding(0, 1)
	flagged := cellStyle.Foreground(lipgloss.Color("3"))
	fidelityCol := len(headers) - 1

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(r.NewStyle().Faint(true)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if len(headers) == 5 && col == fidelityCol && row >= 0 && row < len(rows) &&
				rows[row][col] != string(repair.FidelityExact) {
				return flagged
			}
			return cellStyle
		})
	return t.Render()
}
