package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/exchange"
	"github.com/raykavin/tradechart/pkg/plot/indicator"
)

// Inspect command flags
var (
	inspectInput      string
	inspectPair       string
	inspectColumn     string
	inspectBins       int
	inspectIndicators []string
)

func buildInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise the columns of a candle CSV file and plot a histogram",
		RunE: func(cmd *cobra.Command, _ []string) error {
			df, err := exchange.ReadCSV(inspectInput, inspectPair)
			if err != nil {
				return err
			}

			for _, spec := range inspectIndicators {
				i, err := indicator.Parse(spec)
				if err != nil {
					return err
				}
				if err := i.Load(df); err != nil {
					return err
				}
			}

			return inspect(cmd.OutOrStdout(), df, inspectColumn, inspectBins, cfg.MaxTicks)
		},
	}

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Candle CSV file")
	inspectCmd.Flags().StringVarP(&inspectPair, "pair", "p", "", "Trading pair")
	inspectCmd.Flags().StringVar(&inspectColumn, "column", core.ColumnClose, "Column plotted as a histogram")
	inspectCmd.Flags().IntVar(&inspectBins, "bins", 15, "Histogram bins")
	inspectCmd.Flags().StringSliceVar(&inspectIndicators, "indicator", nil, "Indicator columns to compute first (e.g. rsi:14)")

	inspectCmd.MarkFlagRequired("input")

	return inspectCmd
}

// inspect prints, per column, the value range, the 3% and 97% quantiles and
// the planned axis, then a histogram of column.
func inspect(w io.Writer, df *core.Dataframe, column string, bins, maxTicks int) error {
	if bins <= 0 {
		return fmt.Errorf("invalid histogram bins: %d", bins)
	}

	start, end, err := df.Span()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d rows from %s to %s\n", df.Pair, df.Len(), start.Format(dateTimeLayout), end.Format(dateTimeLayout))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Values", "Min", "Max", "Q03", "Q97", "Axis"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, name := range df.Columns() {
		values, err := df.Column(name)
		if err != nil {
			return err
		}

		finite := core.Finite(values)
		row := []string{name, strconv.Itoa(len(finite)), "-", "-", "-", "-", "-"}
		if len(finite) > 0 {
			bounds, err := axis.QuantileRange(finite, axis.LowerQuantile, axis.UpperQuantile)
			if err != nil {
				return err
			}

			row[2], row[3] = formatFloat(finite.Min()), formatFloat(finite.Max())
			row[4], row[5] = formatFloat(bounds.Low), formatFloat(bounds.High)
			if plan, err := axis.PlanLimits(finite.Min(), finite.Max(), maxTicks); err == nil {
				row[6] = plan.String()
			}
		}
		table.Append(row)
	}
	table.Render()

	values, err := df.Column(column)
	if err != nil {
		return err
	}
	finite := core.Finite(values)
	if len(finite) == 0 {
		return fmt.Errorf("%s: %w", column, core.ErrEmptySeries)
	}

	fmt.Fprintf(w, "------ %s -------\n", column)
	hist := histogram.Hist(bins, finite)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
