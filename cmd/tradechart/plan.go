package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart/pkg/axis"
	"github.com/raykavin/tradechart/pkg/calendar"
	"github.com/raykavin/tradechart/pkg/exchange"
)

// Plan and anchors command flags
var (
	planMaxTicks int

	anchorsInput string
	anchorsFrom  int
	anchorsTo    int
	anchorsShift int
)

func buildPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan LOW HIGH",
		Short: "Plan round axis limits and ticks for a value range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			low, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid LOW: %w", err)
			}
			high, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid HIGH: %w", err)
			}

			maxTicks := planMaxTicks
			if maxTicks == 0 {
				maxTicks = cfg.MaxTicks
			}
			return printPlan(cmd.OutOrStdout(), low, high, maxTicks)
		},
	}

	planCmd.Flags().IntVarP(&planMaxTicks, "max-ticks", "m", 0, "Maximum number of steps (default from configuration)")
	return planCmd
}

func printPlan(w io.Writer, low, high float64, maxTicks int) error {
	plan, err := axis.PlanLimits(low, high, maxTicks)
	if err != nil {
		return err
	}
	ticks, err := axis.Ticks(plan)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Min", "Max", "Step", "Ticks"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.Append([]string{formatFloat(plan.Min), formatFloat(plan.Max), formatFloat(plan.Step), strconv.Itoa(len(ticks))})
	table.Render()

	fmt.Fprintln(w, lo.Map(ticks, func(v float64, _ int) string { return formatFloat(v) }))
	return nil
}

func buildAnchorsCmd() *cobra.Command {
	anchorsCmd := &cobra.Command{
		Use:   "anchors",
		Short: "List quarterly anchor dates of a candle file or a year range",
		RunE:  runAnchors,
	}

	anchorsCmd.Flags().StringVarP(&anchorsInput, "input", "i", "", "Candle CSV file; its days are the valid dates")
	anchorsCmd.Flags().IntVar(&anchorsFrom, "from", 0, "First year when no input is given")
	anchorsCmd.Flags().IntVar(&anchorsTo, "to", 0, "Last year when no input is given")
	anchorsCmd.Flags().IntVar(&anchorsShift, "shift", -1, "Days to go back from the last Friday (default from configuration)")

	return anchorsCmd
}

func runAnchors(cmd *cobra.Command, _ []string) error {
	shift := anchorsShift
	if shift < 0 {
		shift = cfg.ShiftDays
	}

	var anchors []calendar.Date
	switch {
	case anchorsInput != "":
		candles, err := exchange.ReadCandles(anchorsInput, "")
		if err != nil {
			return err
		}
		times := make([]time.Time, 0, len(candles))
		for _, candle := range candles {
			times = append(times, candle.Time)
		}
		anchors = calendar.AnchorsFor(times, shift)
	case anchorsFrom > 0 && anchorsTo > 0:
		anchors = calendar.QuarterlyAnchorDates(everyDay(anchorsFrom, anchorsTo), anchorsFrom, anchorsTo, shift)
	default:
		return fmt.Errorf("either --input or both --from and --to are required")
	}

	printAnchors(cmd.OutOrStdout(), anchors)
	return nil
}

// everyDay returns every calendar day of the years [from, to].
func everyDay(from, to int) calendar.DateSet {
	set := calendar.NewDateSet()
	if from > to {
		return set
	}
	last := calendar.NewDate(to, time.December, 31)
	for d := calendar.NewDate(from, time.January, 1); !last.Before(d); d = d.AddDays(1) {
		set.Add(d)
	}
	return set
}

func printAnchors(w io.Writer, anchors []calendar.Date) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Date", "Weekday"})
	for _, anchor := range anchors {
		table.Append([]string{anchor.String(), anchor.Weekday().String()})
	}
	table.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
