package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart/pkg/core"
	"github.com/raykavin/tradechart/pkg/metric"
)

// Trade command flags
var (
	tradePair       string
	tradeEntry      string
	tradeExit       string
	tradeEntryPrice float64
	tradeExitPrice  float64
	tradeStopLoss   float64
	tradeTakeProfit float64
	tradeReason     string
)

// Bootstrap resamples used for the return confidence interval.
const bootstrapSamples = 10000

func buildTradeCmd() *cobra.Command {
	tradeCmd := &cobra.Command{
		Use:   "trade",
		Short: "Manage the trades drawn on charts",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a closed trade",
		RunE:  runTradeAdd,
	}
	addCmd.Flags().StringVarP(&tradePair, "pair", "p", "", "Trading pair")
	addCmd.Flags().StringVar(&tradeEntry, "entry", "", "Entry time (e.g. 2023-06-12 08:00)")
	addCmd.Flags().StringVar(&tradeExit, "exit", "", "Exit time")
	addCmd.Flags().Float64Var(&tradeEntryPrice, "entry-price", 0, "Entry price")
	addCmd.Flags().Float64Var(&tradeExitPrice, "exit-price", 0, "Exit price")
	addCmd.Flags().Float64Var(&tradeStopLoss, "sl", 0, "Stop-loss level")
	addCmd.Flags().Float64Var(&tradeTakeProfit, "tp", 0, "Take-profit level")
	addCmd.Flags().StringVar(&tradeReason, "reason", "", "Exit reason (stop_loss, take_profit or free text)")
	addCmd.MarkFlagRequired("pair")
	addCmd.MarkFlagRequired("entry")
	addCmd.MarkFlagRequired("exit")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored trades with a return summary",
		RunE:  runTradeList,
	}
	listCmd.Flags().StringVarP(&tradePair, "pair", "p", "", "Only trades of this pair")
	listCmd.Flags().StringVar(&tradeReason, "reason", "", "Only trades closed for this reason")

	tradeCmd.AddCommand(addCmd, listCmd)
	return tradeCmd
}

func runTradeAdd(cmd *cobra.Command, _ []string) error {
	entry, err := parseTime(tradeEntry)
	if err != nil {
		return err
	}
	exit, err := parseTime(tradeExit)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	trade := &core.TradeInfo{
		Pair:       tradePair,
		Entry:      entry,
		Exit:       exit,
		EntryPrice: tradeEntryPrice,
		ExitPrice:  tradeExitPrice,
		StopLoss:   tradeStopLoss,
		TakeProfit: tradeTakeProfit,
		ExitReason: core.ExitReason(tradeReason),
	}
	if err := store.CreateTrade(trade); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "trade #%d stored\n", trade.ID)
	return nil
}

func runTradeList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var filters []core.TradeFilter
	if tradePair != "" {
		filters = append(filters, core.WithPair(tradePair))
	}
	if tradeReason != "" {
		filters = append(filters, core.WithExitReason(core.ExitReason(tradeReason)))
	}

	trades, err := store.Trades(filters...)
	if err != nil {
		return err
	}

	printTrades(cmd.OutOrStdout(), trades)
	return nil
}

// printTrades prints a table of trades, a histogram of their returns and a
// bootstrapped 95% confidence interval.
func printTrades(w io.Writer, trades []*core.TradeInfo) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Pair", "Entry", "Exit", "Entry Price", "Exit Price", "SL", "TP", "Reason", "Return"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	values := make([]core.TradeInfo, 0, len(trades))
	for _, trade := range trades {
		values = append(values, *trade)
		table.Append([]string{
			strconv.FormatInt(trade.ID, 10),
			trade.Pair,
			trade.Entry.Format(dateTimeLayout),
			trade.Exit.Format(dateTimeLayout),
			formatFloat(trade.EntryPrice),
			formatFloat(trade.ExitPrice),
			formatFloat(trade.StopLoss),
			formatFloat(trade.TakeProfit),
			string(trade.ExitReason),
			fmt.Sprintf("%.2f %%", metric.Return(*trade)*100),
		})
	}

	returns := metric.Returns(values)
	table.SetFooter([]string{
		"TOTAL", strconv.Itoa(len(trades)), "", "", "", "", "", "",
		fmt.Sprintf("%.1f %% win", metric.WinRate(returns)*100),
		fmt.Sprintf("%.2f %%", metric.Mean(returns)*100),
	})
	table.Render()

	if len(returns) == 0 {
		return
	}

	fmt.Fprintln(w, "------ RETURN -------")
	percent := make([]float64, len(returns))
	for i, r := range returns {
		percent[i] = r * 100
	}
	hist := histogram.Hist(15, percent)
	histogram.Fprint(w, hist, histogram.Linear(10))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
	returnsInterval := metric.Bootstrap(returns, metric.Mean, bootstrapSamples, 0.95)
	payoffInterval := metric.Bootstrap(returns, metric.Payoff, bootstrapSamples, 0.95)
	profitFactorInterval := metric.Bootstrap(returns, metric.ProfitFactor, bootstrapSamples, 0.95)

	fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
		returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
	fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
}
