package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart/pkg/exchange"
	"github.com/raykavin/tradechart/pkg/exchange/binance"
)

// Download command flags
var (
	downloadPair      string
	downloadDays      int
	downloadStart     string
	downloadEnd       string
	downloadTimeframe string
	downloadOutput    string
	downloadFutures   bool
	downloadHeikin    bool
	downloadPrecision int
)

func buildDownloadCmd() *cobra.Command {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download historical candles from Binance into a CSV file",
		RunE:  runDownload,
	}

	downloadCmd.Flags().StringVarP(&downloadPair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	downloadCmd.Flags().IntVarP(&downloadDays, "days", "d", 0, "Number of days to download (default 30 days)")
	downloadCmd.Flags().StringVarP(&downloadStart, "start", "s", "", "Start date (e.g. 2021-12-01)")
	downloadCmd.Flags().StringVarP(&downloadEnd, "end", "e", "", "End date (e.g. 2021-12-31)")
	downloadCmd.Flags().StringVarP(&downloadTimeframe, "timeframe", "t", "", "Timeframe (e.g. 1h)")
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output file path (e.g. ./btc.csv)")
	downloadCmd.Flags().BoolVarP(&downloadFutures, "futures", "f", false, "Add futures high/low/close columns (high_d, low_d, close_d)")
	downloadCmd.Flags().BoolVar(&downloadHeikin, "heikin-ashi", false, "Store Heikin-Ashi candles")
	downloadCmd.Flags().IntVar(&downloadPrecision, "precision", -1, "Price decimals (-1 keeps the exchange value)")

	downloadCmd.MarkFlagRequired("pair")
	downloadCmd.MarkFlagRequired("timeframe")
	downloadCmd.MarkFlagRequired("output")

	return downloadCmd
}

func runDownload(cmd *cobra.Command, _ []string) error {
	options, err := buildDownloadOptions()
	if err != nil {
		return err
	}

	var feederOptions []binance.Option
	if cfg.Binance.APIKey != "" {
		feederOptions = append(feederOptions, binance.WithCredentials(cfg.Binance.APIKey, cfg.Binance.SecretKey))
	}
	if cfg.Binance.UseTestnet {
		feederOptions = append(feederOptions, binance.WithTestNet())
	}
	if downloadFutures || cfg.Binance.Futures {
		feederOptions = append(feederOptions, binance.WithFuturesPrices())
	}
	if downloadHeikin {
		feederOptions = append(feederOptions, binance.WithHeikinAshiCandles())
	}

	feeder, err := binance.NewFeeder(cmd.Context(), log, feederOptions...)
	if err != nil {
		return err
	}

	return exchange.NewDownloader(feeder, log).Download(
		cmd.Context(),
		downloadPair,
		downloadTimeframe,
		downloadOutput,
		options...,
	)
}

func buildDownloadOptions() ([]exchange.Option, error) {
	options := []exchange.Option{exchange.WithPrecision(downloadPrecision)}

	if downloadDays > 0 {
		options = append(options, exchange.WithDays(downloadDays))
	}

	if downloadStart != "" || downloadEnd != "" {
		if downloadStart == "" || downloadEnd == "" {
			return nil, fmt.Errorf("START and END dates must be provided together")
		}

		start, err := parseTime(downloadStart)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}

		end, err := parseTime(downloadEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}

		options = append(options, exchange.WithInterval(start, end))
	}

	return options, nil
}
