package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raykavin/tradechart"
	"github.com/raykavin/tradechart/internal/config"
	"github.com/raykavin/tradechart/pkg/storage"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

var (
	log = tradechart.DefaultLog

	configPath string
	cfg        *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tradechart",
		Short:        "Financial chart rendering utilities",
		Version:      "1.0.0",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.Load(configPath)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default ./tradechart.yaml)")

	rootCmd.AddCommand(
		buildDownloadCmd(),
		buildRenderCmd(),
		buildPlanCmd(),
		buildAnchorsCmd(),
		buildInspectCmd(),
		buildTradeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (*storage.BuntStorage, error) {
	return storage.FromFile(cfg.StoragePath, log)
}

// parseTime accepts a date, a date with minutes, or RFC 3339. Times without
// a zone are UTC.
func parseTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, dateTimeLayout, dateLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use %s, %q or RFC 3339", value, dateLayout, dateTimeLayout)
}
