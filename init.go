package tradechart

import (
	"os"
	"strconv"

	"github.com/raykavin/tradechart/pkg/logger"
	"github.com/raykavin/tradechart/pkg/logger/zerolog"
)

const (
	defaultLogLevel      = "info"
	defaultLogTimeFormat = "2006-01-02 15:04:05"
	defaultLogColored    = "true"
	defaultLogJSON       = "false"
)

const (
	envLogLevel      = "TRADECHART_LOG_LEVEL"
	envLogTimeFormat = "TRADECHART_LOG_TIME_FORMAT"
	envLogColor      = "TRADECHART_LOG_COLOR"
	envLogJSON       = "TRADECHART_LOG_JSON"
)

// DefaultLog is the logger used by the CLI and by callers that do not
// provide their own.
var DefaultLog logger.Logger

func init() {
	log, err := NewLogger()
	if err != nil {
		panic(err)
	}

	DefaultLog = log
}

// NewLogger builds a logger configured from the TRADECHART_LOG_* variables.
func NewLogger() (logger.Logger, error) {
	colored, err := parseBoolEnv(envLogColor, defaultLogColored)
	if err != nil {
		return nil, err
	}

	jsonFormat, err := parseBoolEnv(envLogJSON, defaultLogJSON)
	if err != nil {
		return nil, err
	}

	log, err := zerolog.New(zerolog.Options{
		Level:          getEnvWithDefault(envLogLevel, defaultLogLevel),
		DateTimeLayout: getEnvWithDefault(envLogTimeFormat, defaultLogTimeFormat),
		Colored:        colored,
		JSON:           jsonFormat,
		Output:         os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	return zerolog.NewAdapter(log), nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key, defaultValue string) (bool, error) {
	return strconv.ParseBool(getEnvWithDefault(key, defaultValue))
}
