package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"alcyxob/trainplan/internal/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	logLevel   string

	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
)

// rootCmd is the root command for plangen.
var rootCmd = &cobra.Command{
	Use:     "plangen",
	Version: "dev",
	Short:   "Periodized 12-week training plan generator",
	Long: `plangen previews the 12-week resistance-training template and writes
generated plans into the document store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(generateCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() (*logger.Logger, error) {
	return logger.New(logger.Params{Mode: "dev", Level: logLevel})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
