// Command plantcare talks to the plant-care backend from the terminal:
// analyze a photo, ask a question, check the backend or format assistant
// text the way the bot and the web UI do.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/plantcare-ai/plantcare-bot/internal/config"
	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
	"github.com/plantcare-ai/plantcare-bot/internal/version"
)

func main() {
	config.LoadEnvFile()

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand shares once flags have been parsed.
type app struct {
	apiURL  string
	timeout time.Duration
	cfg     config.Config
	client  *plantapi.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "plantcare",
		Short: "Plant care assistant in the terminal",
		Long: `plantcare sends plant photos and questions to the plant-care backend
and prints the diagnosis, recommendations and answers.`,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Backend URL (default $PLANTCARE_API_URL or "+plantapi.DefaultBaseURL+")")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 2*time.Minute, "Maximum time to wait for the backend")
	rootCmd.PersistentFlags().BoolVar(&color.NoColor, "no-color", color.NoColor, "Disable colored output")

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newChatCmd(a),
		newStatusCmd(a),
		newFormatCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// connect loads the configuration. Only commands that reach the backend call it.
func (a *app) connect() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}
	a.cfg = cfg
	a.client = plantapi.NewClient(plantapi.ClientOpts{BaseURL: cfg.APIURL})
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plantcare version %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}
