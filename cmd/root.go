package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/agenda"
	"github.com/teemow/ticktick-mcp/internal/config"
	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// rootCmd represents the base command for the ticktick-mcp application
var rootCmd = &cobra.Command{
	Use:   "ticktick-mcp",
	Short: "MCP server for TickTick and Dida365",
	Long: `ticktick-mcp exposes a TickTick (or Dida365) account to AI assistants
through the Model Context Protocol: listing projects and tasks, finding what is
due today or overdue, and creating, updating, completing and deleting tasks.

Credentials are read from TICKTICK_ACCESS_TOKEN, or TICKTICK_USERNAME and
TICKTICK_PASSWORD, in the environment, a .env file or the config file.`,
	SilenceUsage: true,
}

var (
	configPath string
	envFile    string
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ticktick-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server over stdio
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file (default: $XDG_CONFIG_HOME/ticktick-mcp/config.toml if present)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to a .env file, ignored if missing")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAgendaCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig loads the configuration selected by the persistent flags.
func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{ConfigPath: configPath, EnvFile: envFile})
}

// newClient wires the session, gateway and aggregator for cfg.
func newClient(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*ticktick.Client, *agenda.Aggregator) {
	session := ticktick.NewSession(cfg.Credentials(),
		ticktick.WithAuthBaseURL(cfg.AuthBaseURL),
		ticktick.WithSessionLogger(logger),
		ticktick.WithSessionMetrics(metrics),
	)
	client := ticktick.NewClient(session,
		ticktick.WithBaseURL(cfg.APIBaseURL),
		ticktick.WithLogger(logger),
		ticktick.WithMetrics(metrics),
	)
	aggregator := agenda.NewAggregator(client,
		agenda.WithConcurrency(cfg.Concurrency),
		agenda.WithLogger(logger),
	)
	return client, aggregator
}
