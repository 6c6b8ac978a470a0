package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the academic-calendar application
var rootCmd = &cobra.Command{
	Use:   "academic-calendar",
	Short: "MCP server for querying academic calendar events",
	Long: `academic-calendar is a Model Context Protocol (MCP) server that gives AI
assistants read-only access to the events table of an academic calendar
stored in TiDB or any other MySQL-compatible database.

Connection settings are read from the environment (TIDB_USER, TIDB_PASSWORD,
TIDB_HOST, TIDB_PORT, TIDB_DATABASE). A .env file in the working directory
is loaded first if present; variables already set in the environment win.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "academic-calendar version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
