package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "barehttp",
	Short:   "A minimal HTTP/1.1 client that speaks directly over TCP and TLS sockets",
	Version: version,
	Long: `barehttp sends one HTTP/1.1 request per connection over a raw TCP or TLS
socket, reads the response until the server closes the connection and shows
exactly what went over the wire.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute runs the root command. The caller prints the returned error and
// sets the exit code.
func Execute() error {
	return RootCmd.Execute()
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Show every header sent and the timing of each phase")
	flags.Bool("no-color", false, "Disable colored output")
	flags.StringP("output", "o", "text", "Output format: text, json or yaml")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.Bool("raw", false, "Print the raw bytes sent and received")
	flags.Duration("connect-timeout", 30*time.Second, "Time limit for name resolution, connect and TLS handshake")
}

func init() {
	addPersistentFlags(RootCmd)

	// Add subcommands to root command
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(postCmd)
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(benchCmd)
}
