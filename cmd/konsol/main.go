// Command konsol runs the REPL backend for a GUI client. The client writes
// framed requests to the server's standard input and reads framed responses
// from its standard output; stderr carries the log. The working directory at
// launch is treated as the host application's root.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/akodkod/konsol/internal/version"
)

var (
	flagStdio  bool
	flagListen string
)

var rootCmd = &cobra.Command{
	Use:   "konsol",
	Short: "REPL backend for interactive programming environments",
	Long: `konsol is a request/response REPL backend. A GUI client creates isolated
evaluation sessions, submits code snippets, and receives the result value
together with captured stdout, stderr, and exception information.

Messages are length-prefixed JSON over a byte stream; the default transport
pairs the server's standard input and output with the parent process.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.Flags().BoolVar(&flagStdio, "stdio", false, "serve over standard input/output (default)")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "serve a single client over TCP on this address")
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("konsol %s\n", version.String()))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
