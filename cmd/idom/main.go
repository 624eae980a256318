package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "idom",
		Short: "Server-driven declarative UI for Go",
		Long: `idom renders component trees on the server and keeps browsers in
sync over a WebSocket by sending patches.

  idom serve            run the sample application
  idom html page.html   convert HTML to a node tree
  idom bench            measure event round trips under load`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		serveCmd(),
		htmlCmd(),
		benchCmd(),
		versionCmd(),
	)
	return cmd
}

// printError writes err to w, using the structured format for coded errors.
func printError(w io.Writer, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		fmt.Fprintln(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\033[31mError:\033[0m %s\n", err)
}
