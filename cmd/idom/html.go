package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/element"
	"github.com/vango-dev/idom/pkg/layout"
	"github.com/vango-dev/idom/pkg/vdom"
)

func htmlCmd() *cobra.Command {
	var (
		format  string
		trusted bool
	)

	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Convert HTML to a node tree",
		Long: `Convert an HTML fragment to the node tree idom sends to clients.

The input is sanitized unless --trusted is set. With no file, or "-",
the fragment is read from stdin. The fragment is wrapped in a div.

Formats:
  json   the wire form of the tree (default)
  html   the tree rendered back to HTML`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			node, err := convertHTML(cmd.Context(), src, trusted)
			if err != nil {
				return errors.New("E300").Wrap(err)
			}
			return writeNode(cmd.OutOrStdout(), node, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or html")
	cmd.Flags().BoolVar(&trusted, "trusted", false, "Skip sanitizing the input")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.New("E151").Wrap(err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.New("E151").WithLocation(args[0], 0, 0).Wrap(err)
	}
	return string(data), nil
}

func convertHTML(ctx context.Context, src string, trusted bool) (*vdom.Node, error) {
	parse := element.FromHTML
	if trusted {
		parse = element.FromTrustedHTML
	}
	els, err := parse(src)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	l := layout.New()
	defer l.Close()
	if _, err := l.Render(ctx, element.Div(els)); err != nil {
		return nil, err
	}
	return l.Tree(), nil
}

func writeNode(w io.Writer, node *vdom.Node, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(node)
	case "html":
		if err := vdom.RenderHTML(w, node); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}
	return errors.New("E152").WithSuggestion(fmt.Sprintf("Unknown format %q, use json or html", format))
}
