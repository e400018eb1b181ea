package cmd

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/scipsym/internal/parser"
	"github.com/dshills/scipsym/pkg/types"
)

// parsedSymbol is one line of parse output
type parsedSymbol struct {
	Symbol    string       `json:"symbol"`
	Canonical string       `json:"canonical"`
	Parsed    types.Symbol `json:"parsed"`
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [symbol...]",
		Short: "Decode SCIP symbols to JSON, one object per line",
		Long: "Decode each argument as a SCIP symbol. With no arguments, every line of\n" +
			"standard input is decoded; blank lines are skipped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := json.NewEncoder(cmd.OutOrStdout())
			if len(args) > 0 {
				for _, arg := range args {
					if err := writeParsed(out, arg); err != nil {
						return err
					}
				}
				return nil
			}
			return parseLines(cmd.InOrStdin(), out)
		},
	}
}

func parseLines(r io.Reader, out *json.Encoder) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := writeParsed(out, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeParsed(out *json.Encoder, text string) error {
	sym := parser.ParseSymbol(text)
	return out.Encode(parsedSymbol{
		Symbol:    text,
		Canonical: sym.String(),
		Parsed:    sym,
	})
}
