package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/scipsym/internal/export"
	"github.com/dshills/scipsym/internal/parser"
)

type convertOptions struct {
	input         string
	output        string
	inferLanguage bool
	language      string
	rootPrefix    string
}

func newConvertCmd(flags *globalFlags) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert -i index.scip -o facts.json",
		Short: "Convert a SCIP index to a JSON array of occurrences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("infer-language") {
				opts.inferLanguage = cfg.Indexer.InferLanguage
			}
			if !cmd.Flags().Changed("language") {
				opts.language = cfg.Indexer.DefaultLanguage
			}
			if !cmd.Flags().Changed("root-prefix") {
				opts.rootPrefix = cfg.Indexer.RootPrefix
			}
			return runConvert(opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input .scip file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output JSON file, - for stdout")
	cmd.Flags().BoolVar(&opts.inferLanguage, "infer-language", false, "infer a document's language from its extension when the index does not set one")
	cmd.Flags().StringVar(&opts.language, "language", "", "default language for files without a recognized extension")
	cmd.Flags().StringVar(&opts.rootPrefix, "root-prefix", "", "prefix to prepend to file paths")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runConvert(opts *convertOptions, stdout io.Writer) error {
	p := parser.New(
		parser.WithInferLanguage(opts.inferLanguage),
		parser.WithDefaultLanguage(opts.language),
		parser.WithRootPrefix(opts.rootPrefix),
	)

	log.Printf("Loading documents from %s", opts.input)
	result, err := p.ParseFile(opts.input)
	if err != nil {
		return fmt.Errorf("error opening input file %s: %w", opts.input, err)
	}
	log.Printf("Loaded %d documents", len(result.Documents))

	for _, pe := range result.Errors {
		log.Printf("warning: %s", pe.Error())
	}

	if opts.output == "" || opts.output == "-" {
		return export.WriteJSON(stdout, result)
	}

	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %w", opts.output, err)
	}
	if err := export.WriteJSON(f, result); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
