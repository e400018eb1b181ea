// Package export writes a parsed SCIP index as a JSON array of occurrence
// facts.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/scipsym/pkg/types"
)

// Fact is one occurrence in the exported array
type Fact struct {
	Path         string       `json:"path"`
	Language     string       `json:"language,omitempty"`
	Symbol       string       `json:"symbol"`
	Parsed       types.Symbol `json:"parsed"`
	Range        types.Range  `json:"range"`
	Roles        int32        `json:"roles,omitempty"`
	IsDefinition bool         `json:"is_definition"`
}

// WriteJSON streams every occurrence in result to w as a JSON array followed
// by a newline. A result with no occurrences writes "[]\n".
func WriteJSON(w io.Writer, result *types.ParseResult) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("["); err != nil {
		return err
	}

	first := true
	for i := range result.Documents {
		doc := &result.Documents[i]
		for _, occ := range doc.Occurrences {
			data, err := json.Marshal(Fact{
				Path:         doc.Path,
				Language:     doc.Language,
				Symbol:       occ.Symbol,
				Parsed:       occ.Parsed,
				Range:        occ.Range,
				Roles:        occ.Roles,
				IsDefinition: occ.IsDefinition,
			})
			if err != nil {
				return fmt.Errorf("failed to encode occurrence of %q in %s: %w", occ.Symbol, doc.Path, err)
			}

			if !first {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			first = false

			if _, err := bw.Write(data); err != nil {
				return err
			}
		}
	}

	if _, err := bw.WriteString("]\n"); err != nil {
		return err
	}
	return bw.Flush()
}
