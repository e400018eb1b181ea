package types

import "fmt"

// Position represents a location in source code (1-based line and column)
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a 1-based source span. End.Column is inclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DecodeRange converts a SCIP occurrence range into a 1-based Range.
//
// SCIP encodes ranges as 0-based [line, startCol, endCol] when the span is on
// one line, or [startLine, startCol, endLine, endCol] otherwise, with an
// exclusive end column. Lines and the start column shift by one; the end
// column is already the 1-based inclusive column. The end column is clamped
// so that it never precedes the start column.
func DecodeRange(r []int32) (Range, error) {
	var out Range
	switch len(r) {
	case 3:
		out = Range{
			Start: Position{Line: int(r[0]) + 1, Column: int(r[1]) + 1},
			End:   Position{Line: int(r[0]) + 1, Column: int(r[2])},
		}
	case 4:
		out = Range{
			Start: Position{Line: int(r[0]) + 1, Column: int(r[1]) + 1},
			End:   Position{Line: int(r[2]) + 1, Column: int(r[3])},
		}
	default:
		return Range{}, fmt.Errorf("%w: %v", ErrInvalidRange, r)
	}
	out.End.Column = max(out.End.Column, out.Start.Column)
	return out, nil
}
