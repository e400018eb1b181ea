package storage

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// searchSymbols performs BM25 full-text search over symbols using FTS5
func searchSymbols(ctx context.Context, q querier, indexID int64, query string, limit int, filters *SearchFilters) ([]SymbolResult, error) {
	// Sanitize query for FTS5
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return nil, fmt.Errorf("empty search query")
	}

	// Build query with filters
	sqlQuery := `
		SELECT ` + symbolColumns + `, bm25(symbols_fts) AS score
		FROM symbols_fts
		INNER JOIN symbols s ON symbols_fts.rowid = s.id
		WHERE symbols_fts MATCH ?
		AND s.index_id = ?
	`
	args := []interface{}{sanitized, indexID}

	// Apply filters
	sqlQuery, args = applySymbolFilters(sqlQuery, args, filters)

	// Order by BM25 score (lower is better) and limit
	sqlQuery += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]SymbolResult, 0)
	for rows.Next() {
		var score float64
		sym, err := scanSymbol(rows, &score)
		if err != nil {
			return nil, err
		}
		results = append(results, SymbolResult{
			Symbol:    sym,
			BM25Score: normalizeBM25(score),
		})
	}
	return results, rows.Err()
}

// lookupSymbols finds symbols whose text equals prefix or starts with it.
// The comparison is byte-exact; LIKE would fold ASCII case. Exact matches
// sort first.
func lookupSymbols(ctx context.Context, q querier, indexID int64, prefix string, limit int, filters *SearchFilters) ([]*Symbol, error) {
	if prefix == "" {
		return nil, fmt.Errorf("empty search query")
	}

	sqlQuery := `
		SELECT ` + symbolColumns + `
		FROM symbols s
		WHERE s.index_id = ?
		AND substr(s.symbol, 1, length(?)) = ?
	`
	args := []interface{}{indexID, prefix, prefix}

	sqlQuery, args = applySymbolFilters(sqlQuery, args, filters)

	sqlQuery += " ORDER BY (s.symbol = ?) DESC, s.symbol LIMIT ?"
	args = append(args, prefix, limit)

	rows, err := q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute symbol lookup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	symbols := make([]*Symbol, 0)
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Helper functions

// applySymbolFilters adds WHERE clause filters for symbol queries
func applySymbolFilters(query string, args []interface{}, filters *SearchFilters) (string, []interface{}) {
	if filters == nil || !filters.IncludeLocal {
		query += " AND s.is_local = 0"
	}
	if filters == nil {
		return query, args
	}

	query, args = appendInClause(query, args, "s.scheme", filters.Schemes)
	query, args = appendInClause(query, args, "s.manager", filters.Managers)
	query, args = appendInClause(query, args, "s.package_name", filters.Packages)
	query, args = appendInClause(query, args, "s.leaf_kind", filters.Kinds)
	return query, args
}

// appendInClause adds "AND column IN (?, ...)" for non-empty values
func appendInClause(query string, args []interface{}, column string, values []string) (string, []interface{}) {
	if len(values) == 0 || values[0] == "" {
		return query, args
	}

	query += " AND " + column + " IN ("
	for i, v := range values {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, v)
	}
	query += ")"
	return query, args
}

// normalizeBM25 converts a BM25 score (negative, lower is better) into a
// relevance in (0, 1]. BM25 scores are typically in range [-50, 0].
func normalizeBM25(score float64) float64 {
	return 1.0 / (1.0 + math.Abs(score)/50.0)
}

// sanitizeFTSQuery turns free text into an FTS5 query that matches every
// term as a prefix. Each term is quoted, so FTS5 operators and punctuation
// in user input are treated as plain text.
func sanitizeFTSQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '"'
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if strings.IndexFunc(term, isTokenRune) < 0 {
			continue // nothing FTS5 would index
		}
		quoted = append(quoted, `"`+term+`"*`)
	}
	return strings.Join(quoted, " ")
}

func isTokenRune(r rune) bool {
	return r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 127
}
