package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// Both drivers use SQLite's own message text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// rowScanner is implemented by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Index operations

const indexColumns = `
	id, source_path, project_root, tool_name, tool_version, content_hash,
	total_documents, total_symbols, index_version, last_indexed_at, created_at, updated_at
`

func scanIndex(row rowScanner) (*Index, error) {
	var index Index
	var hash []byte
	var projectRoot, toolName, toolVersion sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&index.ID, &index.SourcePath, &projectRoot, &toolName, &toolVersion, &hash,
		&index.TotalDocuments, &index.TotalSymbols, &index.IndexVersion,
		&lastIndexedAt, &index.CreatedAt, &index.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(index.ContentHash[:], hash)
	index.ProjectRoot = projectRoot.String
	index.ToolName = toolName.String
	index.ToolVersion = toolVersion.String
	if lastIndexedAt.Valid {
		index.LastIndexedAt = lastIndexedAt.Time
	}
	return &index, nil
}

// createIndexWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createIndexWithQuerier(ctx context.Context, q querier, index *Index) error {
	query := `
		INSERT INTO indexes (source_path, project_root, tool_name, tool_version, content_hash, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if index.IndexVersion == "" {
		index.IndexVersion = CurrentSchemaVersion
	}
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		index.SourcePath, index.ProjectRoot, index.ToolName, index.ToolVersion,
		index.ContentHash[:], index.IndexVersion, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("index %s: %w", index.SourcePath, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create index: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	index.ID = id
	index.CreatedAt = now
	index.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateIndex(ctx context.Context, index *Index) error {
	return s.createIndexWithQuerier(ctx, s.querier(), index)
}

// getIndexWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getIndexWithQuerier(ctx context.Context, q querier, sourcePath string) (*Index, error) {
	query := `SELECT ` + indexColumns + ` FROM indexes WHERE source_path = ?`
	return scanIndex(q.QueryRowContext(ctx, query, sourcePath))
}

func (s *SQLiteStorage) GetIndex(ctx context.Context, sourcePath string) (*Index, error) {
	return s.getIndexWithQuerier(ctx, s.querier(), sourcePath)
}

func (s *SQLiteStorage) getIndexByIDWithQuerier(ctx context.Context, q querier, indexID int64) (*Index, error) {
	query := `SELECT ` + indexColumns + ` FROM indexes WHERE id = ?`
	return scanIndex(q.QueryRowContext(ctx, query, indexID))
}

func (s *SQLiteStorage) GetIndexByID(ctx context.Context, indexID int64) (*Index, error) {
	return s.getIndexByIDWithQuerier(ctx, s.querier(), indexID)
}

// updateIndexWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateIndexWithQuerier(ctx context.Context, q querier, index *Index) error {
	query := `
		UPDATE indexes
		SET project_root = ?, tool_name = ?, tool_version = ?, content_hash = ?,
		    total_documents = ?, total_symbols = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		index.ProjectRoot, index.ToolName, index.ToolVersion, index.ContentHash[:],
		index.TotalDocuments, index.TotalSymbols, index.LastIndexedAt, now, index.ID)
	if err != nil {
		return fmt.Errorf("failed to update index: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	index.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateIndex(ctx context.Context, index *Index) error {
	return s.updateIndexWithQuerier(ctx, s.querier(), index)
}

func (s *SQLiteStorage) listIndexesWithQuerier(ctx context.Context, q querier) ([]*Index, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+indexColumns+` FROM indexes ORDER BY source_path`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	indexes := make([]*Index, 0)
	for rows.Next() {
		index, err := scanIndex(rows)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, index)
	}
	return indexes, rows.Err()
}

func (s *SQLiteStorage) ListIndexes(ctx context.Context) ([]*Index, error) {
	return s.listIndexesWithQuerier(ctx, s.querier())
}

// Document operations

const documentColumns = `
	id, index_id, relative_path, language, content_hash, occurrence_count,
	parse_error, last_indexed_at, created_at, updated_at
`

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var hash []byte
	var language, parseError sql.NullString
	var lastIndexedAt sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.IndexID, &doc.RelativePath, &language, &hash,
		&doc.OccurrenceCount, &parseError, &lastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	doc.Language = language.String
	if parseError.Valid {
		doc.ParseError = &parseError.String
	}
	if lastIndexedAt.Valid {
		doc.LastIndexedAt = lastIndexedAt.Time
	}
	return &doc, nil
}

// upsertDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (index_id, relative_path, language, content_hash, occurrence_count, parse_error, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_id, relative_path) DO UPDATE SET
			language = excluded.language,
			content_hash = excluded.content_hash,
			occurrence_count = excluded.occurrence_count,
			parse_error = excluded.parse_error,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.IndexID, doc.RelativePath, doc.Language, doc.ContentHash[:],
		doc.OccurrenceCount, doc.ParseError, now, now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.LastIndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.querier(), doc)
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, indexID int64, relativePath string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE index_id = ? AND relative_path = ?`
	return scanDocument(q.QueryRowContext(ctx, query, indexID, relativePath))
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, indexID int64, relativePath string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), indexID, relativePath)
}

func (s *SQLiteStorage) getDocumentByIDWithQuerier(ctx context.Context, q querier, documentID int64) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	return scanDocument(q.QueryRowContext(ctx, query, documentID))
}

func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return s.getDocumentByIDWithQuerier(ctx, s.querier(), documentID)
}

// listDocumentsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, indexID int64) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE index_id = ? ORDER BY relative_path`
	rows, err := q.QueryContext(ctx, query, indexID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, indexID int64) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), indexID)
}

// deleteDocumentWithQuerier is the internal implementation that uses a querier.
// Occurrences cascade; local symbols are removed by trigger.
func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Symbol operations

const symbolColumns = `
	s.id, s.index_id, s.document_id, s.symbol, s.is_local, s.scheme, s.manager,
	s.package_name, s.package_version, s.descriptor_path, s.display_name,
	s.leaf_kind, s.documentation, s.created_at, s.updated_at
`

func scanSymbol(row rowScanner, extra ...interface{}) (*Symbol, error) {
	var sym Symbol
	var manager, packageName, packageVersion sql.NullString
	var descriptorPath, displayName, leafKind, documentation sql.NullString
	dest := []interface{}{
		&sym.ID, &sym.IndexID, &sym.DocumentID, &sym.Symbol, &sym.IsLocal, &sym.Scheme,
		&manager, &packageName, &packageVersion, &descriptorPath, &displayName,
		&leafKind, &documentation, &sym.CreatedAt, &sym.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sym.Manager = nullableString(manager)
	sym.PackageName = nullableString(packageName)
	sym.PackageVersion = nullableString(packageVersion)
	sym.DescriptorPath = descriptorPath.String
	sym.DisplayName = displayName.String
	sym.LeafKind = leafKind.String
	sym.Documentation = documentation.String
	return &sym, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// upsertSymbolWithQuerier is the internal implementation that uses a querier.
// The symbol's descriptor chain is replaced along with the row.
func (s *SQLiteStorage) upsertSymbolWithQuerier(ctx context.Context, q querier, symbol *Symbol) error {
	// Use atomic INSERT ... ON CONFLICT to avoid race conditions
	query := `
		INSERT INTO symbols (
			index_id, document_id, symbol, is_local, scheme, manager, package_name,
			package_version, descriptor_path, display_name, leaf_kind, documentation,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_id, symbol, document_id)
		DO UPDATE SET
			is_local = excluded.is_local,
			scheme = excluded.scheme,
			manager = excluded.manager,
			package_name = excluded.package_name,
			package_version = excluded.package_version,
			descriptor_path = excluded.descriptor_path,
			display_name = excluded.display_name,
			leaf_kind = excluded.leaf_kind,
			documentation = excluded.documentation,
			updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		symbol.IndexID, symbol.DocumentID, symbol.Symbol, symbol.IsLocal, symbol.Scheme,
		symbol.Manager, symbol.PackageName, symbol.PackageVersion, symbol.DescriptorPath,
		symbol.DisplayName, symbol.LeafKind, symbol.Documentation, now, now,
	).Scan(&symbol.ID, &symbol.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol: %w", err)
	}
	symbol.UpdatedAt = now

	if _, err := q.ExecContext(ctx, `DELETE FROM descriptors WHERE symbol_id = ?`, symbol.ID); err != nil {
		return fmt.Errorf("failed to clear descriptors: %w", err)
	}
	for i := range symbol.Descriptors {
		d := &symbol.Descriptors[i]
		d.SymbolID = symbol.ID
		d.Position = i
		_, err := q.ExecContext(ctx,
			`INSERT INTO descriptors (symbol_id, position, name, kind, disambiguator) VALUES (?, ?, ?, ?, ?)`,
			d.SymbolID, d.Position, d.Name, d.Kind, d.Disambiguator)
		if err != nil {
			return fmt.Errorf("failed to insert descriptor: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return s.upsertSymbolWithQuerier(ctx, s.querier(), symbol)
}

// getSymbolWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSymbolWithQuerier(ctx context.Context, q querier, symbolID int64) (*Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols s WHERE s.id = ?`
	sym, err := scanSymbol(q.QueryRowContext(ctx, query, symbolID))
	if err != nil {
		return nil, err
	}
	if sym.Descriptors, err = s.listDescriptorsWithQuerier(ctx, q, sym.ID); err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *SQLiteStorage) GetSymbol(ctx context.Context, symbolID int64) (*Symbol, error) {
	return s.getSymbolWithQuerier(ctx, s.querier(), symbolID)
}

// getSymbolByTextWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getSymbolByTextWithQuerier(ctx context.Context, q querier, indexID, documentID int64, text string) (*Symbol, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols s WHERE s.index_id = ? AND s.document_id = ? AND s.symbol = ?`
	sym, err := scanSymbol(q.QueryRowContext(ctx, query, indexID, documentID, text))
	if err != nil {
		return nil, err
	}
	if sym.Descriptors, err = s.listDescriptorsWithQuerier(ctx, q, sym.ID); err != nil {
		return nil, err
	}
	return sym, nil
}

func (s *SQLiteStorage) GetSymbolByText(ctx context.Context, indexID, documentID int64, text string) (*Symbol, error) {
	return s.getSymbolByTextWithQuerier(ctx, s.querier(), indexID, documentID, text)
}

func (s *SQLiteStorage) listDescriptorsWithQuerier(ctx context.Context, q querier, symbolID int64) ([]Descriptor, error) {
	query := `
		SELECT symbol_id, position, name, kind, disambiguator
		FROM descriptors
		WHERE symbol_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, symbolID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	descriptors := make([]Descriptor, 0)
	for rows.Next() {
		var d Descriptor
		var disambiguator sql.NullString
		if err := rows.Scan(&d.SymbolID, &d.Position, &d.Name, &d.Kind, &disambiguator); err != nil {
			return nil, err
		}
		d.Disambiguator = disambiguator.String
		descriptors = append(descriptors, d)
	}
	return descriptors, rows.Err()
}

func (s *SQLiteStorage) ListDescriptors(ctx context.Context, symbolID int64) ([]Descriptor, error) {
	return s.listDescriptorsWithQuerier(ctx, s.querier(), symbolID)
}

// pruneGlobalSymbolsWithQuerier deletes the index's global symbols whose IDs
// are not in keep. Descriptors and occurrences cascade.
func (s *SQLiteStorage) pruneGlobalSymbolsWithQuerier(ctx context.Context, q querier, indexID int64, keep map[int64]struct{}) (int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM symbols WHERE index_id = ? AND document_id = ? AND is_local = 0`,
		indexID, GlobalDocumentID)
	if err != nil {
		return 0, err
	}

	// Collect first: the connection cannot run the deletes while rows is open
	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, err
		}
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, err
	}
	_ = rows.Close()

	for i, id := range stale {
		if _, err := q.ExecContext(ctx, `DELETE FROM symbols WHERE id = ?`, id); err != nil {
			return i, fmt.Errorf("failed to delete symbol %d: %w", id, err)
		}
	}
	return len(stale), nil
}

func (s *SQLiteStorage) PruneGlobalSymbols(ctx context.Context, indexID int64, keep map[int64]struct{}) (int, error) {
	return s.pruneGlobalSymbolsWithQuerier(ctx, s.querier(), indexID, keep)
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, indexID int64, query string, limit int, filters *SearchFilters) ([]SymbolResult, error) {
	return searchSymbols(ctx, s.querier(), indexID, query, limit, filters)
}

func (s *SQLiteStorage) LookupSymbols(ctx context.Context, indexID int64, prefix string, limit int, filters *SearchFilters) ([]*Symbol, error) {
	return lookupSymbols(ctx, s.querier(), indexID, prefix, limit, filters)
}

// Occurrence operations

const occurrenceColumns = `
	o.id, o.document_id, o.symbol_id, o.start_line, o.start_col, o.end_line, o.end_col,
	o.roles, o.is_definition, d.relative_path, o.created_at
`

// insertOccurrenceWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) insertOccurrenceWithQuerier(ctx context.Context, q querier, occ *Occurrence) error {
	query := `
		INSERT INTO occurrences (
			document_id, symbol_id, start_line, start_col, end_line, end_col,
			roles, is_definition, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, symbol_id, start_line, start_col)
		DO UPDATE SET
			end_line = excluded.end_line,
			end_col = excluded.end_col,
			roles = occurrences.roles | excluded.roles,
			is_definition = occurrences.is_definition OR excluded.is_definition
		RETURNING id, created_at
	`
	err := q.QueryRowContext(ctx, query,
		occ.DocumentID, occ.SymbolID, occ.StartLine, occ.StartCol, occ.EndLine, occ.EndCol,
		occ.Roles, occ.IsDefinition, time.Now(),
	).Scan(&occ.ID, &occ.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) InsertOccurrence(ctx context.Context, occ *Occurrence) error {
	return s.insertOccurrenceWithQuerier(ctx, s.querier(), occ)
}

func (s *SQLiteStorage) listOccurrencesWithQuerier(ctx context.Context, q querier, where string, arg int64) ([]*Occurrence, error) {
	query := `
		SELECT ` + occurrenceColumns + `
		FROM occurrences o
		JOIN documents d ON o.document_id = d.id
		WHERE ` + where + `
		ORDER BY d.relative_path, o.start_line, o.start_col
	`
	rows, err := q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	occurrences := make([]*Occurrence, 0)
	for rows.Next() {
		var occ Occurrence
		err := rows.Scan(
			&occ.ID, &occ.DocumentID, &occ.SymbolID, &occ.StartLine, &occ.StartCol,
			&occ.EndLine, &occ.EndCol, &occ.Roles, &occ.IsDefinition, &occ.DocumentPath, &occ.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		occurrences = append(occurrences, &occ)
	}
	return occurrences, rows.Err()
}

func (s *SQLiteStorage) ListOccurrencesByDocument(ctx context.Context, documentID int64) ([]*Occurrence, error) {
	return s.listOccurrencesWithQuerier(ctx, s.querier(), "o.document_id = ?", documentID)
}

func (s *SQLiteStorage) ListOccurrencesBySymbol(ctx context.Context, symbolID int64) ([]*Occurrence, error) {
	return s.listOccurrencesWithQuerier(ctx, s.querier(), "o.symbol_id = ?", symbolID)
}

// deleteOccurrencesByDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteOccurrencesByDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM occurrences WHERE document_id = ?`, documentID)
	return err
}

func (s *SQLiteStorage) DeleteOccurrencesByDocument(ctx context.Context, documentID int64) error {
	return s.deleteOccurrencesByDocumentWithQuerier(ctx, s.querier(), documentID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, indexID int64) (*IndexStatus, error) {
	index, err := s.getIndexByIDWithQuerier(ctx, q, indexID)
	if err != nil {
		return nil, err
	}

	status := &IndexStatus{
		Index:         index,
		LastIndexedAt: index.LastIndexedAt,
	}

	counts := []struct {
		dest  *int
		query string
	}{
		{&status.DocumentsCount, `SELECT COUNT(*) FROM documents WHERE index_id = ?`},
		{&status.SymbolsCount, `SELECT COUNT(*) FROM symbols WHERE index_id = ? AND is_local = 0`},
		{&status.LocalSymbolsCount, `SELECT COUNT(*) FROM symbols WHERE index_id = ? AND is_local = 1`},
		{&status.OccurrencesCount, `
			SELECT COUNT(*) FROM occurrences o
			JOIN documents d ON o.document_id = d.id
			WHERE d.index_id = ?`},
		{&status.DefinitionsCount, `
			SELECT COUNT(*) FROM occurrences o
			JOIN documents d ON o.document_id = d.id
			WHERE d.index_id = ? AND o.is_definition = 1`},
		{&status.Health.DocumentsWithErrors, `SELECT COUNT(*) FROM documents WHERE index_id = ? AND parse_error IS NOT NULL`},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query, indexID).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	// Calculate database size
	var pageCount, pageSize int
	err = q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var ftsTable string
	ftsErr := q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE name = 'symbols_fts'").Scan(&ftsTable)

	status.Health.DatabaseAccessible = true
	status.Health.FTSIndexesBuilt = ftsErr == nil

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, indexID int64) (*IndexStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), indexID)
}

// Transaction implementations route every call through the transaction so a
// single-connection pool never waits on itself.

func (t *sqliteTx) CreateIndex(ctx context.Context, index *Index) error {
	return t.storage.createIndexWithQuerier(ctx, t.querier(), index)
}

func (t *sqliteTx) GetIndex(ctx context.Context, sourcePath string) (*Index, error) {
	return t.storage.getIndexWithQuerier(ctx, t.querier(), sourcePath)
}

func (t *sqliteTx) GetIndexByID(ctx context.Context, indexID int64) (*Index, error) {
	return t.storage.getIndexByIDWithQuerier(ctx, t.querier(), indexID)
}

func (t *sqliteTx) UpdateIndex(ctx context.Context, index *Index) error {
	return t.storage.updateIndexWithQuerier(ctx, t.querier(), index)
}

func (t *sqliteTx) ListIndexes(ctx context.Context) ([]*Index, error) {
	return t.storage.listIndexesWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, indexID int64, relativePath string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), indexID, relativePath)
}

func (t *sqliteTx) GetDocumentByID(ctx context.Context, documentID int64) (*Document, error) {
	return t.storage.getDocumentByIDWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, indexID int64) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), indexID)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) UpsertSymbol(ctx context.Context, symbol *Symbol) error {
	return t.storage.upsertSymbolWithQuerier(ctx, t.querier(), symbol)
}

func (t *sqliteTx) GetSymbol(ctx context.Context, symbolID int64) (*Symbol, error) {
	return t.storage.getSymbolWithQuerier(ctx, t.querier(), symbolID)
}

func (t *sqliteTx) GetSymbolByText(ctx context.Context, indexID, documentID int64, text string) (*Symbol, error) {
	return t.storage.getSymbolByTextWithQuerier(ctx, t.querier(), indexID, documentID, text)
}

func (t *sqliteTx) ListDescriptors(ctx context.Context, symbolID int64) ([]Descriptor, error) {
	return t.storage.listDescriptorsWithQuerier(ctx, t.querier(), symbolID)
}

func (t *sqliteTx) PruneGlobalSymbols(ctx context.Context, indexID int64, keep map[int64]struct{}) (int, error) {
	return t.storage.pruneGlobalSymbolsWithQuerier(ctx, t.querier(), indexID, keep)
}

func (t *sqliteTx) SearchSymbols(ctx context.Context, indexID int64, query string, limit int, filters *SearchFilters) ([]SymbolResult, error) {
	return searchSymbols(ctx, t.querier(), indexID, query, limit, filters)
}

func (t *sqliteTx) LookupSymbols(ctx context.Context, indexID int64, prefix string, limit int, filters *SearchFilters) ([]*Symbol, error) {
	return lookupSymbols(ctx, t.querier(), indexID, prefix, limit, filters)
}

func (t *sqliteTx) InsertOccurrence(ctx context.Context, occ *Occurrence) error {
	return t.storage.insertOccurrenceWithQuerier(ctx, t.querier(), occ)
}

func (t *sqliteTx) ListOccurrencesByDocument(ctx context.Context, documentID int64) ([]*Occurrence, error) {
	return t.storage.listOccurrencesWithQuerier(ctx, t.querier(), "o.document_id = ?", documentID)
}

func (t *sqliteTx) ListOccurrencesBySymbol(ctx context.Context, symbolID int64) ([]*Occurrence, error) {
	return t.storage.listOccurrencesWithQuerier(ctx, t.querier(), "o.symbol_id = ?", symbolID)
}

func (t *sqliteTx) DeleteOccurrencesByDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteOccurrencesByDocumentWithQuerier(ctx, t.querier(), documentID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, indexID int64) (*IndexStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), indexID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	// SQLite does not support true nested transactions
	return nil, errors.New("nested transactions not supported")
}
