// Package storage provides SQLite-backed persistence for datacore
// structures. Containers, container schemas, and record collections are
// stored by name as their JSON interchange forms.
package storage

import (
	"database/sql"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/framelake/datacore/attr"
	"github.com/framelake/datacore/db"
	"github.com/framelake/datacore/errors"
	"github.com/framelake/datacore/records"
)

// Query constants
const (
	createTablesQuery = `
		CREATE TABLE IF NOT EXISTS attribute_containers (
			name       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE IF NOT EXISTS container_schemas (
			name       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE IF NOT EXISTS record_sets (
			name        TEXT PRIMARY KEY,
			record_kind TEXT NOT NULL,
			payload     TEXT NOT NULL,
			updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
		)`

	upsertQuery = `
		INSERT INTO %TABLE% (name, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`

	selectPayloadQuery = `SELECT payload FROM %TABLE% WHERE name = ?`

	listNamesQuery = `SELECT name FROM %TABLE% ORDER BY name`

	upsertRecordSetQuery = `
		INSERT INTO record_sets (name, record_kind, payload, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET
			record_kind = excluded.record_kind,
			payload = excluded.payload,
			updated_at = excluded.updated_at`
)

// Store persists datacore structures in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a Store over an existing database handle. The schema
// must already be initialized (see InitSchema). A nil logger disables
// logging.
func NewStore(db *sql.DB, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, logger: logger}
}

// Open opens (creating if necessary) the SQLite database at path and
// initializes the schema. A nil logger disables logging.
func Open(path string, logger *zap.SugaredLogger) (*Store, error) {
	database, err := db.Open(path, logger)
	if err != nil {
		return nil, err
	}

	s := NewStore(database, logger)
	if err := s.InitSchema(); err != nil {
		database.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the storage tables if they do not exist.
func (s *Store) InitSchema() error {
	if _, err := s.db.Exec(createTablesQuery); err != nil {
		return errors.Wrap(err, "failed to initialize storage schema")
	}
	return nil
}

// SaveContainer persists the container under the given name, replacing
// any previous payload.
func (s *Store) SaveContainer(name string, c *attr.Container) error {
	return s.savePayload("attribute_containers", name, c)
}

// LoadContainer loads the container stored under the given name. Returns
// a not-found error if no container has that name.
func (s *Store) LoadContainer(name string) (*attr.Container, error) {
	var c attr.Container
	if err := s.loadPayload("attribute_containers", name, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveContainerSchema persists the schema under the given name.
func (s *Store) SaveContainerSchema(name string, schema *attr.ContainerSchema) error {
	return s.savePayload("container_schemas", name, schema)
}

// LoadContainerSchema loads the schema stored under the given name.
func (s *Store) LoadContainerSchema(name string) (*attr.ContainerSchema, error) {
	var schema attr.ContainerSchema
	if err := s.loadPayload("container_schemas", name, &schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

// SaveRecords persists the record collection under the given name.
func (s *Store) SaveRecords(name string, rs *records.Records) error {
	payload, err := json.Marshal(rs)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal records %q", name)
	}

	kindName := ""
	if rs.Kind() != nil {
		kindName = rs.Kind().Name
	}

	if _, err := s.db.Exec(upsertRecordSetQuery, name, kindName, string(payload)); err != nil {
		return errors.Wrapf(err, "failed to save records %q", name)
	}

	s.logger.Debugw("saved records", "name", name, "kind", kindName, "count", rs.Len())
	return nil
}

// LoadRecords loads the record collection stored under the given name. A
// nil kind resolves the collection's embedded record kind through the
// kind registry.
func (s *Store) LoadRecords(name string, kind *records.Kind) (*records.Records, error) {
	var payload string
	err := s.db.QueryRow(query(selectPayloadQuery, "record_sets"), name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("records %q do not exist", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load records %q", name)
	}
	return records.FromJSON([]byte(payload), kind)
}

// ListContainers returns the names of all stored containers in sorted
// order.
func (s *Store) ListContainers() ([]string, error) {
	return s.listNames("attribute_containers")
}

// ListRecords returns the names of all stored record collections in
// sorted order.
func (s *Store) ListRecords() ([]string, error) {
	return s.listNames("record_sets")
}

func (s *Store) savePayload(table, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %q", name)
	}

	if _, err := s.db.Exec(query(upsertQuery, table), name, string(payload)); err != nil {
		return errors.Wrapf(err, "failed to save %q", name)
	}

	s.logger.Debugw("saved payload", "table", table, "name", name)
	return nil
}

func (s *Store) loadPayload(table, name string, v any) error {
	var payload string
	err := s.db.QueryRow(query(selectPayloadQuery, table), name).Scan(&payload)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("%q does not exist in %s", name, table)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to load %q", name)
	}
	return json.Unmarshal([]byte(payload), v)
}

func (s *Store) listNames(table string) ([]string, error) {
	rows, err := s.db.Query(query(listNamesQuery, table))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", table)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s row", table)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// query substitutes the table name into a query template. Table names
// are compile-time constants, never user input.
func query(template, table string) string {
	return strings.ReplaceAll(template, "%TABLE%", table)
}
