package results

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const createResults = `
  CREATE TABLE IF NOT EXISTS results (
  numNodes INTEGER NOT NULL,
  numEdges INTEGER NOT NULL,
  maxWeight INTEGER NOT NULL,
  seed INTEGER NOT NULL,
  algorithm INTEGER NOT NULL,
  runId TEXT NOT NULL,
  distances BLOB NOT NULL,
  predecessors BLOB NOT NULL,
  PRIMARY KEY (numNodes, numEdges, maxWeight, seed, algorithm)
  );`

// A SQLiteStore keeps results in one SQLite database,
// with the vectors gob-encoded.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates a result database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open result database: %w", err)
	}
	if _, err := db.Exec(createResults); err != nil {
		db.Close()
		return nil, fmt.Errorf("create result table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StoreSoft(key Key, r *Record) error {
	err := s.insert("INSERT", key, r)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("store %s: %w", key, ErrExists)
	}
	return err
}

func (s *SQLiteStore) StoreHard(key Key, r *Record) error {
	return s.insert("INSERT OR REPLACE", key, r)
}

func (s *SQLiteStore) Read(key Key) (*Record, error) {
	row := s.db.QueryRow(
		"SELECT runId, distances, predecessors FROM results WHERE numNodes=? AND "+
			"numEdges=? AND maxWeight=? AND seed=? AND algorithm=?",
		key.NumNodes, key.NumEdges, key.MaxWeight, key.Seed, int(key.Algorithm),
	)
	var r Record
	var distBuf, predBuf []byte
	if err := row.Scan(&r.RunID, &distBuf, &predBuf); errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read %s: %w", key, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(distBuf)).Decode(&r.Distances); err != nil {
		return nil, fmt.Errorf("read %s: decode distances: %w", key, err)
	}
	if err := gob.NewDecoder(bytes.NewReader(predBuf)).Decode(&r.Predecessors); err != nil {
		return nil, fmt.Errorf("read %s: decode predecessors: %w", key, err)
	}
	return &r, nil
}

func (s *SQLiteStore) insert(verb string, key Key, r *Record) error {
	if err := checkRecord(r); err != nil {
		return err
	}
	var distBuf, predBuf bytes.Buffer
	if err := gob.NewEncoder(&distBuf).Encode(r.Distances); err != nil {
		return fmt.Errorf("store %s: encode distances: %w", key, err)
	}
	if err := gob.NewEncoder(&predBuf).Encode(r.Predecessors); err != nil {
		return fmt.Errorf("store %s: encode predecessors: %w", key, err)
	}
	_, err := s.db.Exec(
		verb+" INTO results VALUES(?,?,?,?,?,?,?,?)",
		key.NumNodes, key.NumEdges, key.MaxWeight, key.Seed, int(key.Algorithm), r.RunID,
		distBuf.Bytes(), predBuf.Bytes(),
	)
	return err
}
