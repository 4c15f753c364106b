// Package store keeps a SQLite ledger of every card written to disk.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/openclaw/qrcards/card"
)

// CardRecord is one generated card.
type CardRecord struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	AssignmentID string `json:"assignment_id,omitempty"`
	Kind         string `json:"kind"`
	Payload      string `json:"payload"`
	Path         string `json:"path"`
	CreatedAt    int64  `json:"created_at"`
}

// CardStore manages the SQLite card ledger.
type CardStore struct {
	db *sql.DB
}

const createCardsTable = `
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    student_id TEXT NOT NULL,
    assignment_id TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    payload TEXT NOT NULL,
    path TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_cards_student_id ON cards(student_id);
CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at);
`

// NewCardStore opens (or creates) the database at dbPath and applies the
// schema.
func NewCardStore(dbPath string) (*CardStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{createCardsTable, createIndexes} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &CardStore{db: db}, nil
}

// SaveCard inserts rec, assigning an ID when it has none.
func (s *CardStore) SaveCard(rec *CardRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO cards
			(id, student_id, assignment_id, kind, payload, path, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		rec.ID,
		rec.StudentID,
		rec.AssignmentID,
		rec.Kind,
		rec.Payload,
		rec.Path,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// RecordCard implements card.Recorder.
func (s *CardStore) RecordCard(res *card.Result) error {
	return s.SaveCard(&CardRecord{
		StudentID:    res.Payload.StudentID,
		AssignmentID: res.Payload.AssignmentID,
		Kind:         string(res.Payload.Kind()),
		Payload:      res.JSON,
		Path:         res.Path,
		CreatedAt:    res.CreatedAt.Unix(),
	})
}

// ListCards returns cards newest first.
func (s *CardStore) ListCards(limit, offset int) ([]CardRecord, error) {
	const query = `
		SELECT id, student_id, assignment_id, kind, payload, path, created_at
		FROM cards
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// CardsForStudent returns the cards generated for one student, newest first.
func (s *CardStore) CardsForStudent(studentID string, limit int) ([]CardRecord, error) {
	const query = `
		SELECT id, student_id, assignment_id, kind, payload, path, created_at
		FROM cards
		WHERE student_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("cards for student: %w", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// Close closes the underlying database connection.
func (s *CardStore) Close() error {
	return s.db.Close()
}

func scanCards(rows *sql.Rows) ([]CardRecord, error) {
	var cards []CardRecord
	for rows.Next() {
		var c CardRecord
		if err := rows.Scan(
			&c.ID, &c.StudentID, &c.AssignmentID, &c.Kind,
			&c.Payload, &c.Path, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}
