// Package card builds the JSON payload embedded in a student QR card, renders
// it through a QR encoder and writes the resulting PNG to disk.
package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes reusable identity cards from assignment-bound cards.
type Kind string

const (
	// KindIdentity cards carry only a student id; the scanner asks for the
	// assignment at scan time.
	KindIdentity Kind = "identity"
	// KindSubmission cards are bound to exactly one assignment.
	KindSubmission Kind = "submission"
)

var (
	ErrEmptyStudentID = errors.New("student id is required")
	ErrUnsafeID       = errors.New("identifier cannot be used in a file name")
)

// Payload is the data encoded into the QR symbol. Field order is the wire
// order: studentId first, assignmentId only when present.
type Payload struct {
	StudentID    string `json:"studentId"`
	AssignmentID string `json:"assignmentId,omitempty"`
}

// NewPayload returns a payload for the given identifiers. An empty
// assignmentID produces an identity card.
func NewPayload(studentID, assignmentID string) (Payload, error) {
	if studentID == "" {
		return Payload{}, ErrEmptyStudentID
	}
	return Payload{StudentID: studentID, AssignmentID: assignmentID}, nil
}

// Kind reports whether the payload is an identity or submission card.
func (p Payload) Kind() Kind {
	if p.AssignmentID == "" {
		return KindIdentity
	}
	return KindSubmission
}

// JSON returns the compact JSON form of the payload, the exact string that
// gets embedded into the symbol.
func (p Payload) JSON() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ParsePayload decodes a scanned payload the way the classroom scanner does:
// any JSON object with a non-empty studentId is accepted.
func ParsePayload(data string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Payload{}, fmt.Errorf("parse payload: %w", err)
	}
	if p.StudentID == "" {
		return Payload{}, ErrEmptyStudentID
	}
	return p, nil
}

// Filename returns the deterministic PNG file name for a card.
func Filename(studentID, assignmentID string) string {
	if assignmentID == "" {
		return fmt.Sprintf("QR_%s.png", studentID)
	}
	return fmt.Sprintf("QR_%s_%s.png", studentID, assignmentID)
}

// checkSafe rejects identifiers that would escape the output directory.
func checkSafe(id string) error {
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrUnsafeID, id)
	}
	return nil
}
