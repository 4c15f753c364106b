package card

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Student is one roster entry.
type Student struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// DemoStudents is the fixed list used by batch mode when no roster is given.
var DemoStudents = []Student{
	{ID: "S123456"},
	{ID: "S001", Name: "Alice"},
	{ID: "S002", Name: "Bob"},
	{ID: "S003", Name: "Charlie"},
}

// Result describes one written card.
type Result struct {
	Payload   Payload
	JSON      string
	Path      string
	CreatedAt time.Time
}

// Recorder persists a history entry for every generated card.
type Recorder interface {
	RecordCard(res *Result) error
}

// Notifier is told about every generated card.
type Notifier interface {
	NotifyCard(res *Result) error
}

// Generator writes cards into OutputDir.
type Generator struct {
	Encoder   Encoder
	Options   Options
	OutputDir string
	Out       io.Writer // confirmation lines; nil discards
	Log       *slog.Logger
	Recorder  Recorder
	Notifier  Notifier
}

// NewGenerator returns a Generator using the skip2 encoder and default options.
func NewGenerator(outputDir string, out io.Writer, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		Encoder:   QREncoder{},
		Options:   DefaultOptions(),
		OutputDir: outputDir,
		Out:       out,
		Log:       log,
	}
}

// Path returns where the card for the given identifiers is written.
func (g *Generator) Path(studentID, assignmentID string) string {
	return filepath.Join(g.OutputDir, Filename(studentID, assignmentID))
}

// Render encodes the payload and returns PNG bytes without touching disk.
func (g *Generator) Render(p Payload) ([]byte, error) {
	data, err := p.JSON()
	if err != nil {
		return nil, err
	}
	return g.renderJSON(data)
}

func (g *Generator) renderJSON(data string) ([]byte, error) {
	img, err := g.Encoder.Encode(data, g.Options)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", data, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Generate writes the card for studentID (and assignmentID when non-empty)
// and echoes the file name and payload. Existing files are overwritten.
func (g *Generator) Generate(studentID, assignmentID string) (*Result, error) {
	p, err := NewPayload(studentID, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := checkSafe(studentID); err != nil {
		return nil, err
	}
	if assignmentID != "" {
		if err := checkSafe(assignmentID); err != nil {
			return nil, err
		}
	}

	data, err := p.JSON()
	if err != nil {
		return nil, err
	}
	img, err := g.renderJSON(data)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", g.OutputDir, err)
	}
	path := g.Path(studentID, assignmentID)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	res := &Result{Payload: p, JSON: data, Path: path, CreatedAt: time.Now()}

	if g.Out != nil {
		fmt.Fprintf(g.Out, "Generated QR Code: %s\n", path)
		fmt.Fprintf(g.Out, "   Content: %s\n", data)
	}
	g.logger().Info("card generated", "path", path, "kind", p.Kind(), "student_id", studentID)

	// History and webhook delivery are best effort; the card is already on disk.
	if g.Recorder != nil {
		if err := g.Recorder.RecordCard(res); err != nil {
			g.logger().Warn("record card failed", "error", err, "path", path)
		}
	}
	if g.Notifier != nil {
		if err := g.Notifier.NotifyCard(res); err != nil {
			g.logger().Warn("notify card failed", "error", err, "path", path)
		}
	}
	return res, nil
}

// Batch writes an identity card for every student in order. The first
// error stops the batch; cards written before it are returned with it.
func (g *Generator) Batch(students []Student) ([]*Result, error) {
	results := make([]*Result, 0, len(students))
	for _, s := range students {
		res, err := g.Generate(s.ID, "")
		if err != nil {
			return results, fmt.Errorf("batch stopped at %q: %w", s.ID, err)
		}
		results = append(results, res)
	}
	g.logger().Info("batch complete", "count", len(results), "output_dir", g.OutputDir)
	return results, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Log == nil {
		return slog.Default()
	}
	return g.Log
}
