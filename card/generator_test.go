package card

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEncoder struct {
	mock.Mock
}

func (m *mockEncoder) Encode(data string, opts Options) (image.Image, error) {
	args := m.Called(data, opts)
	img, _ := args.Get(0).(image.Image)
	return img, args.Error(1)
}

type recorderFunc func(res *Result) error

func (f recorderFunc) RecordCard(res *Result) error { return f(res) }

type notifierFunc func(res *Result) error

func (f notifierFunc) NotifyCard(res *Result) error { return f(res) }

func blank() image.Image {
	return image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.White, color.Black})
}

func newTestGenerator(t *testing.T, enc Encoder) (*Generator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	g := NewGenerator(filepath.Join(t.TempDir(), "qrcodes"), &out, nil)
	g.Encoder = enc
	return g, &out
}

func TestGenerateIdentityCard(t *testing.T) {
	enc := new(mockEncoder)
	enc.On("Encode", `{"studentId":"S123456"}`, DefaultOptions()).Return(blank(), nil).Once()

	g, out := newTestGenerator(t, enc)
	res, err := g.Generate("S123456", "")
	require.NoError(t, err)
	enc.AssertExpectations(t)

	assert.Equal(t, filepath.Join(g.OutputDir, "QR_S123456.png"), res.Path)
	assert.Equal(t, KindIdentity, res.Payload.Kind())
	assert.FileExists(t, res.Path)
	assert.Contains(t, out.String(), "Generated QR Code: "+res.Path)
	assert.Contains(t, out.String(), `Content: {"studentId":"S123456"}`)
}

func TestGenerateSubmissionCard(t *testing.T) {
	enc := new(mockEncoder)
	enc.On("Encode", `{"studentId":"S001","assignmentId":"HW01"}`, mock.Anything).Return(blank(), nil)

	g, _ := newTestGenerator(t, enc)
	res, err := g.Generate("S001", "HW01")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(g.OutputDir, "QR_S001_HW01.png"), res.Path)
	assert.Equal(t, KindSubmission, res.Payload.Kind())
	assert.FileExists(t, res.Path)
}

func TestGenerateIsIdempotentByName(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})

	first, err := g.Generate("S001", "HW01")
	require.NoError(t, err)
	second, err := g.Generate("S001", "HW01")
	require.NoError(t, err)
	assert.Equal(t, first.Path, second.Path)

	entries, err := os.ReadDir(g.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGenerateWritesDecodablePNG(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})
	res, err := g.Generate("S123456", "")
	require.NoError(t, err)

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, cfg.Width, cfg.Height)
}

func TestGenerateRejectsEmptyStudent(t *testing.T) {
	enc := new(mockEncoder)
	g, out := newTestGenerator(t, enc)

	_, err := g.Generate("", "HW01")
	assert.ErrorIs(t, err, ErrEmptyStudentID)
	enc.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
	assert.Empty(t, out.String())
	assert.NoDirExists(t, g.OutputDir)
}

func TestGenerateRejectsUnsafeIDs(t *testing.T) {
	g, _ := newTestGenerator(t, new(mockEncoder))

	_, err := g.Generate("../S1", "")
	assert.ErrorIs(t, err, ErrUnsafeID)
	_, err = g.Generate("S1", "a/b")
	assert.ErrorIs(t, err, ErrUnsafeID)
}

func TestGenerateEncoderError(t *testing.T) {
	enc := new(mockEncoder)
	enc.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	g, _ := newTestGenerator(t, enc)
	_, err := g.Generate("S1", "")
	assert.ErrorContains(t, err, "boom")
	assert.NoDirExists(t, g.OutputDir)
}

func TestGenerateFilesystemError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	g := NewGenerator(filepath.Join(blocker, "qrcodes"), nil, nil)
	_, err := g.Generate("S1", "")
	assert.ErrorContains(t, err, "creating output dir")
}

func TestGenerateRecordsAndNotifies(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})

	var recorded, notified []*Result
	g.Recorder = recorderFunc(func(res *Result) error {
		recorded = append(recorded, res)
		return nil
	})
	g.Notifier = notifierFunc(func(res *Result) error {
		notified = append(notified, res)
		return errors.New("webhook down")
	})

	res, err := g.Generate("S001", "HW01")
	require.NoError(t, err, "notifier failures do not fail generation")
	assert.Equal(t, []*Result{res}, recorded)
	assert.Equal(t, []*Result{res}, notified)
}

func TestBatchDemoStudents(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})

	results, err := g.Batch(DemoStudents)
	require.NoError(t, err)
	require.Len(t, results, 4)

	entries, err := os.ReadDir(g.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	for i, res := range results {
		assert.Equal(t, DemoStudents[i].ID, res.Payload.StudentID)
		assert.Empty(t, res.Payload.AssignmentID)
		assert.NotContains(t, res.JSON, "assignmentId")
	}
}

func TestBatchStopsAtFirstError(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})

	students := []Student{{ID: "S1"}, {ID: ""}, {ID: "S3"}}
	results, err := g.Batch(students)
	assert.ErrorIs(t, err, ErrEmptyStudentID)
	assert.Len(t, results, 1)
	assert.NoFileExists(t, g.Path("S3", ""))
}

func TestRender(t *testing.T) {
	g, _ := newTestGenerator(t, QREncoder{})
	p, err := NewPayload("S001", "")
	require.NoError(t, err)

	data, err := g.Render(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	assert.NoDirExists(t, g.OutputDir)
}
