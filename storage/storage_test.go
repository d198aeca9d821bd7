package storage

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loa-scraper/models"
)

func sampleVolume() *models.VolumeRecord {
	return &models.VolumeRecord{
		Number:        1,
		Title:         "The Adventures of Tom Sawyer",
		Author:        "Mark Twain",
		AuthorLink:    "https://en.wikipedia.org/wiki/Mark_Twain",
		DetailLink:    "https://www.loa.org/books/1-tom-sawyer",
		OriginalLabel: "Mark Twain: The Adventures of Tom Sawyer",
	}
}

func TestCSVStreamWriterHeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVStreamWriter(&buf)

	if err := w.Write(sampleVolume()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header: got %v", rows[0])
	}
	want := []string{"1", "The Adventures of Tom Sawyer", "Mark Twain",
		"https://en.wikipedia.org/wiki/Mark_Twain", "https://www.loa.org/books/1-tom-sawyer",
		"Mark Twain: The Adventures of Tom Sawyer", ""}
	if strings.Join(rows[1], "|") != strings.Join(want, "|") {
		t.Errorf("row: got %v, want %v", rows[1], want)
	}
}

func TestCSVQuotesDelimiterAndQuote(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVStreamWriter(&buf)

	v := &models.VolumeRecord{Number: 12, Title: `Typee, Omoo, "Mardi"`, OriginalLabel: `Typee, Omoo, "Mardi"`}
	if err := w.Write(v); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if got := lines[1]; got != `12,"Typee, Omoo, ""Mardi""",,,,"Typee, Omoo, ""Mardi""",` {
		t.Errorf("quoted row: got %s", got)
	}
}

func TestCSVNothingWrittenWithoutRecords(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVStreamWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
	if w.Opened() {
		t.Error("writer should not report opened")
	}
}

func TestCSVFileWriterCreatesLazily(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "volumes.csv")
	w := NewCSVFileWriter(path)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not exist before first write, stat err: %v", err)
	}
	if err := w.Write(sampleVolume()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(data), "volume_number,title,author,") {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestCSVFileWriterCreateFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewCSVFileWriter(filepath.Join(blocker, "volumes.csv"))
	if err := w.Write(sampleVolume()); err == nil {
		t.Error("expected error when output directory cannot be created")
	}
}

type recordingWriter struct {
	got      []uint32
	failOn   uint32
	closeErr error
}

func (r *recordingWriter) Write(v *models.VolumeRecord) error {
	if v.Number == r.failOn {
		return errors.New("write failed")
	}
	r.got = append(r.got, v.Number)
	return nil
}

func (r *recordingWriter) Close() error { return r.closeErr }

func TestTeeWritesToAll(t *testing.T) {
	a, b := &recordingWriter{}, &recordingWriter{}
	w := Tee(a, b)

	for _, n := range []uint32{1, 2} {
		if err := w.Write(&models.VolumeRecord{Number: n, Title: "t"}); err != nil {
			t.Fatal(err)
		}
	}
	if len(a.got) != 2 || len(b.got) != 2 {
		t.Errorf("tee: got %v and %v", a.got, b.got)
	}
}

func TestTeeStopsOnErrorAndJoinsCloseErrors(t *testing.T) {
	a := &recordingWriter{failOn: 2, closeErr: errors.New("a")}
	b := &recordingWriter{closeErr: errors.New("b")}
	w := Tee(a, b)

	if err := w.Write(&models.VolumeRecord{Number: 2, Title: "t"}); err == nil {
		t.Error("expected write error")
	}
	if len(b.got) != 0 {
		t.Error("second writer should not see a record the first one rejected")
	}

	err := w.Close()
	if err == nil || !strings.Contains(err.Error(), "a") || !strings.Contains(err.Error(), "b") {
		t.Errorf("Close: got %v", err)
	}
}

type abortingWriter struct {
	recordingWriter
	aborted, closed bool
}

func (a *abortingWriter) Abort() error {
	a.aborted = true
	return nil
}

func (a *abortingWriter) Close() error {
	a.closed = true
	return nil
}

type closeCounter struct {
	recordingWriter
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return nil
}

func TestAbortSkipsCommitOnAborters(t *testing.T) {
	pg := &abortingWriter{}
	csvOut := &closeCounter{}

	if err := Abort(Tee(csvOut, pg)); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	if !pg.aborted || pg.closed {
		t.Errorf("aborter: aborted=%v closed=%v, want aborted only", pg.aborted, pg.closed)
	}
	if csvOut.closes != 1 {
		t.Errorf("plain writer should be closed once, got %d", csvOut.closes)
	}
}

func TestPostgresAbortDropsPendingWithoutTouchingTable(t *testing.T) {
	// sql.Open does not dial, so any statement would fail against this DSN.
	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatal(err)
	}
	pw := &PostgresWriter{db: db}
	for i := 0; i < 3; i++ {
		if err := pw.Write(sampleVolume()); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if err := pw.Abort(); err != nil {
		t.Fatalf("Abort should not run the pending batch: %v", err)
	}
	if len(pw.pending) != 0 || pw.tx != nil {
		t.Errorf("after Abort: pending=%d tx=%v", len(pw.pending), pw.tx)
	}
}

func TestInsertBatchPlaceholders(t *testing.T) {
	batch := []*models.VolumeRecord{sampleVolume(), {Number: 2, Title: "Poems"}}
	query, args := insertBatch(batch)

	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)") {
		t.Errorf("unexpected placeholders in %s", query)
	}
	if len(args) != 14 {
		t.Fatalf("args: got %d, want 14", len(args))
	}
	if args[7] != int64(2) || args[8] != "Poems" {
		t.Errorf("second row args: got %v, %v", args[7], args[8])
	}
}
