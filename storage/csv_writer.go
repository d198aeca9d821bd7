package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"loa-scraper/models"
)

// Header is the fixed CSV column order.
var Header = []string{
	"volume_number",
	"title",
	"author",
	"author_wikipedia_link",
	"loa_detail_link",
	"original_volume_name",
	"own_volume",
}

// CSVWriter writes volume records as CSV. The destination is opened and the
// header written on the first Write, so a run with no records leaves no output.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	open   func() (io.WriteCloser, error)
	dst    io.WriteCloser
	writer *csv.Writer
}

// NewCSVFileWriter creates (or truncates) the CSV file at path on first use.
// Intermediate directories are created automatically.
func NewCSVFileWriter(path string) *CSVWriter {
	return &CSVWriter{open: func() (io.WriteCloser, error) {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("csv: create output dir: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("csv: create file %q: %w", path, err)
		}
		return f, nil
	}}
}

// NewCSVStreamWriter writes CSV to w. Close flushes but never closes w.
func NewCSVStreamWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{open: func() (io.WriteCloser, error) {
		return nopCloser{w}, nil
	}}
}

func (c *CSVWriter) Write(v *models.VolumeRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		dst, err := c.open()
		if err != nil {
			return err
		}
		c.dst = dst
		c.writer = csv.NewWriter(dst)
		if err := c.writer.Write(Header); err != nil {
			return fmt.Errorf("csv: write header: %w", err)
		}
	}

	if err := c.writer.Write(row(v)); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return nil
}

// Opened reports whether anything has been written.
func (c *CSVWriter) Opened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer != nil
}

// Close flushes and closes the underlying destination.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		return nil
	}
	c.writer.Flush()
	flushErr := c.writer.Error()
	if err := c.dst.Close(); err != nil {
		return fmt.Errorf("csv: close: %w", err)
	}
	return flushErr
}

func row(v *models.VolumeRecord) []string {
	return []string{
		strconv.FormatUint(uint64(v.Number), 10),
		v.Title,
		v.Author,
		v.AuthorLink,
		v.DetailLink,
		v.OriginalLabel,
		v.OwnVolume,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
