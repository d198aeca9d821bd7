package storage

import (
	"errors"

	"loa-scraper/models"
)

// VolumeWriter is the interface any output backend must satisfy. Records
// arrive one at a time in processing order.
type VolumeWriter interface {
	Write(v *models.VolumeRecord) error
	Close() error
}

// Aborter is implemented by writers that can discard a failed run instead of
// committing it on Close.
type Aborter interface {
	Abort() error
}

// Abort ends a failed run on w. Writers without an abort path are closed.
func Abort(w VolumeWriter) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

type teeWriter struct {
	writers []VolumeWriter
}

// Tee returns a VolumeWriter that writes every record to each writer in turn.
func Tee(writers ...VolumeWriter) VolumeWriter {
	if len(writers) == 1 {
		return writers[0]
	}
	return &teeWriter{writers: writers}
}

func (t *teeWriter) Write(v *models.VolumeRecord) error {
	for _, w := range t.writers {
		if err := w.Write(v); err != nil {
			return err
		}
	}
	return nil
}

func (t *teeWriter) Close() error {
	var errs []error
	for _, w := range t.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *teeWriter) Abort() error {
	var errs []error
	for _, w := range t.writers {
		if err := Abort(w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
