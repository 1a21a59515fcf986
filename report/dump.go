package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

type document struct {
	RunID          string    `json:"run_id,omitempty"`
	Generated      time.Time `json:"generated"`
	Variants       []Variant `json:"variants"`
	FailedVariants int       `json:"failed_variants"`
	FailedURLs     int       `json:"failed_urls"`
}

// WriteJSON dumps every variant as indented JSON, zstd-compressed when
// compress is set. Streams appear by URL hash, never by raw URL.
func (s *Store) WriteJSON(w io.Writer, runID string, compress bool) error {
	all, err := s.All()
	if err != nil {
		return err
	}
	doc := document{RunID: runID, Generated: time.Now().UTC(), Variants: make([]Variant, 0, len(all))}
	failedURLs := make(map[string]struct{})
	for _, v := range all {
		// Provider URLs carry credentials.
		if v.URL != "" {
			v.Metrics.Error = strings.ReplaceAll(v.Metrics.Error, v.URL, "[redacted url]")
		}
		v.Metrics.URL = ""
		doc.Variants = append(doc.Variants, v)

		if !v.Failed {
			continue
		}
		doc.FailedVariants++
		if v.URLHash != "" {
			failedURLs[v.URLHash] = struct{}{}
		}
	}
	doc.FailedURLs = len(failedURLs)

	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("error encoding report: %w", err)
		}
		return nil
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("error creating zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = zw.Close()
		return fmt.Errorf("error encoding report: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("error flushing zstd report: %w", err)
	}
	return nil
}

// WriteFile writes the report to path, compressing when it ends in .zst.
func (s *Store) WriteFile(path, runID string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("error creating directories: %w", err)
	}

	tmpPath := path + ".new"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("error creating report file: %w", err)
	}

	err = s.WriteJSON(f, runID, strings.HasSuffix(strings.ToLower(path), ".zst"))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("error moving report into place: %w", err)
	}
	return nil
}
