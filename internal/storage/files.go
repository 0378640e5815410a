// Package storage persists the run outputs: the append-only history
// ledger, the latest view mirror, and the KPI snapshot, as JSON documents
// in one directory. Writes happen once, at end of run, never per source.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
	"github.com/zbreeden/pulse/internal/kpi"
)

const (
	HistoryFile = "master_history.json"
	LatestFile  = "latest.json"
	KPIsFile    = "kpis.json"
)

type Files struct {
	fs  afero.Fs
	dir string
	log *zap.Logger
}

func NewFiles(fs afero.Fs, dir string, log *zap.Logger) *Files {
	return &Files{fs: fs, dir: dir, log: log}
}

// LoadHistory reads the persisted ledger. A missing file is an empty
// ledger (first run); an unreadable one degrades to empty with a warning,
// matching how the documents were always consumed downstream.
func (f *Files) LoadHistory(ctx context.Context) ([]broadcast.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.path(HistoryFile)
	b, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}
	var history []broadcast.Record
	if err := json.Unmarshal(b, &history); err != nil {
		f.log.Warn("history unreadable, starting empty", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	return history, nil
}

// WriteRun persists all three documents. Every document is staged to a
// temp file first; renames are the commit point, so a marshal or write
// failure leaves the previously persisted files exactly as they were.
func (f *Files) WriteRun(ctx context.Context, history []broadcast.Record, snap *kpi.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if history == nil {
		history = []broadcast.Record{}
	}
	hist, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	kpis, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal kpis: %w", err)
	}

	if err := f.fs.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", f.dir, err)
	}

	docs := []struct {
		name string
		data []byte
	}{
		{HistoryFile, hist},
		{LatestFile, hist},
		{KPIsFile, kpis},
	}

	var staged []string
	for _, doc := range docs {
		tmp := f.path(doc.name) + ".tmp"
		if err := afero.WriteFile(f.fs, tmp, doc.data, 0o644); err != nil {
			f.discard(staged)
			return fmt.Errorf("stage %s: %w", doc.name, err)
		}
		staged = append(staged, tmp)
	}
	for _, doc := range docs {
		if err := f.fs.Rename(f.path(doc.name)+".tmp", f.path(doc.name)); err != nil {
			return fmt.Errorf("commit %s: %w", doc.name, err)
		}
	}
	return nil
}

// Health reports whether the output directory is reachable. Missing is
// fine, it is created on first write.
func (f *Files) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := f.fs.Stat(f.dir); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *Files) path(name string) string { return f.dir + "/" + name }

func (f *Files) discard(tmps []string) {
	for _, t := range tmps {
		if err := f.fs.Remove(t); err != nil {
			f.log.Warn("remove staged file", zap.String("path", t), zap.Error(err))
		}
	}
}
