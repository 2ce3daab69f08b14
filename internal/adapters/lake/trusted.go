package lake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/pkg/logger"
)

// WriteTrusted persists the trusted-layer dataset as a snappy-compressed
// parquet file under {trusted}/{sessionID}.parquet and returns the path.
// The artifact is written once per session and never mutated.
func (l *Lake) WriteTrusted(ctx context.Context, sessionID string, records []model.TrustedRecord) (string, error) {
	if err := os.MkdirAll(l.trustedPath, dirPerm); err != nil {
		return "", fmt.Errorf("create trusted dir: %w", err)
	}
	path := filepath.Join(l.trustedPath, sessionID+".parquet")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create trusted file: %w", err)
	}

	w := parquet.NewGenericWriter[model.TrustedRecord](f, parquet.Compression(&parquet.Snappy))
	if _, err := w.Write(records); err != nil {
		f.Close()
		return "", fmt.Errorf("write trusted records: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("close trusted writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close trusted file: %w", err)
	}

	l.logger.Info(ctx, "trusted layer written",
		logger.String("path", path),
		logger.Int("records", len(records)))
	return path, nil
}

// ReadTrusted loads a session's trusted dataset back from the lake, used
// for reprocessing a refined layer without re-merging raw files.
func (l *Lake) ReadTrusted(_ context.Context, sessionID string) ([]model.TrustedRecord, error) {
	path := filepath.Join(l.trustedPath, sessionID+".parquet")
	records, err := parquet.ReadFile[model.TrustedRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read trusted file %s: %w", path, err)
	}
	return records, nil
}
