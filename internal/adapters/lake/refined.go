package lake

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neurorace/refinery/internal/domain/model"
	"github.com/neurorace/refinery/pkg/logger"
)

// WriteSummary persists the refined-layer KPI summary as json under
// {refined}/{sessionID}_summary.json and returns the path. This local write
// is the session's durability floor: it must be attempted even when the
// shared-store writes fail.
func (l *Lake) WriteSummary(ctx context.Context, sessionID string, summary model.SessionSummary) (string, error) {
	if err := os.MkdirAll(l.refinedPath, dirPerm); err != nil {
		return "", fmt.Errorf("create refined dir: %w", err)
	}
	path := filepath.Join(l.refinedPath, sessionID+"_summary.json")

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}

	l.logger.Info(ctx, "refined summary written",
		logger.String("path", path),
		logger.Int("players", len(summary)))
	return path, nil
}
