package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// CatalogImporter is the piece of the catalog the refresher needs.
type CatalogImporter interface {
	ReplaceFromCSV(ctx context.Context, r io.Reader) (int, error)
}

// SnapshotRefresher regenerates the market-data snapshot by running an
// external script, then re-imports the CSV it writes into the catalog. The
// script call is a plain blocking subprocess; there is nothing concurrent
// about it beyond the optional ticker loop.
type SnapshotRefresher struct {
	catalog CatalogImporter
	log     *logrus.Logger
	command []string
	csvPath string
}

func NewSnapshotRefresher(c CatalogImporter, log *logrus.Logger, command []string, csvPath string) *SnapshotRefresher {
	return &SnapshotRefresher{catalog: c, log: log, command: command, csvPath: csvPath}
}

// Refresh runs the snapshot command to completion and imports the resulting
// CSV. Returns the number of catalog rows imported.
func (s *SnapshotRefresher) Refresh(ctx context.Context) (int, error) {
	if len(s.command) > 0 {
		cmd := exec.CommandContext(ctx, s.command[0], s.command[1:]...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return 0, fmt.Errorf("snapshot command failed: %w: %s", err, out)
		}
	}

	f, err := os.Open(s.csvPath)
	if err != nil {
		return 0, fmt.Errorf("open snapshot csv: %w", err)
	}
	defer f.Close()

	n, err := s.catalog.ReplaceFromCSV(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("import snapshot: %w", err)
	}
	s.log.Infof("catalog refreshed with %d stocks from %s", n, s.csvPath)
	return n, nil
}

// Start refreshes the catalog on a fixed interval until ctx is cancelled.
func (s *SnapshotRefresher) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.log.Info("snapshot refresher stopping")
				return
			case <-ticker.C:
				if _, err := s.Refresh(ctx); err != nil {
					s.log.Warnf("scheduled refresh failed: %v", err)
				}
			}
		}
	}()
}
