package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mind-insight/apiserver/internal/archive"
	"github.com/mind-insight/apiserver/types"
)

const snapshotKeyLayout = "2006-01-02T15-04-05Z"

// SnapshotService archives the admin dashboard's result sets to object
// storage for retention. It does not render or export user-facing files.
type SnapshotService struct {
	store      archive.Store
	dashboards *DashboardService
}

func NewSnapshotService(store archive.Store, dashboards *DashboardService) *SnapshotService {
	return &SnapshotService{store: store, dashboards: dashboards}
}

// Capture runs the admin dashboard with the given filters and writes the
// serialized result to the archive, returning the snapshot key.
// Authorization happens inside the dashboard run, so only Admin sessions
// can capture.
func (s *SnapshotService) Capture(ctx context.Context, session types.Session, filters types.FilterSpec) (string, error) {
	dashboard, err := s.dashboards.RunDashboard(ctx, session, types.RoleAdmin, filters)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(dashboard)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.store.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure snapshot bucket: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/admin.json", time.Now().UTC().Format(snapshotKeyLayout))
	if err := s.store.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return key, nil
}

// Fetch reads one archived snapshot by key.
func (s *SnapshotService) Fetch(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
