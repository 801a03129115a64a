package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/appswarm/appswarm/pkg/models"
)

// Archive persists finished build reports to SQLite so `appswarm status`
// can inspect past builds across process restarts. The live SharedState is
// in-memory only; the archive is write-behind and never read on the hot path.
type Archive struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// DefaultArchivePath returns the archive location under XDG_DATA_HOME.
func DefaultArchivePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "appswarm", "appswarm.db")
}

// OpenArchive opens (creating if needed) the report archive at path.
// WAL mode is enabled for concurrent reads.
func OpenArchive(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	a := &Archive{conn: conn, path: path}
	if err := a.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return a, nil
}

func (a *Archive) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS build_reports (
	project_id   TEXT PRIMARY KEY,
	project_name TEXT NOT NULL,
	status       TEXT NOT NULL,
	report_json  TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	duration_ms  INTEGER NOT NULL,
	saved_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_build_reports_saved_at ON build_reports(saved_at);
`
	if _, err := a.conn.Exec(schema); err != nil {
		return fmt.Errorf("init archive schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.conn.Close()
}

// SaveReport upserts a build report keyed by project ID. Rebuilding a
// project replaces its previous report.
func (a *Archive) SaveReport(report *models.BuildReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	blob, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = a.conn.Exec(`
INSERT INTO build_reports (project_id, project_name, status, report_json, started_at, duration_ms, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_id) DO UPDATE SET
	project_name = excluded.project_name,
	status       = excluded.status,
	report_json  = excluded.report_json,
	started_at   = excluded.started_at,
	duration_ms  = excluded.duration_ms,
	saved_at     = excluded.saved_at`,
		report.ProjectID, report.ProjectName, string(report.Status), string(blob),
		report.StartedAt.UnixMilli(), report.Duration.Milliseconds(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// GetReport loads the archived report for a project, or ErrProjectNotFound.
func (a *Archive) GetReport(projectID string) (*models.BuildReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var blob string
	err := a.conn.QueryRow(
		`SELECT report_json FROM build_reports WHERE project_id = ?`, projectID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}

	var report models.BuildReport
	if err := json.Unmarshal([]byte(blob), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports returns every archived report, most recent first.
func (a *Archive) ListReports() ([]*models.BuildReport, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rows, err := a.conn.Query(`SELECT report_json FROM build_reports ORDER BY saved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.BuildReport
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var report models.BuildReport
		if err := json.Unmarshal([]byte(blob), &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}
