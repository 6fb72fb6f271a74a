package host

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/stubgen/db"
	"github.com/teranos/stubgen/errors"
	"github.com/teranos/stubgen/logger"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// SnapshotRecord is the metadata row of a stored snapshot.
type SnapshotRecord struct {
	ID          string    `json:"id"`
	HostVersion string    `json:"host_version"`
	Source      string    `json:"source"`
	StructCount int       `json:"struct_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunRecord is one generate run.
type RunRecord struct {
	ID         string     `json:"id"`
	SnapshotID string     `json:"snapshot_id,omitempty"`
	OutputDir  string     `json:"output_dir"`
	Status     string     `json:"status"`
	Files      int        `json:"files"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Store persists snapshots and generate runs in SQLite.
type Store struct {
	db     *sql.DB
	log    *zap.SugaredLogger
	now    func() time.Time
	closed atomic.Bool
}

// NewStore wraps an open, migrated database.
func NewStore(conn *sql.DB) *Store {
	return &Store{
		db:  conn,
		log: logger.ComponentLogger("host.store"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OpenStore opens the store at path, applying migrations.
func OpenStore(path string) (*Store, error) {
	log := logger.ComponentLogger("host.store")
	conn, err := db.OpenWithMigrations(path, log)
	if err != nil {
		return nil, errors.WithHint(err, "check store.path in am.toml")
	}
	return NewStore(conn), nil
}

// Close closes the underlying database. Later calls on the store return
// db.ErrDatabaseClosed; closing twice is a no-op.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// open fails once the store is closed.
func (s *Store) open() error {
	if s.closed.Load() {
		return errors.Wrap(db.ErrDatabaseClosed, "snapshot store")
	}
	return nil
}

// ImportSnapshot stores snap and returns its new id.
func (s *Store) ImportSnapshot(ctx context.Context, snap *Snapshot, source string) (string, error) {
	if err := s.open(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode snapshot")
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, host_version, source, struct_count, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, snap.HostVersion, source, len(snap.Structs), payload, s.now())
	if err != nil {
		return "", errors.Wrap(err, "failed to insert snapshot")
	}
	s.log.Infow("snapshot imported",
		"snapshot_id", id,
		logger.FieldVersion, snap.HostVersion,
		logger.FieldCount, len(snap.Structs))
	return id, nil
}

// Snapshot loads a stored snapshot by id.
func (s *Store) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("snapshot %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load snapshot %s", id)
	}
	snap, err := DecodeSnapshot(payload, FormatJSON)
	if err != nil {
		return nil, errors.Wrapf(err, "stored snapshot %s is corrupt", id)
	}
	return snap, nil
}

// Latest returns the newest snapshot record, restricted to hostVersion
// when it is non-empty.
func (s *Store) Latest(ctx context.Context, hostVersion string) (*SnapshotRecord, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	query := `SELECT id, host_version, source, struct_count, created_at FROM snapshots`
	var args []interface{}
	if hostVersion != "" {
		query += ` WHERE host_version = ?`
		args = append(args, hostVersion)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT 1`

	var rec SnapshotRecord
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.HostVersion, &rec.Source, &rec.StructCount, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no snapshot for host version %q", hostVersion)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to query latest snapshot")
	}
	return &rec, nil
}

// Snapshots lists stored snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]SnapshotRecord, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, host_version, source, struct_count, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list snapshots")
	}
	defer rows.Close()

	var out []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.ID, &rec.HostVersion, &rec.Source, &rec.StructCount, &rec.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan snapshot")
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "failed to list snapshots")
}

// DeleteSnapshot removes a snapshot. Runs that used it keep their rows.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	if err := s.open(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete snapshot %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("snapshot %s", id)
	}
	return nil
}

// Provider returns a provider serving the stored snapshot id.
func (s *Store) Provider(ctx context.Context, id string) (*SnapshotProvider, error) {
	snap, err := s.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewSnapshotProvider(snap), nil
}

// BeginRun records the start of a generate run.
func (s *Store) BeginRun(ctx context.Context, runID, snapshotID, outputDir string) error {
	if err := s.open(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, snapshot_id, output_dir, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, nullable(snapshotID), outputDir, RunRunning, s.now())
	return errors.Wrapf(err, "failed to record run %s", runID)
}

// FinishRun records the outcome of a run and the phrases it could not
// recognize.
func (s *Store) FinishRun(ctx context.Context, runID string, files int, unrecognized []string, runErr error) error {
	if err := s.open(); err != nil {
		return err
	}
	status, msg := RunSucceeded, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(db.MarkClosed(err), "failed to begin tx for run %s", runID)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, files = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, files, msg, s.now(), runID)
	if err != nil {
		return errors.Wrapf(err, "failed to update run %s", runID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("run %s", runID)
	}

	for _, phrase := range unrecognized {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO unrecognized_phrases (run_id, phrase) VALUES (?, ?)`,
			runID, phrase); err != nil {
			return errors.Wrapf(err, "failed to record phrase %q", phrase)
		}
	}
	return errors.Wrapf(tx.Commit(), "failed to commit run %s", runID)
}

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, snapshot_id, output_dir, status, files, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var snapshotID sql.NullString
		var finished sql.NullTime
		if err := rows.Scan(&rec.ID, &snapshotID, &rec.OutputDir, &rec.Status,
			&rec.Files, &rec.Error, &rec.StartedAt, &finished); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		rec.SnapshotID = snapshotID.String
		if finished.Valid {
			t := finished.Time
			rec.FinishedAt = &t
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "failed to list runs")
}

// Unrecognized returns the phrases a run could not map, sorted.
func (s *Store) Unrecognized(ctx context.Context, runID string) ([]string, error) {
	if err := s.open(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT phrase FROM unrecognized_phrases WHERE run_id = ? ORDER BY phrase`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query phrases of run %s", runID)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var phrase string
		if err := rows.Scan(&phrase); err != nil {
			return nil, errors.Wrap(err, "failed to scan phrase")
		}
		out = append(out, phrase)
	}
	return out, errors.Wrap(rows.Err(), "failed to query phrases")
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
