// Package record stores island layouts and path queries in SQLite.
package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Island is a laid out island.
type Island struct {
	ID              uuid.UUID
	Name            string
	X, Z            float64 // Local centre on the disc
	Radius          float64
	EffectiveRadius float64
	Converged       bool
	Iterations      int
	Angle           float64 // Disc angle when shown
	Members         []Member
}

// Member is an island member in local disc coordinates.
type Member struct {
	Prop   string
	X, Z   float64
	Radius float64
}

// Path is the outcome of one path query.
type Path struct {
	BoatID       uuid.UUID
	StartTheta   int
	StartRho     int
	GoalTheta    int
	GoalRho      int
	Found        bool
	StartBlocked bool
	Cells        int
	Expanded     int
	Elapsed      time.Duration
}

// PathStats summarizes the path queries of a run.
type PathStats struct {
	Queries   int
	Found     int
	FoundRate float64 // Found / Queries, 0 without queries
	MeanMs    float64
	MaxMs     float64
}

// Store wraps the SQLite connection. Every record belongs to the run opened with Open.
type Store struct {
	conn  *sql.DB
	runID uuid.UUID
}

// Open opens (or creates) the database at path and starts a new run with the given seed.
func Open(ctx context.Context, path string, seed int64) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{conn: conn, runID: uuid.New()}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if _, err := conn.ExecContext(ctx,
		"INSERT INTO runs (id, seed) VALUES (?, ?)",
		s.runID.String(), seed,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create run: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// RunID identifies the current run.
func (s *Store) RunID() uuid.UUID {
	return s.runID
}

// migrate creates tables if they don't exist.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS islands (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES runs(id),
		name TEXT NOT NULL,
		x REAL NOT NULL,
		z REAL NOT NULL,
		radius REAL NOT NULL,
		effective_radius REAL NOT NULL,
		converged INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		angle REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS island_members (
		island_id TEXT NOT NULL REFERENCES islands(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		prop TEXT NOT NULL,
		x REAL NOT NULL,
		z REAL NOT NULL,
		radius REAL NOT NULL,
		PRIMARY KEY (island_id, idx)
	);

	CREATE TABLE IF NOT EXISTS path_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		boat_id TEXT NOT NULL,
		start_theta INTEGER NOT NULL,
		start_rho INTEGER NOT NULL,
		goal_theta INTEGER NOT NULL,
		goal_rho INTEGER NOT NULL,
		found INTEGER NOT NULL,
		start_blocked INTEGER NOT NULL,
		cells INTEGER NOT NULL,
		expanded INTEGER NOT NULL,
		elapsed_ms REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_islands_run ON islands(run_id);
	CREATE INDEX IF NOT EXISTS idx_path_queries_run ON path_queries(run_id);
	`
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

// RecordIsland stores an island and its members. A reused island replaces its previous layout.
func (s *Store) RecordIsland(ctx context.Context, isl Island) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := isl.ID.String()
	if _, err := tx.ExecContext(ctx, "DELETE FROM island_members WHERE island_id = ?", id); err != nil {
		return fmt.Errorf("replace members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM islands WHERE id = ?", id); err != nil {
		return fmt.Errorf("replace island: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO islands (id, run_id, name, x, z, radius, effective_radius, converged, iterations, angle)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.runID.String(), isl.Name, isl.X, isl.Z, isl.Radius, isl.EffectiveRadius,
		isl.Converged, isl.Iterations, isl.Angle,
	); err != nil {
		return fmt.Errorf("insert island: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO island_members (island_id, idx, prop, x, z, radius) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare members: %w", err)
	}
	defer stmt.Close()

	for i, m := range isl.Members {
		if _, err := stmt.ExecContext(ctx, id, i, m.Prop, m.X, m.Z, m.Radius); err != nil {
			return fmt.Errorf("insert member %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RecordPath stores a path query outcome.
func (s *Store) RecordPath(ctx context.Context, p Path) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO path_queries (run_id, boat_id, start_theta, start_rho, goal_theta, goal_rho,
			found, start_blocked, cells, expanded, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID.String(), p.BoatID.String(), p.StartTheta, p.StartRho, p.GoalTheta, p.GoalRho,
		p.Found, p.StartBlocked, p.Cells, p.Expanded, float64(p.Elapsed.Microseconds())/1000,
	)
	if err != nil {
		return fmt.Errorf("insert path: %w", err)
	}
	return nil
}

// IslandCount returns the number of islands recorded in the current run.
func (s *Store) IslandCount(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM islands WHERE run_id = ?", s.runID.String(),
	).Scan(&n)
	return n, err
}

// Members returns the recorded members of an island in layout order.
func (s *Store) Members(ctx context.Context, islandID uuid.UUID) ([]Member, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT prop, x, z, radius FROM island_members WHERE island_id = ? ORDER BY idx",
		islandID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.Prop, &m.X, &m.Z, &m.Radius); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// PathStats summarizes the path queries of the current run.
func (s *Store) PathStats(ctx context.Context) (PathStats, error) {
	var st PathStats
	var found, mean, maxMs sql.NullFloat64
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(found), AVG(elapsed_ms), MAX(elapsed_ms)
		 FROM path_queries WHERE run_id = ?`,
		s.runID.String(),
	).Scan(&st.Queries, &found, &mean, &maxMs)
	if err != nil {
		return PathStats{}, err
	}

	st.Found = int(found.Float64)
	st.MeanMs = mean.Float64
	st.MaxMs = maxMs.Float64
	if st.Queries > 0 {
		st.FoundRate = float64(st.Found) / float64(st.Queries)
	}
	return st, nil
}
