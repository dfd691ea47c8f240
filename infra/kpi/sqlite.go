package kpi

import (
	"database/sql"

	core "github.com/parcelops/fleetsim/core/kpi"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists KPI records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS agent_kpi (
        agent_id TEXT,
        run_id TEXT,
        distance REAL,
        energy REAL,
        deliveries INTEGER,
        wins INTEGER,
        PRIMARY KEY(agent_id, run_id)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add merges the record into the stored aggregate.
func (s *SQLiteStore) Add(r core.Record) error {
	_, err := s.db.Exec(`INSERT INTO agent_kpi (agent_id, run_id, distance, energy, deliveries, wins)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(agent_id, run_id) DO UPDATE SET
            distance = distance + excluded.distance,
            energy = energy + excluded.energy,
            deliveries = deliveries + excluded.deliveries,
            wins = wins + excluded.wins`,
		r.AgentID, r.RunID, r.Distance, r.Energy, r.Deliveries, r.Wins)
	return err
}

// Query returns aggregates for the agent, or every agent when agentID is empty.
func (s *SQLiteStore) Query(agentID string) ([]core.Record, error) {
	query := `SELECT agent_id, run_id, distance, energy, deliveries, wins
        FROM agent_kpi`
	var args []any
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY agent_id, run_id`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []core.Record
	for rows.Next() {
		var r core.Record
		if err := rows.Scan(&r.AgentID, &r.RunID, &r.Distance, &r.Energy, &r.Deliveries, &r.Wins); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
