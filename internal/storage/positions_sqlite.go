package storage

import (
	"fmt"
	"math"
)

// NodePosition is a stored node location.
type NodePosition struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// SavePositions replaces the stored positions of a view. Non-finite
// coordinates are skipped.
func (d *DB) SavePositions(view string, positions []NodePosition) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM positions WHERE view = ?`, view); err != nil {
		return 0, fmt.Errorf("clearing positions for %s: %w", view, err)
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO positions (view, node_id, x, y) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing positions insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, p := range positions {
		if p.NodeID == "" || !finite(p.X) || !finite(p.Y) {
			continue
		}
		if _, err := stmt.Exec(view, p.NodeID, p.X, p.Y); err != nil {
			return 0, fmt.Errorf("inserting position %s: %w", p.NodeID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return n, nil
}

// LoadPositions returns the stored positions of a view ordered by node id.
func (d *DB) LoadPositions(view string) ([]NodePosition, error) {
	rows, err := d.db.Query(`SELECT node_id, x, y FROM positions WHERE view = ? ORDER BY node_id`, view)
	if err != nil {
		return nil, fmt.Errorf("querying positions: %w", err)
	}
	defer rows.Close()

	var out []NodePosition
	for rows.Next() {
		var p NodePosition
		if err := rows.Scan(&p.NodeID, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
