package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Oozturn/oozturn-sub001/internal/engine"
	"github.com/jmoiron/sqlx"
)

// TournamentRow is one stored tournament. Data holds the JSON encoded
// engine.Storage; name and status are copied out for listing.
type TournamentRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Summary is a tournament listing entry.
type Summary struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	Status    engine.Status `db:"status" json:"status"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func toRow(s engine.Storage) (*TournamentRow, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tournament %s: %w", s.ID, err)
	}
	return &TournamentRow{
		ID:        s.ID,
		Name:      s.Properties.Name,
		Status:    string(s.Status),
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func fromRow(row *TournamentRow) (engine.Storage, error) {
	var s engine.Storage
	if err := json.Unmarshal([]byte(row.Data), &s); err != nil {
		return engine.Storage{}, fmt.Errorf("failed to decode tournament %s: %w", row.ID, err)
	}
	return s, nil
}

// SaveTournament inserts or replaces the snapshot of a tournament.
func (s *TournamentStore) SaveTournament(ctx context.Context, tx *sqlx.Tx, snapshot engine.Storage) error {
	row, err := toRow(snapshot)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, status, data, updated_at)
        VALUES (:id, :name, :status, :data, :updated_at)
        ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status, data = excluded.data, updated_at = excluded.updated_at`, row)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (engine.Storage, error) {
	var row TournamentRow
	if err := s.db.GetContext(ctx, &row, "SELECT * FROM tournaments WHERE id = ?", id); err != nil {
		return engine.Storage{}, err
	}
	return fromRow(&row)
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	err := s.db.SelectContext(ctx, &summaries, "SELECT id, name, status, updated_at FROM tournaments ORDER BY created_at ASC, id ASC")
	return summaries, err
}

// GetAllTournaments loads every stored snapshot, oldest first.
func (s *TournamentStore) GetAllTournaments(ctx context.Context) ([]engine.Storage, error) {
	var rows []TournamentRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM tournaments ORDER BY created_at ASC, id ASC"); err != nil {
		return nil, err
	}
	out := make([]engine.Storage, 0, len(rows))
	for i := range rows {
		st, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *TournamentStore) DeleteTournament(ctx context.Context, tx *sqlx.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
