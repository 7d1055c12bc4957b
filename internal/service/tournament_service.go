package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
	"github.com/Oozturn/oozturn-sub001/internal/engine"
	"github.com/Oozturn/oozturn-sub001/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

var ErrTournamentNotFound = errors.New("tournament not found")

// loadWorkers bounds how many stored tournaments are replayed at once.
const loadWorkers = 4

type entry struct {
	mu      sync.Mutex
	engine  *engine.Engine
	deleted bool
}

// lock acquires the entry unless it was deleted while the caller waited.
func (t *entry) lock(id string) error {
	t.mu.Lock()
	if t.deleted {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
	}
	return nil
}

// restore replaces the engine with one rebuilt from snapshot.
func (t *entry) restore(snapshot engine.Storage) {
	restored, err := engine.FromStorage(snapshot)
	if err != nil {
		slog.Error("failed to roll back tournament", "tournament", snapshot.ID, "error", err)
		return
	}
	restored.SetNotifier(engine.NotifierFunc(logEvent))
	t.engine = restored
}

// TournamentService keeps every live engine in memory and writes a fresh
// snapshot to the store after each successful mutation. Calls on one
// tournament are serialized; different tournaments proceed in parallel.
type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore

	mu          sync.RWMutex
	tournaments map[string]*entry
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore) *TournamentService {
	return &TournamentService{
		db:          db,
		store:       store,
		tournaments: make(map[string]*entry),
	}
}

func logEvent(ev engine.Event) {
	slog.Debug("tournament event", "tournament", ev.TournamentID, "type", ev.Type)
}

func (s *TournamentService) register(e *engine.Engine) {
	e.SetNotifier(engine.NotifierFunc(logEvent))
	s.mu.Lock()
	s.tournaments[e.ID()] = &entry{engine: e}
	s.mu.Unlock()
}

func (s *TournamentService) lookup(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tournaments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
	}
	return t, nil
}

func (s *TournamentService) persist(ctx context.Context, snapshot engine.Storage) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.SaveTournament(ctx, tx, snapshot); err != nil {
		return fmt.Errorf("failed to save tournament %s: %w", snapshot.ID, err)
	}
	return tx.Commit()
}

// LoadAll restores every stored tournament and returns how many were loaded.
func (s *TournamentService) LoadAll(ctx context.Context) (int, error) {
	snapshots, err := s.store.GetAllTournaments(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load tournaments: %w", err)
	}

	engines := make([]*engine.Engine, len(snapshots))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadWorkers)
	for i, snapshot := range snapshots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := engine.FromStorage(snapshot)
			if err != nil {
				return err
			}
			engines[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for _, e := range engines {
		s.register(e)
	}
	slog.Info("Tournaments restored", "count", len(engines))
	return len(engines), nil
}

func (s *TournamentService) Create(ctx context.Context, props engine.Properties, settings []engine.Settings) (string, error) {
	e := engine.New(uuid.New().String(), props, settings)
	if err := s.persist(ctx, e.Storage()); err != nil {
		return "", err
	}
	s.register(e)
	return e.ID(), nil
}

func (s *TournamentService) List(ctx context.Context) ([]store.Summary, error) {
	return s.store.ListTournaments(ctx)
}

func (s *TournamentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	t, live := s.tournaments[id]
	delete(s.tournaments, id)
	s.mu.Unlock()

	if live {
		if err := t.lock(id); err != nil {
			return err
		}
		defer t.mu.Unlock()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.reinstate(id, t)
		return err
	}
	defer tx.Rollback()

	deleted, err := s.store.DeleteTournament(ctx, tx, id)
	if err == nil && !deleted && !live {
		return fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
	}
	if err == nil {
		err = tx.Commit()
	}
	if err != nil {
		s.reinstate(id, t)
		return err
	}
	if live {
		t.deleted = true
	}
	return nil
}

// reinstate puts back an entry whose deletion failed.
func (s *TournamentService) reinstate(id string, t *entry) {
	if t == nil {
		return
	}
	s.mu.Lock()
	s.tournaments[id] = t
	s.mu.Unlock()
}

// View runs fn with exclusive access to a tournament without persisting.
func (s *TournamentService) View(id string, fn func(*engine.Engine) error) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := t.lock(id); err != nil {
		return err
	}
	defer t.mu.Unlock()
	return fn(t.engine)
}

// Update runs fn on a tournament and persists the result. When fn fails
// after changing the engine, or the snapshot cannot be written, the
// in-memory engine is rolled back to its last saved state.
func (s *TournamentService) Update(ctx context.Context, id string, fn func(*engine.Engine) error) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	if err := t.lock(id); err != nil {
		return err
	}
	defer t.mu.Unlock()

	before := t.engine.Storage()
	if err := fn(t.engine); err != nil {
		if !reflect.DeepEqual(before, t.engine.Storage()) {
			slog.Warn("rolling back failed mutation", "tournament", id, "error", err)
			t.restore(before)
		}
		return err
	}
	if err := s.persist(ctx, t.engine.Storage()); err != nil {
		t.restore(before)
		return err
	}
	return nil
}

func (s *TournamentService) Get(id string) (engine.Storage, error) {
	var snapshot engine.Storage
	err := s.View(id, func(e *engine.Engine) error {
		snapshot = e.Storage()
		return nil
	})
	return snapshot, err
}

func (s *TournamentService) AddPlayer(ctx context.Context, id, userID string) error {
	return s.Update(ctx, id, func(e *engine.Engine) error { return e.AddPlayer(userID) })
}

func (s *TournamentService) RemovePlayer(ctx context.Context, id, userID string) error {
	return s.Update(ctx, id, func(e *engine.Engine) error { return e.RemovePlayer(userID) })
}

func (s *TournamentService) Start(ctx context.Context, id string, resume bool) error {
	return s.Update(ctx, id, func(e *engine.Engine) error { return e.StartTournament(resume) })
}

func (s *TournamentService) Stop(ctx context.Context, id string) error {
	return s.Update(ctx, id, func(e *engine.Engine) error { return e.StopTournament() })
}

func (s *TournamentService) TogglePause(ctx context.Context, id string) error {
	return s.Update(ctx, id, func(e *engine.Engine) error { return e.TogglePause() })
}

func (s *TournamentService) Score(ctx context.Context, id string, bracketIdx int, matchID bracket.ID, opponent string, value float64) error {
	return s.Update(ctx, id, func(e *engine.Engine) error {
		return e.Score(matchID, opponent, value, bracketIdx)
	})
}

func (s *TournamentService) Results(id string, bracketIdx int) ([]engine.OpponentResult, error) {
	var results []engine.OpponentResult
	err := s.View(id, func(e *engine.Engine) error {
		var err error
		results, err = e.Results(bracketIdx)
		return err
	})
	return results, err
}

func (s *TournamentService) MatchesToPlay(id string, bracketIdx int) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.View(id, func(e *engine.Engine) error {
		var err error
		matches, err = e.MatchesToPlay(bracketIdx)
		return err
	})
	return matches, err
}
