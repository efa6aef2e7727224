package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ffarena/tournament-engine/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTournamentExists   = errors.New("tournament id already exists")
	// ErrUpdateConflict is returned when an atomic update keeps losing the
	// optimistic concurrency race after the bounded number of retries.
	ErrUpdateConflict = errors.New("tournament update conflict")
)

// maxUpdateAttempts bounds the compare-and-swap retry loop so a caller gets
// ErrUpdateConflict instead of hanging under sustained contention.
const maxUpdateAttempts = 5

// Mutator transforms a tournament in place. It runs against a private copy
// of the record: returning an error discards the copy and leaves the stored
// record untouched. The repository re-validates the record after the mutator
// runs, so a mutator can never commit an invariant violation.
type Mutator func(*models.Tournament) error

// TournamentRepository is the single serialization point for all tournament
// state changes. Update is atomic per id: concurrent updates on the same id
// are linearized, updates on different ids do not block one another, and
// reads return snapshots that never alias stored state.
type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, id string, mutate Mutator) (*models.Tournament, error)
	Delete(ctx context.Context, id string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	if err := t.Validate(); err != nil {
		return err
	}
	roster, results, err := marshalRosterAndResults(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (
			id, name, date, entry_fee, max_players, prize_pool,
			status, registered_players, results, banner_key, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		RETURNING created_at, version`

	err = r.db.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Date, t.EntryFee, t.MaxPlayers, t.PrizePool,
		t.Status, roster, results, t.BannerKey,
	).Scan(&t.CreatedAt, &t.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrTournamentExists
		}
		return fmt.Errorf("insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	return r.get(ctx, id)
}

func (r *postgresTournamentRepository) get(ctx context.Context, id string) (*models.Tournament, error) {
	query := `
		SELECT id, name, date, entry_fee, max_players, prize_pool,
		       status, registered_players, results, banner_key, created_at, version
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	var roster []byte
	var results []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Date, &t.EntryFee, &t.MaxPlayers, &t.PrizePool,
		&t.Status, &roster, &results, &t.BannerKey, &t.CreatedAt, &t.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("select tournament: %w", err)
	}
	if err := unmarshalRosterAndResults(t, roster, results); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `
		SELECT id, name, date, entry_fee, max_players, prize_pool,
		       status, registered_players, results, banner_key, created_at, version
		FROM tournaments
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := []models.Tournament{}
	for rows.Next() {
		var t models.Tournament
		var roster, results []byte
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Date, &t.EntryFee, &t.MaxPlayers, &t.PrizePool,
			&t.Status, &roster, &results, &t.BannerKey, &t.CreatedAt, &t.Version,
		); err != nil {
			return nil, fmt.Errorf("scan tournament row: %w", err)
		}
		if err := unmarshalRosterAndResults(&t, roster, results); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tournament rows: %w", err)
	}
	return tournaments, nil
}

// Update implements an optimistic compare-and-swap loop: read the row, apply
// the mutator to a copy, commit only if the stored version is unchanged. A
// lost race is retried with freshly read state, up to maxUpdateAttempts.
func (r *postgresTournamentRepository) Update(ctx context.Context, id string, mutate Mutator) (*models.Tournament, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.get(ctx, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return nil, err
		}
		if err := next.Validate(); err != nil {
			return nil, err
		}

		roster, results, err := marshalRosterAndResults(next)
		if err != nil {
			return nil, err
		}

		query := `
			UPDATE tournaments
			SET name = $1, date = $2, entry_fee = $3, max_players = $4,
			    prize_pool = $5, status = $6, registered_players = $7,
			    results = $8, banner_key = $9, version = version + 1
			WHERE id = $10 AND version = $11`

		res, err := r.db.ExecContext(ctx, query,
			next.Name, next.Date, next.EntryFee, next.MaxPlayers,
			next.PrizePool, next.Status, roster, results, next.BannerKey,
			id, current.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("update tournament: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("update tournament rows affected: %w", err)
		}
		if affected == 1 {
			next.Version = current.Version + 1
			return next, nil
		}
		// Version moved under us (or the row vanished); re-read and retry.
	}
	return nil, ErrUpdateConflict
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tournament: %w", err)
	}
	return checkAffectedRows(res, ErrTournamentNotFound)
}

func marshalRosterAndResults(t *models.Tournament) (roster []byte, results []byte, err error) {
	players := t.RegisteredPlayers
	if players == nil {
		players = []string{}
	}
	roster, err = json.Marshal(players)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal roster: %w", err)
	}
	if t.Results != nil {
		results, err = json.Marshal(t.Results)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal results: %w", err)
		}
	}
	return roster, results, nil
}

func unmarshalRosterAndResults(t *models.Tournament, roster, results []byte) error {
	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &t.RegisteredPlayers); err != nil {
			return fmt.Errorf("unmarshal roster: %w", err)
		}
	}
	if t.RegisteredPlayers == nil {
		t.RegisteredPlayers = []string{}
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &t.Results); err != nil {
			return fmt.Errorf("unmarshal results: %w", err)
		}
	}
	return nil
}
