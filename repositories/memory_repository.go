package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/ffarena/tournament-engine/models"
)

// inMemoryTournamentRepository keeps every tournament as an independently
// locked record: a coarse RWMutex guards only the map itself, while each
// record carries its own mutex, so updates on different ids never block one
// another and the read-mutate-validate-commit sequence on a single id is
// fully serialized.
type inMemoryTournamentRepository struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	mu         sync.Mutex
	tournament *models.Tournament
}

// NewInMemoryTournamentRepository returns a repository backed by process
// memory. It is the store used when no DATABASE_URL is configured and by the
// test suites, which need isolated instances per test.
func NewInMemoryTournamentRepository() TournamentRepository {
	return &inMemoryTournamentRepository{
		records: make(map[string]*memoryRecord),
	}
}

func (r *inMemoryTournamentRepository) Create(_ context.Context, t *models.Tournament) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[t.ID]; exists {
		return ErrTournamentExists
	}
	t.Version = 1
	r.records[t.ID] = &memoryRecord{tournament: t.Clone()}
	return nil
}

func (r *inMemoryTournamentRepository) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTournamentNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.tournament.Clone(), nil
}

func (r *inMemoryTournamentRepository) List(_ context.Context) ([]models.Tournament, error) {
	r.mu.RLock()
	recs := make([]*memoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		recs = append(recs, rec)
	}
	r.mu.RUnlock()

	tournaments := make([]models.Tournament, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		tournaments = append(tournaments, *rec.tournament.Clone())
		rec.mu.Unlock()
	}
	sort.Slice(tournaments, func(i, j int) bool {
		if tournaments[i].CreatedAt.Equal(tournaments[j].CreatedAt) {
			return tournaments[i].ID < tournaments[j].ID
		}
		return tournaments[i].CreatedAt.Before(tournaments[j].CreatedAt)
	})
	return tournaments, nil
}

func (r *inMemoryTournamentRepository) Update(_ context.Context, id string, mutate Mutator) (*models.Tournament, error) {
	r.mu.RLock()
	rec, ok := r.records[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrTournamentNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	next := rec.tournament.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version = rec.tournament.Version + 1
	rec.tournament = next
	return next.Clone(), nil
}

func (r *inMemoryTournamentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return ErrTournamentNotFound
	}
	delete(r.records, id)
	return nil
}
