package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	mu                 sync.Mutex
	created            []string
	registrationClosed []string
	resultsPublished   []string
}

func (p *recordingPublisher) TournamentCreated(t *models.Tournament) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, t.ID)
}

func (p *recordingPublisher) RegistrationClosed(t *models.Tournament) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registrationClosed = append(p.registrationClosed, t.ID)
}

func (p *recordingPublisher) ResultsPublished(t *models.Tournament) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultsPublished = append(p.resultsPublished, t.ID)
}

// seedTournament creates a tournament directly in the repository, bypassing
// the service, so tests control every field.
func seedTournament(t *testing.T, repo repositories.TournamentRepository, tr *models.Tournament) {
	t.Helper()
	if tr.RegisteredPlayers == nil {
		tr.RegisteredPlayers = []string{}
	}
	if err := repo.Create(context.Background(), tr); err != nil {
		t.Fatalf("seed tournament %s: %v", tr.ID, err)
	}
}

func upcomingTournament(id string, maxPlayers int) *models.Tournament {
	return &models.Tournament{
		ID:         id,
		Name:       "Test Cup",
		Date:       time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
		EntryFee:   0,
		MaxPlayers: maxPlayers,
		PrizePool:  1000,
		Status:     models.StatusUpcoming,
		CreatedAt:  time.Now().UTC(),
	}
}
