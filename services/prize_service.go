package services

import (
	"context"
	"log/slog"

	"github.com/ffarena/tournament-engine/events"
	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
)

// PrizeService validates and applies a results submission against the
// declared prize pool. A successful submission is the sole path that
// finalizes a tournament: it atomically sets the status to completed and
// attaches the payout schedule. The engine certifies the schedule; moving
// money is the payment collaborator's job, triggered by the published event.
type PrizeService struct {
	repo      repositories.TournamentRepository
	publisher events.Publisher
	logger    *slog.Logger
}

func NewPrizeService(repo repositories.TournamentRepository, publisher events.Publisher, logger *slog.Logger) *PrizeService {
	return &PrizeService{repo: repo, publisher: publisher, logger: logger}
}

// SubmitResults finalizes an ongoing tournament with the given payout
// schedule. Every entry must name a registered player, ranks must be unique
// positive integers, and the payout total must not exceed the prize pool;
// the full pool need not be disbursed. Any violation rejects the submission
// with no partial write.
func (s *PrizeService) SubmitResults(ctx context.Context, tournamentID string, results []models.Result) (*models.Tournament, error) {
	if len(results) == 0 {
		return nil, ErrResultsRequired
	}

	t, err := s.repo.Update(ctx, tournamentID, func(t *models.Tournament) error {
		switch t.Status {
		case models.StatusUpcoming:
			return ErrTournamentNotStarted
		case models.StatusCompleted:
			return ErrResultsAlreadySubmitted
		case models.StatusOngoing:
		}
		t.Status = models.StatusCompleted
		t.Results = append([]models.Result(nil), results...)
		// The repository's validation pass enforces roster membership,
		// rank uniqueness and the payout-vs-pool reconciliation.
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	var total int64
	for _, r := range t.Results {
		total += r.Payout
	}
	s.logger.Info("results published",
		slog.String("tournament_id", t.ID),
		slog.Int("entries", len(t.Results)),
		slog.Int64("payout_total", total),
		slog.Int64("prize_pool", t.PrizePool),
	)
	s.publisher.ResultsPublished(t)
	return t, nil
}
