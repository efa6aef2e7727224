package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
)

// RegistrationService admits and withdraws players. Both operations are
// expressed as repository mutators, so two registrations racing for the last
// slot are serialized by the store: exactly one succeeds, the other sees a
// full roster. Registration and withdrawal are open only while the
// tournament is upcoming; entering ongoing closes both.
type RegistrationService struct {
	repo     repositories.TournamentRepository
	payments PaymentGateway
	logger   *slog.Logger
}

func NewRegistrationService(repo repositories.TournamentRepository, payments PaymentGateway, logger *slog.Logger) *RegistrationService {
	return &RegistrationService{repo: repo, payments: payments, logger: logger}
}

// Register adds the player to the roster. The entry fee must already be
// captured by the payment collaborator; duplicate registrations are rejected
// rather than silently accepted.
func (s *RegistrationService) Register(ctx context.Context, tournamentID, playerID string) (*models.Tournament, error) {
	if playerID == "" {
		return nil, ErrPlayerIDRequired
	}

	t, err := s.repo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if t.EntryFee > 0 {
		confirmed, err := s.payments.FeeConfirmed(ctx, tournamentID, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to check entry fee: %w", err)
		}
		if !confirmed {
			return nil, ErrEntryFeeNotPaid
		}
	}

	t, err = s.repo.Update(ctx, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusUpcoming {
			return ErrRegistrationClosed
		}
		if t.IsRegistered(playerID) {
			return ErrAlreadyRegistered
		}
		if len(t.RegisteredPlayers) >= t.MaxPlayers {
			return ErrTournamentFull
		}
		t.RegisteredPlayers = append(t.RegisteredPlayers, playerID)
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("player registered",
		slog.String("tournament_id", tournamentID),
		slog.String("player_id", playerID),
		slog.Int("roster_size", len(t.RegisteredPlayers)),
	)
	return t, nil
}

// Withdraw removes the player from the roster while registration is open.
func (s *RegistrationService) Withdraw(ctx context.Context, tournamentID, playerID string) (*models.Tournament, error) {
	if playerID == "" {
		return nil, ErrPlayerIDRequired
	}

	t, err := s.repo.Update(ctx, tournamentID, func(t *models.Tournament) error {
		if t.Status != models.StatusUpcoming {
			return ErrRegistrationClosed
		}
		for i, id := range t.RegisteredPlayers {
			if id == playerID {
				t.RegisteredPlayers = append(t.RegisteredPlayers[:i], t.RegisteredPlayers[i+1:]...)
				return nil
			}
		}
		return ErrNotRegistered
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("player withdrawn",
		slog.String("tournament_id", tournamentID),
		slog.String("player_id", playerID),
	)
	return t, nil
}
