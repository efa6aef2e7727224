package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ffarena/tournament-engine/events"
	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
	"github.com/ffarena/tournament-engine/storage"
	"github.com/google/uuid"
)

// TournamentService owns tournament creation, edits, deletion and the status
// state machine. Start policy: an operator may start a tournament explicitly,
// and the scheduler promotes due tournaments automatically once the scheduled
// start time passes; registration closes on entering ongoing either way.
type TournamentService struct {
	repo      repositories.TournamentRepository
	payments  PaymentGateway
	uploader  storage.FileUploader
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewTournamentService(
	repo repositories.TournamentRepository,
	payments PaymentGateway,
	uploader storage.FileUploader,
	publisher events.Publisher,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		repo:      repo,
		payments:  payments,
		uploader:  uploader,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateTournamentInput struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	EntryFee   int64     `json:"entry_fee"`
	MaxPlayers int       `json:"max_players"`
	PrizePool  int64     `json:"prize_pool"`
}

// UpdateTournamentInput carries a partial edit; nil fields are left as-is.
type UpdateTournamentInput struct {
	Name       *string    `json:"name"`
	Date       *time.Time `json:"date"`
	EntryFee   *int64     `json:"entry_fee"`
	MaxPlayers *int       `json:"max_players"`
	PrizePool  *int64     `json:"prize_pool"`
}

func (s *TournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		ID:                uuid.NewString(),
		Name:              input.Name,
		Date:              input.Date,
		EntryFee:          input.EntryFee,
		MaxPlayers:        input.MaxPlayers,
		PrizePool:         input.PrizePool,
		Status:            models.StatusUpcoming,
		RegisteredPlayers: []string{},
		CreatedAt:         s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("name", t.Name),
		slog.Int("max_players", t.MaxPlayers),
	)
	s.publisher.TournamentCreated(t)
	s.populateBannerURL(t)
	return t, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.populateBannerURL(t)
	return t, nil
}

func (s *TournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.populateBannerURL(&tournaments[i])
	}
	return tournaments, nil
}

// UpdateDetails edits tournament fields. Details are editable only while
// upcoming; reducing capacity below the current roster size is rejected
// rather than truncating the roster.
func (s *TournamentService) UpdateDetails(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.repo.Update(ctx, id, func(t *models.Tournament) error {
		switch t.Status {
		case models.StatusCompleted:
			return ErrTournamentFinalized
		case models.StatusOngoing:
			return ErrEditNotAllowed
		case models.StatusUpcoming:
		}
		if input.Name != nil {
			t.Name = *input.Name
		}
		if input.Date != nil {
			t.Date = *input.Date
		}
		if input.EntryFee != nil {
			t.EntryFee = *input.EntryFee
		}
		if input.MaxPlayers != nil {
			if *input.MaxPlayers < len(t.RegisteredPlayers) {
				return ErrCapacityBelowRoster
			}
			t.MaxPlayers = *input.MaxPlayers
		}
		if input.PrizePool != nil {
			t.PrizePool = *input.PrizePool
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.populateBannerURL(t)
	return t, nil
}

// Delete removes the tournament entirely. Deletion is unrestricted by status
// but refused while the payment collaborator reports payouts in flight.
func (s *TournamentService) Delete(ctx context.Context, id string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}

	inFlight, err := s.payments.PayoutInFlight(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check payout status: %w", err)
	}
	if inFlight {
		return ErrPayoutInFlight
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	if t.BannerKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *t.BannerKey); err != nil {
			s.logger.Warn("failed to delete tournament banner",
				slog.String("tournament_id", id), slog.Any("error", err))
		}
	}
	s.logger.Info("tournament deleted", slog.String("tournament_id", id))
	return nil
}

// Start moves an upcoming tournament to ongoing, closing registration.
func (s *TournamentService) Start(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.repo.Update(ctx, id, func(t *models.Tournament) error {
		if !isValidStatusTransition(t.Status, models.StatusOngoing) {
			if t.Status == models.StatusCompleted {
				return ErrTournamentFinalized
			}
			return ErrInvalidStatusTransition
		}
		t.Status = models.StatusOngoing
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("tournament started", slog.String("tournament_id", t.ID))
	s.publisher.RegistrationClosed(t)
	s.populateBannerURL(t)
	return t, nil
}

// AutoStartDueTournaments promotes every upcoming tournament whose scheduled
// start time has passed. Called periodically by the scheduler.
func (s *TournamentService) AutoStartDueTournaments(ctx context.Context) error {
	tournaments, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tournaments for auto-start: %w", err)
	}

	now := s.now()
	for _, t := range tournaments {
		if t.Status != models.StatusUpcoming || t.Date.After(now) {
			continue
		}
		if _, err := s.Start(ctx, t.ID); err != nil {
			// Another caller may have started or deleted it meanwhile.
			s.logger.Warn("auto-start skipped",
				slog.String("tournament_id", t.ID), slog.Any("error", err))
		}
	}
	return nil
}

// UploadBanner stores a banner image for the tournament and records its key.
func (s *TournamentService) UploadBanner(ctx context.Context, id, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrBannerStorageDisabled
	}
	ext, err := storage.ExtensionForContentType(contentType)
	if err != nil {
		return nil, ErrUnsupportedBannerFormat
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, mapRepoError(err)
	}

	key := fmt.Sprintf("tournaments/%s/banner%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload banner: %w", err)
	}

	t, err := s.repo.Update(ctx, id, func(t *models.Tournament) error {
		t.BannerKey = &key
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	s.populateBannerURL(t)
	return t, nil
}

func (s *TournamentService) populateBannerURL(t *models.Tournament) {
	if t == nil || t.BannerKey == nil || *t.BannerKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.BannerKey); url != "" {
		t.BannerURL = &url
	}
}

// mapRepoError translates repository sentinels into service-level errors so
// handlers only deal with one error vocabulary.
func mapRepoError(err error) error {
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}
