package services

import (
	"context"

	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
)

// DashboardStats are the aggregate figures shown on the operator dashboard.
type DashboardStats struct {
	TotalTournaments   int   `json:"total_tournaments"`
	Upcoming           int   `json:"upcoming"`
	Ongoing            int   `json:"ongoing"`
	Completed          int   `json:"completed"`
	TotalRegistrations int   `json:"total_registrations"`
	TotalPrizePool     int64 `json:"total_prize_pool"`
	TotalPaidOut       int64 `json:"total_paid_out"`
}

type DashboardService struct {
	repo repositories.TournamentRepository
}

func NewDashboardService(repo repositories.TournamentRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	tournaments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{TotalTournaments: len(tournaments)}
	for _, t := range tournaments {
		switch t.Status {
		case models.StatusUpcoming:
			stats.Upcoming++
		case models.StatusOngoing:
			stats.Ongoing++
		case models.StatusCompleted:
			stats.Completed++
		}
		stats.TotalRegistrations += len(t.RegisteredPlayers)
		stats.TotalPrizePool += t.PrizePool
		for _, r := range t.Results {
			stats.TotalPaidOut += r.Payout
		}
	}
	return stats, nil
}
