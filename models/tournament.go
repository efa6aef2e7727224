package models

import (
	"errors"
	"time"
)

// TournamentStatus represents the lifecycle stage of a tournament.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Validation errors surfaced by Tournament.Validate. The repository runs
// Validate before committing any mutation, so these are the errors a caller
// sees when an update would break an invariant.
var (
	ErrNameRequired        = errors.New("tournament name is required")
	ErrDateRequired        = errors.New("tournament start date is required")
	ErrInvalidCapacity     = errors.New("max players must be positive")
	ErrNegativeEntryFee    = errors.New("entry fee cannot be negative")
	ErrNegativePrizePool   = errors.New("prize pool cannot be negative")
	ErrInvalidStatus       = errors.New("invalid tournament status")
	ErrRosterOverCapacity  = errors.New("registered players exceed max players")
	ErrDuplicatePlayer     = errors.New("duplicate player id in roster")
	ErrResultsNotExpected  = errors.New("results present on a tournament that is not completed")
	ErrResultsMissing      = errors.New("completed tournament has no results")
	ErrResultUnknownPlayer = errors.New("result references a player that is not registered")
	ErrInvalidRank         = errors.New("result ranks must be positive")
	ErrDuplicateRank       = errors.New("duplicate rank in results")
	ErrNegativePayout      = errors.New("payout cannot be negative")
	ErrPayoutExceedsPool   = errors.New("payout total exceeds the prize pool")
)

// Result is one line of the final payout schedule: a registered player,
// their finishing rank and the amount awarded to them.
type Result struct {
	PlayerID string `json:"player_id"`
	Rank     int    `json:"rank"`
	Payout   int64  `json:"payout"`
}

// Tournament is the single aggregate owned by the engine. It persists as one
// row keyed by ID; RegisteredPlayers keeps registration order. Monetary
// amounts (EntryFee, PrizePool, payouts) are in minor currency units.
type Tournament struct {
	ID                string           `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	Date              time.Time        `json:"date" db:"date"`
	EntryFee          int64            `json:"entry_fee" db:"entry_fee"`
	MaxPlayers        int              `json:"max_players" db:"max_players"`
	PrizePool         int64            `json:"prize_pool" db:"prize_pool"`
	Status            TournamentStatus `json:"status" db:"status"`
	RegisteredPlayers []string         `json:"registered_players" db:"registered_players"`
	Results           []Result         `json:"results,omitempty" db:"results"`
	BannerKey         *string          `json:"-" db:"banner_key"`
	BannerURL         *string          `json:"banner_url,omitempty" db:"-"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`

	// Version backs the optimistic concurrency check in the Postgres
	// repository. Not part of the API surface.
	Version int64 `json:"-" db:"version"`
}

func (t *Tournament) IsRegistered(playerID string) bool {
	for _, id := range t.RegisteredPlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// Validate checks every record-level invariant. It must hold at every
// observable point; the repository rejects any mutation that fails it.
func (t *Tournament) Validate() error {
	if t.Name == "" {
		return ErrNameRequired
	}
	if t.Date.IsZero() {
		return ErrDateRequired
	}
	if t.MaxPlayers <= 0 {
		return ErrInvalidCapacity
	}
	if t.EntryFee < 0 {
		return ErrNegativeEntryFee
	}
	if t.PrizePool < 0 {
		return ErrNegativePrizePool
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(t.RegisteredPlayers) > t.MaxPlayers {
		return ErrRosterOverCapacity
	}

	seen := make(map[string]struct{}, len(t.RegisteredPlayers))
	for _, id := range t.RegisteredPlayers {
		if _, dup := seen[id]; dup {
			return ErrDuplicatePlayer
		}
		seen[id] = struct{}{}
	}

	if t.Status != StatusCompleted {
		if t.Results != nil {
			return ErrResultsNotExpected
		}
		return nil
	}
	if len(t.Results) == 0 {
		return ErrResultsMissing
	}
	return t.validateResults(seen)
}

func (t *Tournament) validateResults(roster map[string]struct{}) error {
	ranks := make(map[int]struct{}, len(t.Results))
	var total int64
	for _, r := range t.Results {
		if _, ok := roster[r.PlayerID]; !ok {
			return ErrResultUnknownPlayer
		}
		if r.Rank <= 0 {
			return ErrInvalidRank
		}
		if _, dup := ranks[r.Rank]; dup {
			return ErrDuplicateRank
		}
		ranks[r.Rank] = struct{}{}
		if r.Payout < 0 {
			return ErrNegativePayout
		}
		total += r.Payout
	}
	if total > t.PrizePool {
		return ErrPayoutExceedsPool
	}
	return nil
}

// Clone returns a deep copy, so repository snapshots never alias the stored
// record.
func (t *Tournament) Clone() *Tournament {
	cp := *t
	if t.RegisteredPlayers != nil {
		cp.RegisteredPlayers = append([]string(nil), t.RegisteredPlayers...)
	}
	if t.Results != nil {
		cp.Results = append([]Result(nil), t.Results...)
	}
	if t.BannerKey != nil {
		key := *t.BannerKey
		cp.BannerKey = &key
	}
	if t.BannerURL != nil {
		url := *t.BannerURL
		cp.BannerURL = &url
	}
	return &cp
}
