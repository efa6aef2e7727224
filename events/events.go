package events

import (
	"time"

	"github.com/ffarena/tournament-engine/models"
)

// Type identifies a domain event emitted by the engine.
type Type string

const (
	TypeTournamentCreated  Type = "TOURNAMENT_CREATED"
	TypeRegistrationClosed Type = "REGISTRATION_CLOSED"
	TypeResultsPublished   Type = "RESULTS_PUBLISHED"
)

// Message is the wire form of a domain event. TournamentID doubles as the
// room key for subscribers watching a single tournament.
type Message struct {
	Type         Type        `json:"type"`
	TournamentID string      `json:"tournament_id"`
	Payload      interface{} `json:"payload,omitempty"`
}

type TournamentCreatedPayload struct {
	Name       string    `json:"name"`
	Date       time.Time `json:"date"`
	EntryFee   int64     `json:"entry_fee"`
	MaxPlayers int       `json:"max_players"`
	PrizePool  int64     `json:"prize_pool"`
}

type RegistrationClosedPayload struct {
	RegisteredPlayers []string `json:"registered_players"`
}

type ResultsPublishedPayload struct {
	PrizePool int64           `json:"prize_pool"`
	Results   []models.Result `json:"results"`
}

// Publisher is the engine's view of the notification collaborator. Delivery
// mechanics are entirely the implementation's concern; the engine only hands
// over the event.
type Publisher interface {
	TournamentCreated(t *models.Tournament)
	RegistrationClosed(t *models.Tournament)
	ResultsPublished(t *models.Tournament)
}

// NopPublisher discards every event. Used when no notification transport is
// wired, e.g. in tests that do not assert on events.
type NopPublisher struct{}

func (NopPublisher) TournamentCreated(*models.Tournament)  {}
func (NopPublisher) RegistrationClosed(*models.Tournament) {}
func (NopPublisher) ResultsPublished(*models.Tournament)   {}
