package services

import (
	"context"
	"sync"
)

// PaymentGateway is the engine's narrow view of the payment collaborator.
// Entry-fee capture happens before registration: Register consults
// FeeConfirmed and admits only players whose fee the collaborator has
// confirmed. PayoutInFlight guards deletion of tournaments whose payouts are
// still being disbursed externally.
type PaymentGateway interface {
	FeeConfirmed(ctx context.Context, tournamentID, playerID string) (bool, error)
	PayoutInFlight(ctx context.Context, tournamentID string) (bool, error)
}

// StaticPaymentGateway is an in-process stand-in for the real gateway. With
// autoConfirm set it treats every fee as captured; otherwise fees must be
// confirmed explicitly (as a payment callback would).
type StaticPaymentGateway struct {
	autoConfirm bool

	mu       sync.RWMutex
	fees     map[string]map[string]bool
	inFlight map[string]bool
}

func NewStaticPaymentGateway(autoConfirm bool) *StaticPaymentGateway {
	return &StaticPaymentGateway{
		autoConfirm: autoConfirm,
		fees:        make(map[string]map[string]bool),
		inFlight:    make(map[string]bool),
	}
}

func (g *StaticPaymentGateway) FeeConfirmed(_ context.Context, tournamentID, playerID string) (bool, error) {
	if g.autoConfirm {
		return true, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.fees[tournamentID][playerID], nil
}

func (g *StaticPaymentGateway) PayoutInFlight(_ context.Context, tournamentID string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.inFlight[tournamentID], nil
}

// ConfirmFee records an entry-fee capture, as the payment callback would.
func (g *StaticPaymentGateway) ConfirmFee(tournamentID, playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fees[tournamentID] == nil {
		g.fees[tournamentID] = make(map[string]bool)
	}
	g.fees[tournamentID][playerID] = true
}

// SetPayoutInFlight marks or clears in-flight payout processing.
func (g *StaticPaymentGateway) SetPayoutInFlight(tournamentID string, inFlight bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight[tournamentID] = inFlight
}
