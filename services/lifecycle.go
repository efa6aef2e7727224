package services

import "github.com/ffarena/tournament-engine/models"

// Status transitions are strictly forward: upcoming → ongoing → completed.
// There is no backward transition and no skip — a tournament must pass
// through ongoing before it can complete, and completion happens only via a
// results submission.
var allowedTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusUpcoming:  {models.StatusOngoing},
	models.StatusOngoing:   {models.StatusCompleted},
	models.StatusCompleted: {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}
