package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
	"github.com/ffarena/tournament-engine/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP translates service-layer errors into HTTP responses.
// Every error kind the engine defines maps to a distinct, presentable
// response so the operator surface can tell them apart.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound):
		notFoundResponse(w)

	// Wrong state for the attempted operation
	case errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrTournamentNotStarted),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrEditNotAllowed):
		conflictResponse(w, err.Error())

	// Finalized tournaments and concurrent-write collisions
	case errors.Is(err, services.ErrTournamentFinalized),
		errors.Is(err, services.ErrResultsAlreadySubmitted),
		errors.Is(err, services.ErrPayoutInFlight),
		errors.Is(err, repositories.ErrUpdateConflict):
		conflictResponse(w, err.Error())

	// Capacity and roster conflicts
	case errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrNotRegistered):
		conflictResponse(w, err.Error())

	// Invalid arguments and invariant violations
	case errors.Is(err, services.ErrPlayerIDRequired),
		errors.Is(err, services.ErrEntryFeeNotPaid),
		errors.Is(err, services.ErrCapacityBelowRoster),
		errors.Is(err, services.ErrResultsRequired),
		errors.Is(err, services.ErrUnsupportedBannerFormat),
		errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrDateRequired),
		errors.Is(err, models.ErrInvalidCapacity),
		errors.Is(err, models.ErrNegativeEntryFee),
		errors.Is(err, models.ErrNegativePrizePool),
		errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrRosterOverCapacity),
		errors.Is(err, models.ErrDuplicatePlayer),
		errors.Is(err, models.ErrResultsNotExpected),
		errors.Is(err, models.ErrResultsMissing),
		errors.Is(err, models.ErrResultUnknownPlayer),
		errors.Is(err, models.ErrInvalidRank),
		errors.Is(err, models.ErrDuplicateRank),
		errors.Is(err, models.ErrNegativePayout),
		errors.Is(err, models.ErrPayoutExceedsPool):
		badRequestResponse(w, err)

	case errors.Is(err, services.ErrBannerStorageDisabled):
		errorResponse(w, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, err)
	}
}
