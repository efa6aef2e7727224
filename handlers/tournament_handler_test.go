package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ffarena/tournament-engine/events"
	"github.com/ffarena/tournament-engine/handlers"
	"github.com/ffarena/tournament-engine/middleware"
	"github.com/ffarena/tournament-engine/models"
	"github.com/ffarena/tournament-engine/repositories"
	"github.com/ffarena/tournament-engine/routes"
	"github.com/ffarena/tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) (*chi.Mux, repositories.TournamentRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repositories.NewInMemoryTournamentRepository()
	gateway := services.NewStaticPaymentGateway(true)
	publisher := events.NopPublisher{}

	tournamentService := services.NewTournamentService(repo, gateway, nil, publisher, logger)
	registrationService := services.NewRegistrationService(repo, gateway, logger)
	prizeService := services.NewPrizeService(repo, publisher, logger)
	dashboardService := services.NewDashboardService(repo)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		testSecret,
		handlers.NewAuthHandler(testSecret, string(hash)),
		handlers.NewTournamentHandler(tournamentService, prizeService),
		handlers.NewRegistrationHandler(registrationService),
		handlers.NewDashboardHandler(dashboardService),
		handlers.NewWebSocketHandler(events.NewHub(logger), logger),
	)
	return router, repo
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router *chi.Mux, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createTournament(t *testing.T, router *chi.Mux, operatorToken string) models.Tournament {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/tournaments", operatorToken, map[string]interface{}{
		"name":        "Squad Clash",
		"date":        time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"entry_fee":   5000,
		"max_players": 2,
		"prize_pool":  100000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tournament: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Tournament models.Tournament `json:"tournament"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Tournament
}

func TestCreateRequiresOperator(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/tournaments", "", map[string]interface{}{"name": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: status %d, want 401", rec.Code)
	}

	playerToken := signToken(t, "p1", middleware.RolePlayer)
	rec = doJSON(t, router, http.MethodPost, "/tournaments", playerToken, map[string]interface{}{"name": "x"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("player create: status %d, want 403", rec.Code)
	}
}

func TestCreateAndGetTournament(t *testing.T) {
	router, _ := newTestRouter(t)
	operator := signToken(t, "operator", middleware.RoleOperator)

	created := createTournament(t, router, operator)
	if created.Status != models.StatusUpcoming {
		t.Fatalf("status = %s, want upcoming", created.Status)
	}

	rec := doJSON(t, router, http.MethodGet, "/tournaments/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/tournaments/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get missing: status %d, want 404", rec.Code)
	}
}

func TestRegisterFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	operator := signToken(t, "operator", middleware.RoleOperator)
	created := createTournament(t, router, operator)
	path := fmt.Sprintf("/tournaments/%s/register", created.ID)

	p1 := signToken(t, "p1", middleware.RolePlayer)
	rec := doJSON(t, router, http.MethodPost, path, p1, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d, body %s", rec.Code, rec.Body.String())
	}

	// Duplicate registration is a conflict, not a silent success.
	rec = doJSON(t, router, http.MethodPost, path, p1, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d, want 409", rec.Code)
	}

	p2 := signToken(t, "p2", middleware.RolePlayer)
	if rec := doJSON(t, router, http.MethodPost, path, p2, nil); rec.Code != http.StatusCreated {
		t.Fatalf("second register: status %d", rec.Code)
	}

	// Capacity is 2; a third player sees a conflict.
	p3 := signToken(t, "p3", middleware.RolePlayer)
	rec = doJSON(t, router, http.MethodPost, path, p3, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("register over capacity: status %d, want 409", rec.Code)
	}

	// Withdraw and the slot opens again.
	if rec := doJSON(t, router, http.MethodDelete, path, p1, nil); rec.Code != http.StatusOK {
		t.Fatalf("withdraw: status %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, path, p3, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register after withdraw: status %d", rec.Code)
	}
}

func TestEditGuards(t *testing.T) {
	router, repo := newTestRouter(t)
	operator := signToken(t, "operator", middleware.RoleOperator)
	created := createTournament(t, router, operator)

	for _, p := range []string{"p1", "p2"} {
		token := signToken(t, p, middleware.RolePlayer)
		if rec := doJSON(t, router, http.MethodPost, "/tournaments/"+created.ID+"/register", token, nil); rec.Code != http.StatusCreated {
			t.Fatalf("register %s: status %d", p, rec.Code)
		}
	}

	// Reducing capacity below the roster size must fail.
	rec := doJSON(t, router, http.MethodPatch, "/tournaments/"+created.ID, operator, map[string]interface{}{"max_players": 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("capacity edit: status %d, want 400", rec.Code)
	}

	stored, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.MaxPlayers != 2 || len(stored.RegisteredPlayers) != 2 {
		t.Fatalf("rejected edit modified the record: %+v", stored)
	}
}

func TestResultsFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	operator := signToken(t, "operator", middleware.RoleOperator)
	created := createTournament(t, router, operator)
	id := created.ID

	for _, p := range []string{"p1", "p2"} {
		token := signToken(t, p, middleware.RolePlayer)
		if rec := doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/register", token, nil); rec.Code != http.StatusCreated {
			t.Fatalf("register %s: status %d", p, rec.Code)
		}
	}

	results := map[string]interface{}{
		"results": []map[string]interface{}{
			{"player_id": "p1", "rank": 1, "payout": 60000},
			{"player_id": "p2", "rank": 2, "payout": 40000},
		},
	}

	// Results before the tournament starts are rejected.
	rec := doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/results", operator, results)
	if rec.Code != http.StatusConflict {
		t.Fatalf("early results: status %d, want 409", rec.Code)
	}

	if rec := doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/start", operator, nil); rec.Code != http.StatusOK {
		t.Fatalf("start: status %d", rec.Code)
	}

	// Payouts above the pool are invalid.
	over := map[string]interface{}{
		"results": []map[string]interface{}{
			{"player_id": "p1", "rank": 1, "payout": 90000},
			{"player_id": "p2", "rank": 2, "payout": 20000},
		},
	}
	if rec := doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/results", operator, over); rec.Code != http.StatusBadRequest {
		t.Fatalf("over-pool results: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/results", operator, results)
	if rec.Code != http.StatusOK {
		t.Fatalf("results: status %d, body %s", rec.Code, rec.Body.String())
	}

	// Resubmission after finalization is a conflict.
	if rec := doJSON(t, router, http.MethodPost, "/tournaments/"+id+"/results", operator, results); rec.Code != http.StatusConflict {
		t.Fatalf("resubmit: status %d, want 409", rec.Code)
	}
}

func TestOperatorLogin(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]interface{}{"password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]interface{}{"password": "hunter2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login token missing: %v, body %s", err, rec.Body.String())
	}

	// The issued token carries the operator role.
	if rec := doJSON(t, router, http.MethodGet, "/dashboard", resp.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("dashboard with issued token: status %d", rec.Code)
	}
}

func TestDashboardRequiresOperator(t *testing.T) {
	router, _ := newTestRouter(t)

	if rec := doJSON(t, router, http.MethodGet, "/dashboard", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated dashboard: status %d, want 401", rec.Code)
	}
	player := signToken(t, "p1", middleware.RolePlayer)
	if rec := doJSON(t, router, http.MethodGet, "/dashboard", player, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("player dashboard: status %d, want 403", rec.Code)
	}
}
