package handlers

import (
	"net/http"
	"time"

	"github.com/ffarena/tournament-engine/middleware"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler issues operator tokens. Player tokens come from the external
// identity collaborator signed with the same secret; the engine only
// verifies them.
type AuthHandler struct {
	jwtSecret            []byte
	operatorPasswordHash string
}

func NewAuthHandler(jwtSecret, operatorPasswordHash string) *AuthHandler {
	return &AuthHandler{
		jwtSecret:            []byte(jwtSecret),
		operatorPasswordHash: operatorPasswordHash,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.operatorPasswordHash == "" {
		errorResponse(w, http.StatusServiceUnavailable, "operator login is not configured")
		return
	}

	var input loginRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.operatorPasswordHash), []byte(input.Password)); err != nil {
		unauthorizedResponse(w, "invalid credentials")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "operator",
		"role": middleware.RoleOperator,
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jsonResponse{"token": signed})
}
