package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/expensio/expensio-be/internal/auth"
	"github.com/expensio/expensio-be/internal/services"
)

// AuthHandler handles HTTP requests for registration, login and profiles.
type AuthHandler struct {
	service services.AuthServiceProvider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.AuthServiceProvider) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func validateRegister(p RegisterPayload) *services.ValidationError {
	var details []string
	if n := len(strings.TrimSpace(p.Name)); n < 2 || n > 50 {
		details = append(details, "name must be between 2 and 50 characters")
	}
	if !strings.Contains(p.Email, "@") {
		details = append(details, "a valid email is required")
	}
	if len(p.Password) < 6 {
		details = append(details, "password must be at least 6 characters")
	}
	if len(details) > 0 {
		return &services.ValidationError{Details: details}
	}
	return nil
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	if vErr := validateRegister(payload); vErr != nil {
		respondError(w, vErr)
		return
	}

	token, user, err := h.service.Register(strings.TrimSpace(payload.Name), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// Login handles user authentication and token generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	if payload.Email == "" || payload.Password == "" {
		respondError(w, &services.ValidationError{Details: []string{"email and password are required"}})
		return
	}

	token, user, err := h.service.Login(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetProfile returns the authenticated user's profile.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	profile, err := h.service.GetProfile(user.ID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to get profile")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfile writes the allow-listed profile fields. Unknown fields in
// the payload are ignored, not rejected.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	var payload services.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	if payload.Name != nil {
		trimmed := strings.TrimSpace(*payload.Name)
		if n := len(trimmed); n < 2 || n > 50 {
			respondError(w, &services.ValidationError{Details: []string{"name must be between 2 and 50 characters"}})
			return
		}
		payload.Name = &trimmed
	}

	profile, err := h.service.UpdateProfile(user.ID, payload)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// ChangePassword handles changing the authenticated user's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "Invalid request body"})
		return
	}

	if len(payload.NewPassword) < 6 {
		respondError(w, &services.ValidationError{Details: []string{"new password must be at least 6 characters"}})
		return
	}

	if err := h.service.ChangePassword(user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to change password")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Logout acknowledges a logout. Tokens are stateless, so the client simply
// discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Refresh issues a fresh token for the authenticated user.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	token, err := h.service.RefreshToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to refresh token")
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
