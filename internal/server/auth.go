package server

import (
	"errors"
	"net/http"

	"github.com/meridianaudio/meridian/internal/auth"
	"github.com/meridianaudio/meridian/internal/mailer"
	"github.com/meridianaudio/meridian/internal/store"
	"github.com/meridianaudio/meridian/internal/telemetry"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	CaptchaToken string `json:"captchaToken"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, invalidf("email and password are required"))
		return
	}

	ok, err := s.captcha.Verify(r.Context(), req.CaptchaToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		telemetry.GetMetrics().AuthFailuresTotal.Add(r.Context(), 1)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "captcha verification failed"})
		return
	}

	user, err := s.stores.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			telemetry.GetMetrics().AuthFailuresTotal.Add(r.Context(), 1)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		writeError(w, r, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		telemetry.GetMetrics().AuthFailuresTotal.Add(r.Context(), 1)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
		return
	}

	token, err := s.tokens.Issue(auth.ClaimsForUser(user))
	if err != nil {
		writeError(w, r, err)
		return
	}

	telemetry.GetMetrics().LoginsTotal.Add(r.Context(), 1)

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: userViewFrom(user)})
}

type verifyResponse struct {
	Valid bool      `json:"valid"`
	User  *userView `json:"user,omitempty"`
}

// handleVerify is the token probe: it answers 200 with valid=false rather
// than 401 so frontends can use it to decide whether a stored token is still
// usable.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	tokenStr, ok := auth.BearerToken(r)
	if !ok {
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}

	claims, err := s.tokens.Verify(tokenStr)
	if err != nil {
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}

	user, err := s.stores.Users.Get(r.Context(), userID)
	if err != nil {
		// The token is sound but its subject is gone; treat as invalid.
		writeJSON(w, http.StatusOK, verifyResponse{Valid: false})
		return
	}

	view := userViewFrom(user)
	writeJSON(w, http.StatusOK, verifyResponse{Valid: true, User: &view})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	caps, err := s.capabilities(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.NewPassword) < 8 {
		writeError(w, r, invalidf("new password must be at least 8 characters"))
		return
	}

	user, err := s.stores.Users.Get(r.Context(), caps.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.OldPassword) {
		writeError(w, r, invalidf("current password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.stores.Users.UpdatePassword(r.Context(), user.UserID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

// handleResetPassword always reports success so the endpoint cannot be used
// to probe which addresses have accounts.
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	respond := func() {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}

	user, err := s.stores.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		respond()
		return
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		respond()
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		respond()
		return
	}

	if err := s.stores.Users.UpdatePassword(r.Context(), user.UserID, hash); err != nil {
		log.Error().Err(err).Str("user_id", user.UserID.String()).Msg("Password reset failed")
		respond()
		return
	}

	err = s.mail.Send(r.Context(), mailer.Message{
		To:      user.Email,
		Subject: "Your temporary password",
		HTML:    "<p>Your password was reset. Temporary password: <code>" + password + "</code></p>",
		Text:    "Your password was reset. Temporary password: " + password,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.UserID.String()).Msg("Password reset email failed")
	}

	respond()
}
