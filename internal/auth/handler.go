package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/promptforge/backend/internal/middleware"
	"github.com/promptforge/backend/internal/models"
)

// UserStore defines the user persistence operations the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hashedPw string) error
	Set2FAEnabled(ctx context.Context, id string, enabled bool) error
	SetTwoFactorCode(ctx context.Context, id, code string, expiry time.Time) error
	ClearTwoFactorCode(ctx context.Context, id string) error
}

// Mailer delivers one-time login codes.
type Mailer interface {
	Send2FACode(ctx context.Context, toEmail, code string) error
}

// Handler holds auth and account HTTP handlers.
type Handler struct {
	users  UserStore
	jwt    *JWT
	mailer Mailer
	log    *slog.Logger
}

func NewHandler(users UserStore, jwtSvc *JWT, mailer Mailer, log *slog.Logger) *Handler {
	return &Handler{users: users, jwt: jwtSvc, mailer: mailer, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Register creates a new user and issues a token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email, and password are required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	if existing, _ := h.users.GetUserByEmail(r.Context(), req.Email); existing != nil {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, string(hashed))
	if err != nil {
		h.log.Error("create user", "err", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := h.jwt.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  user.Profile(),
		"token": token,
	})
}

// Login checks credentials. With 2FA disabled it issues a token directly;
// with 2FA enabled it emails a one-time code and returns token:null until
// the code is verified.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	if user.Is2FAEnabled {
		code, err := GenerateCode()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		if err := h.users.SetTwoFactorCode(r.Context(), user.ID, code, time.Now().Add(TwoFactorTTL)); err != nil {
			h.log.Error("store 2fa code", "err", err)
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		if err := h.mailer.Send2FACode(r.Context(), user.Email, code); err != nil {
			h.log.Error("send 2fa code", "err", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "Failed to send 2FA code")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message": "2FA code sent to your email",
			"user":    user.Profile(),
			"token":   nil,
		})
		return
	}

	token, err := h.jwt.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user.Profile(),
		"token": token,
	})
}

// Verify2FA completes a pending login. A correct, unexpired code clears the
// stored challenge so it cannot be replayed, then issues a token.
func (h *Handler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req models.Verify2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "userId and code are required")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), req.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	switch err := VerifyCode(user, req.Code, time.Now()); err {
	case nil:
	case ErrCodeExpired:
		writeError(w, http.StatusBadRequest, "2FA code has expired")
		return
	default:
		writeError(w, http.StatusBadRequest, "Invalid 2FA code")
		return
	}

	if err := h.users.ClearTwoFactorCode(r.Context(), user.ID); err != nil {
		h.log.Error("clear 2fa code", "err", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := h.jwt.Sign(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "2FA verification successful",
		"token":   token,
		"user":    user.Profile(),
	})
}

// Toggle2FA enables or disables email 2FA for the current user.
func (h *Handler) Toggle2FA(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req models.Toggle2FARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.Set2FAEnabled(r.Context(), user.ID, req.Enable); err != nil {
		h.log.Error("toggle 2fa", "err", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	msg := "2FA disabled"
	if req.Enable {
		msg = "2FA enabled"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      msg,
		"is2FAEnabled": req.Enable,
	})
}

// TwoFAStatus reports whether 2FA is enabled for the current user.
func (h *Handler) TwoFAStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is2FAEnabled": user.Is2FAEnabled})
}

// Me returns the current user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

// UpdateProfile changes name and/or email. Blank fields keep their current
// value; a changed email must not collide with another account.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := req.Name
	if name == "" {
		name = user.Name
	}
	email := req.Email
	if email == "" {
		email = user.Email
	}

	if email != user.Email {
		if existing, _ := h.users.GetUserByEmail(r.Context(), email); existing != nil {
			writeError(w, http.StatusBadRequest, "Email already in use")
			return
		}
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, name, email)
	if err != nil {
		h.log.Error("update profile", "err", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, updated.Profile())
}

// UpdatePassword changes the current user's password after re-checking the
// current one.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}
	if req.CurrentPassword == req.NewPassword {
		writeError(w, http.StatusBadRequest, "New password cannot be the same as current password")
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "New password must be at least 6 characters long")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, string(hashed)); err != nil {
		h.log.Error("update password", "err", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
