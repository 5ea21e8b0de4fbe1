// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/voucher-vote/auth"
	"github.com/danielhkuo/voucher-vote/cliparse"
	"github.com/danielhkuo/voucher-vote/db"
	"github.com/danielhkuo/voucher-vote/middleware"
	"github.com/danielhkuo/voucher-vote/models"
)

type UserHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewUserHandler(db *sql.DB, cfg cliparse.Config) *UserHandler {
	return &UserHandler{db: db, cfg: cfg}
}

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

func scanUser(scan func(dest ...any) error) (models.User, error) {
	var u models.User
	err := scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if email == "" || !strings.Contains(email, "@") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	now := time.Now()
	u := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleVoter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO app_user (name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, u.Name, u.Email, u.PasswordHash, u.Role, now, now).Scan(&u.ID)
	if db.IsUniqueViolation(err, "app_user", "email") {
		middleware.ErrorResponse(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		slog.Error("failed to insert user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	slog.Info("user registered", "user_id", u.ID)
	middleware.JSONResponse(w, http.StatusCreated, u)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	u, err := scanUser(h.db.QueryRowContext(r.Context(), `SELECT `+userColumns+` FROM app_user WHERE email = $1`, normalizeEmail(req.Email)).Scan)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	// Unknown email and wrong password look the same to the caller
	if err != nil || auth.CheckPassword(u.PasswordHash, req.Password) != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	sessionUser := models.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
	token, expiresAt, err := auth.IssueSessionToken(sessionUser, h.cfg.SessionSecret, h.cfg.SessionTTL, time.Now())
	if err != nil {
		slog.Error("failed to issue session token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})

	slog.Info("user signed in", "user_id", u.ID, "role", u.Role)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      sessionUser,
	})
}

// Session handles GET /auth/session. Anonymous callers get {"session": null}.
func (h *UserHandler) Session(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CurrentUser(r)
	if !ok {
		middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{})
		return
	}

	u, err := scanUser(h.db.QueryRowContext(r.Context(), `SELECT `+userColumns+` FROM app_user WHERE id = $1`, caller.ID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{})
		return
	}
	if err != nil {
		slog.Error("failed to query user", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		Session: &models.Session{User: models.SessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}},
	})
}

// Logout handles POST /auth/logout
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Signed out"})
}

// ListUsers handles GET /admin/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `SELECT `+userColumns+` FROM app_user ORDER BY created_at DESC, id DESC`)
	if err != nil {
		slog.Error("failed to query users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			slog.Error("failed to scan user", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate users", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserListResponse{Users: users})
}

// BootstrapAdmin makes sure an ADMIN account exists for email. An existing
// account is promoted and keeps its password. Safe to call on every start.
func BootstrapAdmin(ctx context.Context, conn *sql.DB, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}

	res, err := conn.ExecContext(ctx, `UPDATE app_user SET role = $1, updated_at = $2 WHERE email = $3 AND role <> $1`,
		models.RoleAdmin, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to promote admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("existing account promoted to admin", "email", email)
		return nil
	}

	var exists bool
	if err := conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM app_user WHERE email = $1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = conn.ExecContext(ctx, `
		INSERT INTO app_user (name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, "Administrator", email, hash, models.RoleAdmin, now, now)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("admin account created", "email", email)
	return nil
}
