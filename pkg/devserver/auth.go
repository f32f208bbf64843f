package devserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/db"
)

const invalidCredentials = "invalid email or password"

type authenticateData struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// Authenticate exchanges an email and password for a bearer token
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := h.readJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, h.validationMessage(err))
		return
	}

	employee, err := h.store.GetEmployeeByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.errorResponse(w, r, http.StatusUnauthorized, invalidCredentials)
			return
		}
		h.logInternalServerError(r, err)
		h.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			h.logger.Warn("Stored password hash is unusable", zap.Int("staff_id", employee.StaffID), zap.Error(err))
		}
		h.errorResponse(w, r, http.StatusUnauthorized, invalidCredentials)
		return
	}

	now := h.now()
	expiresAt := now.Add(h.opts.TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Position: employee.Position,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.Itoa(employee.StaffID),
		},
	})
	signed, err := token.SignedString([]byte(h.opts.JWTSecret))
	if err != nil {
		h.logInternalServerError(r, err)
		h.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("Issued token", zap.Int("staff_id", employee.StaffID))
	h.successResponse(w, r, "authenticated", authenticateData{
		Token:     signed,
		ExpiresAt: expiresAt.UTC().Truncate(time.Second),
		User:      toUser(employee),
	})
}

func toUser(e *db.Employee) model.User {
	return model.User{
		StaffID:          e.StaffID,
		Name:             e.Name,
		Email:            e.Email,
		Position:         e.Position,
		Department:       e.Department,
		ReportingManager: e.ReportingManager,
	}
}
