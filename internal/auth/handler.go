package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/stockroom/stockroom/internal/platform/httpx"
	"github.com/stockroom/stockroom/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *httpx.Validator
	// loginLimit caps register and login attempts per client IP per minute.
	loginLimit int
}

// NewHandler constructs a Handler instance. A non-positive loginLimit
// disables the stricter limiter.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, validator *httpx.Validator, loginLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, responder: responder, validator: validator, loginLimit: loginLimit}
}

// MountPublicRoutes registers the routes reachable without a token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.loginLimit > 0 {
			r.Use(httprate.Limit(h.loginLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		}
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})
}

// MountRoutes registers the routes that require an authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/user", h.profile)
	r.Post("/logout", h.logout)
	r.Put("/user/update", h.updateProfile)
	r.Put("/user/change-password", h.changePassword)
}

type registerRequest struct {
	Name                 string  `json:"name" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Password             string  `json:"password" validate:"required,min=6,eqfield=PasswordConfirmation"`
	PasswordConfirmation string  `json:"password_confirmation"`
	Phone                *string `json:"phone" validate:"omitempty,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone  *string `json:"phone" validate:"omitempty,max=20"`
	Avatar *string `json:"avatar" validate:"omitempty,max=500"`
}

type changePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=6,eqfield=NewPasswordConfirmation"`
	NewPasswordConfirmation string `json:"new_password_confirmation"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	session, err := h.service.Register(r.Context(), RegisterCommand{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.responder.Error(w, r, err, "Registration failed")
		return
	}
	h.logger.Info("user registered", slog.Int64("user_id", session.User.ID))
	httpx.Created(w, "User registered successfully", session)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	session, err := h.service.Login(r.Context(), LoginCommand{Email: req.Email, Password: req.Password})
	if err != nil {
		h.responder.Error(w, r, err, "Login failed")
		return
	}
	httpx.OK(w, "Login successful", session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		h.responder.Error(w, r, shared.ErrUnauthenticated, "Logout failed")
		return
	}
	if err := h.service.Logout(r.Context(), user.TokenID); err != nil {
		h.responder.Error(w, r, err, "Logout failed")
		return
	}
	httpx.OK(w, "Logged out successfully", nil)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Profile(r.Context(), shared.ActorID(r.Context()))
	if err != nil {
		h.responder.Error(w, r, err, "Failed to retrieve user")
		return
	}
	httpx.OK(w, "User profile retrieved successfully", map[string]any{"user": user})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), UpdateProfileCommand{
		UserID: shared.ActorID(r.Context()),
		Name:   req.Name,
		Phone:  req.Phone,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to update profile")
		return
	}
	httpx.OK(w, "Profile updated successfully", map[string]any{"user": user})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.responder.Decode(w, r, h.validator, &req) {
		return
	}
	err := h.service.ChangePassword(r.Context(), ChangePasswordCommand{
		UserID:          shared.ActorID(r.Context()),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.responder.Error(w, r, err, "Failed to change password")
		return
	}
	httpx.OK(w, "Password changed successfully", nil)
}
