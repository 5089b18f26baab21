package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-auth-api/internal/httputil"
	"go-auth-api/internal/logging"
	"go-auth-api/internal/ratelimit"
	"go-auth-api/internal/token"
	"go-auth-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service         *Service
	rateLimiter     *ratelimit.Limiter
	logger          *logging.Logger
	isProduction    bool
	accessDuration  time.Duration
	refreshDuration time.Duration
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter, logger *logging.Logger, isProduction bool, accessDuration, refreshDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		rateLimiter:     rateLimiter,
		logger:          logger,
		isProduction:    isProduction,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Role          user.Role `json:"role"`
	EmailVerified bool      `json:"email_verified"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// LoginResponse represents the login response for non-cookie clients
type LoginResponse struct {
	User   UserResponse     `json:"user"`
	Tokens token.AuthTokens `json:"tokens"`
}

func newUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with email and password. A verification email will be sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration credentials"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} ErrorResponse "Email already exists"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			respondError(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, RegisterResponse{
		User:    newUserResponse(newUser),
		Message: "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate user and receive access and refresh tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid credentials"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	loggedInUser, tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			respondError(w, "incorrect email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	if ShouldUseCookies(r) {
		SetAuthCookies(w, tokens.Access.Token, tokens.Refresh.Token, h.isProduction, h.accessDuration, h.refreshDuration)
		respondJSON(w, map[string]any{
			"message": "logged in successfully",
			"user":    newUserResponse(loggedInUser),
		}, http.StatusOK)
		return
	}

	respondJSON(w, LoginResponse{
		User:   newUserResponse(loggedInUser),
		Tokens: *tokens,
	}, http.StatusOK)
}

// Refresh handles access token refresh
// @Summary      Refresh auth tokens
// @Description  Rotate a refresh token into a new access/refresh pair. The old refresh token is invalidated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh token"
// @Success      200 {object} token.AuthTokens
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid or expired refresh token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/refresh-tokens [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	refreshToken := refreshTokenFromRequest(r)
	if refreshToken == "" {
		logger.Warn("refresh token missing from both body and cookie")
		respondError(w, "refresh token required", httputil.CodeRefreshTokenRequired, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrAuthenticationRequired) {
			logger.Warn("token refresh failed: invalid or expired token")
			respondError(w, "please authenticate", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("auth tokens rotated successfully")

	if ShouldUseCookies(r) {
		SetAuthCookies(w, tokens.Access.Token, tokens.Refresh.Token, h.isProduction, h.accessDuration, h.refreshDuration)
		respondJSON(w, map[string]string{
			"message": "token refreshed successfully",
		}, http.StatusOK)
		return
	}

	respondJSON(w, tokens, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Logout user by revoking the refresh token and clearing cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Optional refresh token"
// @Success      200 {object} map[string]string
// @Failure      404 {object} ErrorResponse "Refresh token not found"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	refreshToken := refreshTokenFromRequest(r)
	if refreshToken != "" {
		if err := h.service.Logout(r.Context(), refreshToken); err != nil {
			if errors.Is(err, token.ErrTokenNotFound) {
				logger.Warn("logout: refresh token not found")
				ClearAuthCookies(w)
				respondError(w, "token not found", httputil.CodeInvalidRefreshToken, http.StatusNotFound)
				return
			}
			logger.Warn("failed to revoke refresh token", "error", err)
			// Continue - still clear cookies
		}
	}

	ClearAuthCookies(w)

	logger.Info("user logged out successfully")

	respondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Send a password reset link to the user's email. Always returns success to prevent email enumeration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      429 {object} ErrorResponse "Too many requests"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
	} else if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		respondError(w, "please wait before requesting another reset", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	// Always returns nil for security
	_ = h.service.ForgotPassword(r.Context(), req.Email)

	respondJSON(w, map[string]string{
		"message": "If an account exists with that email, a password reset link has been sent.",
	}, http.StatusOK)
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Reset a user's password using a valid reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Invalid request body or password"
// @Failure      401 {object} ErrorResponse "Invalid or expired reset token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Token) == "" {
		respondError(w, "reset token required", httputil.CodeResetTokenRequired, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), strings.TrimSpace(req.Token), req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrPasswordResetFailed) {
			logger.Warn("password reset failed: invalid or expired token")
			respondError(w, "password reset failed", httputil.CodeInvalidResetToken, http.StatusUnauthorized)
			return
		}
		if code, ok := validationCode(err); ok {
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, err.Error(), code, http.StatusBadRequest)
			return
		}
		logger.Error("password reset failed: internal error", "error", err.Error())
		respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully")

	respondJSON(w, map[string]string{
		"message": "Password reset successfully. You can now login with your new password.",
	}, http.StatusOK)
}

// SendVerificationEmail issues a new verification email for the
// authenticated user
// @Summary      Send verification email
// @Description  Send a new verification email to the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Email already verified"
// @Failure      401 {object} ErrorResponse "Unauthorized"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/send-verification-email [post]
func (h *Handler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "please authenticate", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	if err := h.service.SendVerificationEmail(r.Context(), userID); err != nil {
		if errors.Is(err, ErrEmailAlreadyVerified) {
			logger.Warn("send verification failed: already verified")
			respondError(w, "This email is already verified.", httputil.CodeAlreadyVerified, http.StatusBadRequest)
			return
		}
		logger.Error("send verification failed: internal error", "error", err.Error())
		respondError(w, "failed to send verification email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("verification email requested", "user_id", userID)

	respondJSON(w, map[string]string{
		"message": "Verification email sent. Please check your inbox.",
	}, http.StatusOK)
}

// VerifyEmail handles email verification
// @Summary      Verify email address
// @Description  Verify a user's email address using the verification token sent via email
// @Tags         auth
// @Produce      json
// @Param        token query string true "Verification token"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Token missing"
// @Failure      401 {object} ErrorResponse "Invalid or expired token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/verify-email [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	verifyToken := r.URL.Query().Get("token")
	if verifyToken == "" {
		logger.Warn("email verification failed: token missing")
		respondError(w, "verification token required", httputil.CodeVerificationTokenRequired, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), verifyToken); err != nil {
		if errors.Is(err, ErrEmailVerificationFailed) {
			logger.Warn("email verification failed: invalid or expired token")
			respondError(w, "email verification failed", httputil.CodeVerificationFailed, http.StatusUnauthorized)
			return
		}
		logger.Error("email verification failed: internal error", "error", err.Error())
		respondError(w, "failed to verify email", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("email verified successfully")

	respondJSON(w, map[string]string{
		"message": "Email verified successfully.",
	}, http.StatusOK)
}

// refreshTokenFromRequest reads the refresh token from the JSON body,
// falling back to the refresh cookie for browser clients.
func refreshTokenFromRequest(r *http.Request) string {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		return strings.TrimSpace(req.RefreshToken)
	}

	if cookieToken, err := GetRefreshTokenFromCookie(r); err == nil {
		return strings.TrimSpace(cookieToken)
	}

	return ""
}

// validationCode maps user input validation errors to response codes.
func validationCode(err error) (string, bool) {
	switch {
	case errors.Is(err, user.ErrEmailRequired):
		return httputil.CodeEmailRequired, true
	case errors.Is(err, user.ErrInvalidEmailFormat):
		return httputil.CodeInvalidEmailFormat, true
	case errors.Is(err, user.ErrPasswordRequired):
		return httputil.CodePasswordRequired, true
	case errors.Is(err, user.ErrPasswordTooShort):
		return httputil.CodePasswordTooShort, true
	default:
		return "", false
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr format is "IP:port", extract just the IP
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
