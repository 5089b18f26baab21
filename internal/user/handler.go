package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-auth-api/internal/httputil"
	"go-auth-api/internal/logging"
)

// RoleAuthorizer reports whether the request context is allowed to change
// user roles. The ownership override that lets users patch their own record
// must not extend to role changes, or any user could promote themselves.
type RoleAuthorizer func(ctx context.Context) bool

// Handler contains HTTP handlers for user management endpoints
type Handler struct {
	service       *Service
	logger        *logging.Logger
	canChangeRole RoleAuthorizer
}

func NewHandler(service *Service, logger *logging.Logger, canChangeRole RoleAuthorizer) *Handler {
	return &Handler{service: service, logger: logger, canChangeRole: canChangeRole}
}

// CreateRequest represents the admin user-creation request body
type CreateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// UpdateRequest represents the user patch request body
type UpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *Role   `json:"role"`
}

// ListResponse represents a page of users
type ListResponse struct {
	Users  []*User `json:"users"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Create handles admin user creation
// @Summary      Create a user
// @Description  Create a new user with an explicit role. Requires the manageUsers permission.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateRequest true "User data"
// @Success      201 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Router       /users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Create(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to create user")
		return
	}

	logger.Info("user created", "user_id", newUser.ID, "role", newUser.Role)

	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// List handles paginated user listing
// @Summary      List users
// @Description  Return a page of users. Requires the listUsers permission.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 100)"
// @Param        offset query int false "Page offset"
// @Success      200 {object} ListResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Router       /users [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	params := ListParams{
		Limit:  queryInt(r, "limit", 10),
		Offset: queryInt(r, "offset", 0),
	}

	users, total, err := h.service.List(r.Context(), params)
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, ListResponse{
		Users:  users,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, http.StatusOK)
}

// Get handles fetching a single user
// @Summary      Get a user
// @Description  Return a single user. Requires the listUsers permission or resource ownership.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      200 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Invalid user ID"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{userID} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	foundUser, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, foundUser, http.StatusOK)
}

// Update handles patching a user
// @Summary      Update a user
// @Description  Patch a user's email, password or role. Requires the manageUsers permission or resource ownership.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Param        request body UpdateRequest true "Fields to update"
// @Success      200 {object} User
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Router       /users/{userID} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update user request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Role != nil && (h.canChangeRole == nil || !h.canChangeRole(r.Context())) {
		logger.Warn("role change rejected", "user_id", userID)
		httputil.RespondErrorWithCode(w, "forbidden", httputil.CodeForbidden, http.StatusForbidden)
		return
	}

	updatedUser, err := h.service.Update(r.Context(), userID, UpdateInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.respondServiceError(w, logger, err, "failed to update user")
		return
	}

	logger.Info("user updated", "user_id", updatedUser.ID)

	httputil.RespondJSON(w, updatedUser, http.StatusOK)
}

// Delete handles removing a user
// @Summary      Delete a user
// @Description  Delete a user. Requires the manageUsers permission or resource ownership.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userID path string true "User ID"
// @Success      204 "No Content"
// @Failure      400 {object} httputil.ErrorResponse "Invalid user ID"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /users/{userID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user deleted", "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, logger *logging.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		logger.Warn("email already exists")
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	case errors.Is(err, ErrEmailRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmailFormat):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooShort):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidRole):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
	default:
		logger.Error(fallback, "error", err.Error())
		httputil.RespondErrorWithCode(w, fallback, httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// pathUserID parses the {userID} URL parameter, responding 400 on garbage.
func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user ID", httputil.CodeInvalidUserID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
