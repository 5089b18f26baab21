package httputil

// Machine-readable error codes returned alongside error messages so clients
// can branch without parsing human-readable text.
const (
	CodeInternalError      = "internal_error"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	CodeMissingAuth        = "missing_auth"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeInvalidToken       = "invalid_token"
	CodeTokenExpired       = "token_expired"
	CodeInvalidTokenUserID = "invalid_token_user_id"
	CodeForbidden          = "forbidden"

	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeEmailAlreadyExists = "email_already_exists"

	CodeRefreshTokenRequired      = "refresh_token_required"
	CodeInvalidRefreshToken       = "invalid_refresh_token"
	CodeResetTokenRequired        = "reset_token_required"
	CodeInvalidResetToken         = "invalid_reset_token"
	CodeVerificationTokenRequired = "verification_token_required"
	CodeVerificationFailed        = "verification_failed"
	CodeAlreadyVerified           = "already_verified"

	CodeUserNotFound  = "user_not_found"
	CodeInvalidUserID = "invalid_user_id"
)
