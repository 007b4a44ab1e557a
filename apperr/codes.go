package apperr

var (
	// validation
	ErrValidation           = New(KindValidation, "VALIDATION_ERROR", "The request contains invalid data")
	ErrInvalidContentType   = New(KindValidation, "INVALID_CONTENT_TYPE", "Content-Type must be application/json")
	ErrEmailAlreadyVerified = New(KindValidation, "EMAIL_ALREADY_VERIFIED", "Email is already verified, please sign in")
	ErrOtpExpired           = New(KindValidation, "OTP_EXPIRED", "The code has expired, request a new one")
	ErrOtpAlreadyUsed       = New(KindValidation, "OTP_ALREADY_USED", "The code was already used")
	ErrInvalidOtp           = New(KindValidation, "INVALID_OTP", "The code is invalid")
	ErrUseGoogleLogin       = New(KindValidation, "USE_GOOGLE_LOGIN", "This account uses Google sign in")
	ErrUseEmailLogin        = New(KindValidation, "USE_EMAIL_LOGIN", "This account uses email sign in")
	ErrNoOtpNeeded          = New(KindValidation, "NO_OTP_NEEDED", "Google accounts do not use codes")
	ErrNoteArchived         = New(KindValidation, "NOTE_ARCHIVED", "Archived notes cannot be pinned")

	// authentication
	ErrNoToken                = New(KindAuthentication, "NO_TOKEN", "Authentication required")
	ErrTokenExpired           = New(KindAuthentication, "TOKEN_EXPIRED", "Session has expired")
	ErrInvalidToken           = New(KindAuthentication, "INVALID_TOKEN", "Invalid session token")
	ErrInvalidRefreshToken    = New(KindAuthentication, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	ErrSessionUserNotFound    = New(KindAuthentication, "USER_NOT_FOUND", "User of this session no longer exists")
	ErrInvalidGoogleToken     = New(KindAuthentication, "INVALID_GOOGLE_TOKEN", "Google token could not be verified")
	ErrGoogleEmailUnverified  = New(KindAuthentication, "GOOGLE_EMAIL_NOT_VERIFIED", "Google account email is not verified")
	ErrDifferentGoogleAccount = New(KindAuthentication, "DIFFERENT_GOOGLE_ACCOUNT", "This email is linked to a different Google account")

	// authorization
	ErrEmailNotVerified = New(KindAuthorization, "EMAIL_NOT_VERIFIED", "Email address is not verified")
	ErrIpBlocked        = New(KindAuthorization, "IP_BLOCKED", "IP address has been blocked due to excessive requests")

	// not found
	ErrUserNotFound  = New(KindNotFound, "USER_NOT_FOUND", "No account exists for this email")
	ErrNoteNotFound  = New(KindNotFound, "NOTE_NOT_FOUND", "Note not found")
	ErrRouteNotFound = New(KindNotFound, "ROUTE_NOT_FOUND", "Requested resource not found")

	// conflict
	ErrUserAlreadyVerified    = New(KindConflict, "USER_ALREADY_VERIFIED", "An account with this email already exists, please sign in")
	ErrUserExistsUnverified   = New(KindConflict, "USER_EXISTS_UNVERIFIED", "An account with this email is awaiting verification")
	ErrEmailAlreadyRegistered = New(KindConflict, "EMAIL_ALREADY_REGISTERED", "This email is already registered")
	ErrGoogleAccountExists    = New(KindConflict, "GOOGLE_ACCOUNT_EXISTS", "This Google account is already registered")

	// rate limit
	ErrOtpRateLimited = New(KindRateLimit, "OTP_RATE_LIMITED", "Please wait before requesting a new code")
	ErrRateLimited    = New(KindRateLimit, "RATE_LIMITED", "Too many requests, please try again later")

	// unavailable
	ErrEmailSendFailed     = New(KindUnavailable, "EMAIL_SEND_FAILED", "The email could not be sent, please retry")
	ErrGoogleUnavailable   = New(KindUnavailable, "GOOGLE_UNAVAILABLE", "Google sign in is temporarily unavailable")
	ErrGoogleNotConfigured = New(KindUnavailable, "GOOGLE_NOT_CONFIGURED", "Google sign in is not configured")
	ErrStoreUnavailable    = New(KindUnavailable, "STORE_UNAVAILABLE", "Storage is temporarily unavailable")
)

// ErrSignupUseGoogleLogin is the signup conflict raised when the email
// belongs to a Google account.
var ErrSignupUseGoogleLogin = New(KindConflict, "USE_GOOGLE_LOGIN", "This email is registered with Google sign in")
