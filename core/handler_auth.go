package core

import (
	"net/http"

	"github.com/caasmo/notespieces/auth"
)

type signupRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Name        string `json:"name" validate:"required,max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Password    string `json:"password" validate:"omitempty,max=128"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type otpRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Otp   string `json:"otp" validate:"required,max=10"`
}

// googleRequest carries either the ID token of the google sign in button
// or an access token of the implicit flow.
type googleRequest struct {
	IDToken     string `json:"idToken" validate:"max=4096"`
	AccessToken string `json:"accessToken" validate:"max=4096"`
}

func (g googleRequest) credential() auth.GoogleCredential {
	return auth.GoogleCredential{IDToken: g.IDToken, AccessToken: g.AccessToken}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"max=4096"`
}

type emailData struct {
	Email string `json:"email"`
}

type checkUserData struct {
	Exists          bool   `json:"exists"`
	AuthProvider    string `json:"authProvider,omitempty"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// SignupHandler registers an email user and sends the verification code.
// Endpoint: POST /auth/signup
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	user, err := a.auth.Signup(r.Context(), auth.SignupInput{
		Email:       req.Email,
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
		Password:    req.Password,
	})
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeUser(w, http.StatusCreated, CodeOkSignup, "Verification code sent", user)
}

// VerifyOtpHandler completes an email signup.
// Endpoint: POST /auth/verify-otp
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) VerifyOtpHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	user, pair, err := a.auth.VerifySignupOtp(r.Context(), req.Email, req.Otp)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	a.writeSession(w, http.StatusOK, CodeOkEmailVerified, user, pair)
}

// SigninHandler sends a sign in code to a verified email user.
// Endpoint: POST /auth/signin
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) SigninHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	if err := a.auth.Signin(r.Context(), req.Email); err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonWithData(w, http.StatusOK, CodeOkOtpSent, "Sign in code sent", emailData{Email: auth.NormalizeEmail(req.Email)})
}

// VerifySigninOtpHandler exchanges a sign in code for a session.
// Endpoint: POST /auth/verify-signin-otp
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) VerifySigninOtpHandler(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	user, pair, err := a.auth.VerifySigninOtp(r.Context(), req.Email, req.Otp)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	a.writeSession(w, http.StatusOK, CodeOkAuthenticated, user, pair)
}

// ResendOtpHandler sends a fresh code, for signup or sign in depending on
// the verification state of the user.
// Endpoint: POST /auth/resend-otp
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) ResendOtpHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	if err := a.auth.ResendOtp(r.Context(), req.Email); err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonWithData(w, http.StatusOK, CodeOkOtpSent, "Verification code sent", emailData{Email: auth.NormalizeEmail(req.Email)})
}

// GoogleSignupHandler creates a verified user from a google identity and
// starts its session.
// Endpoint: POST /auth/google-signup
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) GoogleSignupHandler(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	user, pair, err := a.auth.GoogleSignup(r.Context(), req.credential())
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	a.writeSession(w, http.StatusCreated, CodeOkSignup, user, pair)
}

// GoogleLoginHandler starts the session of an existing google user.
// Endpoint: POST /auth/google-login
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	user, pair, err := a.auth.GoogleLogin(r.Context(), req.credential())
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	a.writeSession(w, http.StatusOK, CodeOkAuthenticated, user, pair)
}

// RefreshHandler rotates the session. The refresh token comes from the
// body or, when the body has none, from the refresh cookie.
// Endpoint: POST /auth/refresh
// Authenticated: refresh token
// Allowed Mimetype: application/json (body optional)
func (a *App) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 {
		if err := a.decodeJson(w, r, &req); err != nil {
			a.WriteError(w, r, err)
			return
		}
	}

	token := req.RefreshToken
	if token == "" {
		token = cookieValue(r, RefreshTokenCookie)
	}

	user, pair, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	a.writeSession(w, http.StatusOK, CodeOkAuthenticated, user, pair)
}

// CheckUserHandler tells the client which sign in method an email needs.
// Endpoint: POST /auth/check-user
// Authenticated: No
// Allowed Mimetype: application/json
func (a *App) CheckUserHandler(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := a.decodeJson(w, r, &req); err != nil {
		a.WriteError(w, r, err)
		return
	}

	res, err := a.auth.CheckUser(r.Context(), req.Email)
	if err != nil {
		a.WriteError(w, r, err)
		return
	}

	writeJsonWithData(w, http.StatusOK, CodeOkCheckUser, "User checked", checkUserData{
		Exists:          res.Exists,
		AuthProvider:    string(res.AuthProvider),
		IsEmailVerified: res.IsEmailVerified,
	})
}

// LogoutHandler clears the session cookies. It answers 200 whether or not
// a session was present.
// Endpoint: POST /auth/logout
// Authenticated: No
func (a *App) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	a.clearSessionCookies(w)
	writeJsonResponse(w, okLogout)
}

// MeHandler returns the user of the session.
// Endpoint: GET /auth/me
// Authenticated: Yes
func (a *App) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w, r)
	if !ok {
		return
	}
	writeUser(w, http.StatusOK, CodeOkUser, "Current user", user)
}
