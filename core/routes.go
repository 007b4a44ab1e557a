package core

import (
	"net/http"

	r "github.com/caasmo/notespieces/router"
)

// Routes returns the API endpoints with their middlewares. /notes/search
// comes before /notes/{id} for routers matching in registration order.
func (a *App) Routes() []*r.Route {
	return []*r.Route{
		r.NewRoute("GET /health").WithHandlerFunc(a.HealthHandler),
		r.NewRoute("GET /metrics").WithHandlerFunc(a.MetricsHandler),

		r.NewRoute("POST /auth/signup").WithHandlerFunc(a.SignupHandler).
			WithMiddleware(a.RateLimit("signup", WindowAuth)),
		r.NewRoute("POST /auth/google-signup").WithHandlerFunc(a.GoogleSignupHandler).
			WithMiddleware(a.RateLimit("google-signup", WindowAuth)),
		r.NewRoute("POST /auth/verify-otp").WithHandlerFunc(a.VerifyOtpHandler).
			WithMiddleware(a.RateLimit("verify-otp", WindowOtp)),
		r.NewRoute("POST /auth/signin").WithHandlerFunc(a.SigninHandler).
			WithMiddleware(a.RateLimit("signin", WindowAuth)),
		r.NewRoute("POST /auth/verify-signin-otp").WithHandlerFunc(a.VerifySigninOtpHandler).
			WithMiddleware(a.RateLimit("verify-signin-otp", WindowOtp)),
		r.NewRoute("POST /auth/google-login").WithHandlerFunc(a.GoogleLoginHandler).
			WithMiddleware(a.RateLimit("google-login", WindowAuth)),
		r.NewRoute("POST /auth/resend-otp").WithHandlerFunc(a.ResendOtpHandler).
			WithMiddleware(a.RateLimit("resend-otp", WindowOtp)),
		r.NewRoute("POST /auth/refresh").WithHandlerFunc(a.RefreshHandler).
			WithMiddleware(a.RateLimit("refresh", WindowAuth)),
		r.NewRoute("POST /auth/check-user").WithHandlerFunc(a.CheckUserHandler).
			WithMiddleware(a.RateLimit("check-user", WindowAuth)),
		r.NewRoute("POST /auth/logout").WithHandlerFunc(a.LogoutHandler),
		r.NewRoute("GET /auth/me").WithHandlerFunc(a.MeHandler).WithMiddleware(a.RequireUser),

		r.NewRoute("GET /notes").WithHandlerFunc(a.ListNotesHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("POST /notes").WithHandlerFunc(a.CreateNoteHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("GET /notes/search").WithHandlerFunc(a.SearchNotesHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("GET /notes/{id}").WithHandlerFunc(a.GetNoteHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("PUT /notes/{id}").WithHandlerFunc(a.UpdateNoteHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("DELETE /notes/{id}").WithHandlerFunc(a.DeleteNoteHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("POST /notes/{id}/pin").WithHandlerFunc(a.PinNoteHandler).WithMiddleware(a.RequireUser),
		r.NewRoute("POST /notes/{id}/archive").WithHandlerFunc(a.ArchiveNoteHandler).WithMiddleware(a.RequireUser),
	}
}

// RegisterRoutes installs Routes and the not found handler on the router.
func (a *App) RegisterRoutes() {
	r.Register(a.router, a.Routes()...)
	a.router.NotFound(http.HandlerFunc(a.NotFoundHandler))
}
