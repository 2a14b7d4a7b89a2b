package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// This blank import is required by swaggo to find the API definitions.
	_ "velym/backend/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"velym/backend/internal/session"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth       *AuthHandler
	Assessment *AssessmentHandler
	Chat       *ChatHandler
	Profile    *ProfileHandler
	Resource   *ResourceHandler
	Model      *ModelHandler
	Realtime   *RealtimeHandler
}

// Pages that only render for a signed-in user. Anonymous visitors are sent
// to the sign-in page.
var gatedPages = []string{
	"/dashboard",
	"/tools",
	"/assessment",
	"/mental-health",
	"/chat",
	"/chat/{conversationID}",
	"/history",
	"/profile",
}

// NewRouter creates and configures a new chi router with all the application's routes.
func NewRouter(h Handlers, resolver session.Resolver, frontendDir string) *chi.Mux {
	r := chi.NewRouter()

	// --- Global Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- Public Routes ---
	r.Get("/api/swagger/*", httpSwagger.WrapHandler)

	// Liveness and readiness check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// --- API Version 1 Routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Sign-in and recovery. These are reachable without a session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/auth/signup", h.Auth.SignUp)
			r.Post("/auth/signin", h.Auth.SignIn)
			r.Post("/auth/password/reset-request", h.Auth.RequestPasswordReset)
			r.Post("/auth/password/reset", h.Auth.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(session.RequireSession(resolver))

			// Standard JSON routes get a request timeout.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))

				// --- Auth ---
				r.Get("/auth/session", h.Auth.GetSession)
				r.Post("/auth/signout", h.Auth.SignOut)
				r.Put("/auth/password", h.Auth.UpdatePassword)

				// --- Profile ---
				r.Get("/profile", h.Profile.GetProfile)
				r.Put("/profile", h.Profile.UpdateProfile)
				r.Post("/profile/avatar", h.Profile.UploadAvatar)

				// --- Assessments ---
				r.Post("/assessments", h.Assessment.SubmitAssessment)
				r.Get("/assessments", h.Assessment.ListAssessments)
				r.Get("/assessments/today", h.Assessment.GetToday)
				r.Delete("/assessments", h.Assessment.ClearAssessments)

				// --- Dashboard ---
				r.Get("/dashboard", h.Assessment.GetDashboard)
				r.Post("/dashboard/insights", h.Assessment.GenerateInsights)

				// --- Conversations ---
				r.Get("/conversations", h.Chat.ListConversations)
				r.Post("/conversations", h.Chat.CreateConversation)
				r.Delete("/conversations", h.Chat.ClearConversations)
				r.Get("/conversations/{conversationID}", h.Chat.GetConversation)
				r.Delete("/conversations/{conversationID}", h.Chat.DeleteConversation)
				r.Get("/conversations/{conversationID}/messages", h.Chat.ListMessages)
				r.Post("/conversations/{conversationID}/messages", h.Chat.SendMessage)

				// --- Resources ---
				r.Get("/resources/mental-health", h.Resource.ListMentalHealth)
				r.Get("/resources/tools", h.Resource.ListTools)

				// --- AI ---
				r.Get("/ai/status", h.Model.HandleModelStatus)
			})

			// Long-lived change streams must NOT have a timeout.
			r.Group(func(r chi.Router) {
				r.Get("/realtime", h.Realtime.Stream)
				r.Get("/realtime/ws", h.Realtime.StreamWebSocket)
			})
		})
	})

	// --- Frontend ---
	spa := spaHandler(frontendDir)
	r.Group(func(r chi.Router) {
		r.Use(session.PageGuard(resolver, session.DefaultLoginPath))
		for _, page := range gatedPages {
			r.Get(page, spa)
		}
	})
	r.Get("/*", spa)

	return r
}

// spaHandler serves files from dir and falls back to index.html so the
// client-side router can handle the path.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if info, err := os.Stat(filepath.Join(dir, clean)); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
	}
}
