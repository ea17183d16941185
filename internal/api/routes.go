package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes configura e retorna o roteador Chi
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middlewares globais
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	// CORS liberado para o frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Tempo de cache da preflight
	}))

	r.Route("/api", func(r chi.Router) {
		// Endpoints públicos (sem autenticação)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Get("/verify/{token}", h.handleVerifyEmail)
			r.Post("/login", h.handleLogin)
			r.Post("/logout", h.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)
				r.Get("/me", h.handleMe)
			})
		})

		// Endpoints protegidos (requerem autenticação)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Route("/books", func(r chi.Router) {
				r.Post("/", h.handleListBook)
				r.Get("/owned", h.handleOwnedBooks)
				r.Get("/wishlist", h.handleWishlist)
				r.Post("/wantedBooks", h.handleAddWantedBook)
				r.Delete("/wantedBooks/{bookId}", h.handleRemoveWantedBook)

				r.Get("/matches", h.handleMatches)
				r.Get("/matches/{id}", h.handleMatches)
				r.Get("/recommandations", h.handleRecommendations)
				r.Get("/search", h.handleSearch)

				r.Put("/{id}", h.handleEditBook)
				r.Delete("/{id}", h.handleDeleteBook)
			})

			r.Route("/exchange", func(r chi.Router) {
				r.Post("/request", h.handleSendRequest)
				r.Post("/response", h.handleRespondRequest)
				r.Get("/outgoing", h.handleOutgoingRequests)
				r.Get("/incoming", h.handleIncomingRequests)
			})
		})
	})

	return r
}
