package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(corsMiddleware)

	r.Get("/api/rates", s.handleRates)
	r.Post("/api/convert", s.handleConvert)
	r.Get("/health", s.handleHealth)
	r.Post("/webhook/cryptopay", s.handleCryptoPayWebhook)

	return r
}

// corsMiddleware открывает API для мини-аппа, который живет на другом origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Telegram-Init-Data")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
