package http

import (
	"net/http"

	"confluenze-quiz-service/internal/app"
)

// NewRouter wires the participant surface, the admin surface and the
// observer websocket onto one mux.
func NewRouter(service *app.SessionService, auth *Authenticator, hub *Hub) *http.ServeMux {
	api := NewAPIHandler(service)
	admin := NewAdminHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /api/quiz/start", auth.RequireParticipant(api.Start))
	mux.HandleFunc("GET /api/quiz/progress", auth.RequireParticipant(api.Progress))
	mux.HandleFunc("POST /api/quiz/save", auth.RequireParticipant(api.Save))
	mux.HandleFunc("POST /api/quiz/submit", auth.RequireParticipant(api.Submit))
	mux.HandleFunc("GET /api/quiz/questions", auth.RequireParticipant(api.Questions))

	mux.HandleFunc("GET /api/admin/participants", auth.RequireAdmin(admin.Participants))
	mux.HandleFunc("GET /api/admin/leaderboard", auth.RequireAdmin(admin.Leaderboard))
	mux.HandleFunc("GET /api/admin/results/{participantID}", auth.RequireAdmin(admin.Report))
	mux.HandleFunc("GET /api/admin/shortlist", auth.RequireAdmin(admin.Shortlist))
	mux.HandleFunc("POST /api/admin/shortlist/toggle", auth.RequireAdmin(admin.ToggleShortlist))
	mux.HandleFunc("GET /api/admin/questions", auth.RequireAdmin(admin.Questions))

	mux.HandleFunc("/ws", auth.RequireAdmin(hub.ServeWS))
	return mux
}
