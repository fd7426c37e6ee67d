package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/bondly-app/backend/internal/config"
	authsvc "github.com/bondly-app/backend/internal/services/auth"
	chatsvc "github.com/bondly-app/backend/internal/services/chats"
	matchessvc "github.com/bondly-app/backend/internal/services/matches"
	mediasvc "github.com/bondly-app/backend/internal/services/media"
	profilesvc "github.com/bondly-app/backend/internal/services/profiles"
	realtimesvc "github.com/bondly-app/backend/internal/services/realtime"
	suggestsvc "github.com/bondly-app/backend/internal/services/suggest"
	swipesvc "github.com/bondly-app/backend/internal/services/swipes"
	vibechecksvc "github.com/bondly-app/backend/internal/services/vibecheck"
	"github.com/bondly-app/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	ProfileService   *profilesvc.Service
	MediaService     *mediasvc.Service
	SwipeService     *swipesvc.Service
	MatchService     *matchessvc.Service
	ChatService      *chatsvc.Service
	VibeCheckService *vibechecksvc.Service
	SuggestService   *suggestsvc.Service
	RealtimeService  *realtimesvc.Service
	HealthChecks     map[string]handlers.Pinger
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)
	configHandler := handlers.NewConfigHandler(deps.Config.Remote)
	meHandler := handlers.NewMeHandler(deps.AuthService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	chatHandler := handlers.NewChatHandler(deps.ChatService)
	vibeCheckHandler := handlers.NewVibeCheckHandler(deps.VibeCheckService)
	suggestionHandler := handlers.NewSuggestionHandler(deps.SuggestService)
	wsHandler := handlers.NewWSHandler(deps.AuthService, deps.RealtimeService, deps.Config.CORS.AllowedOrigins, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
		r.With(authMW).Post("/logout_all", authHandler.LogoutAll)
	})

	r.Get("/v1/config", configHandler.Handle)
	r.Get("/v1/ws", wsHandler.Handle)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMW)

		r.Get("/me", meHandler.Handle)
		r.Get("/profile", profileHandler.Get)
		r.Put("/profile", profileHandler.Update)
		r.Post("/profile/images/{kind}", mediaHandler.Upload)
		r.Delete("/profile/images/{kind}/{key}", mediaHandler.Delete)

		r.Post("/swipes", swipeHandler.Handle)
		r.Get("/matches", matchesHandler.List)
		r.Post("/unmatch", matchesHandler.Unmatch)

		r.Route("/chats/{id}", func(r chi.Router) {
			r.Get("/messages", chatHandler.Messages)
			r.Post("/messages", chatHandler.SendText)
			r.Get("/state", chatHandler.State)
			r.Post("/game", chatHandler.SelectGame)
			r.Delete("/game", chatHandler.EndGame)
			r.Post("/game/toss", chatHandler.Toss)
			r.Post("/game/question", chatHandler.Ask)
			r.Post("/game/answer", chatHandler.Answer)
			r.Post("/game/challenge", chatHandler.Challenge)
			r.Post("/game/challenge/{message_id}/respond", chatHandler.Respond)
			r.Get("/vibe-check", vibeCheckHandler.Status)
			r.Post("/vibe-check/answers", vibeCheckHandler.Answer)
		})

		r.Get("/decks/{deck}/prompt", suggestionHandler.DeckPrompt)
		r.Post("/suggestions", suggestionHandler.Suggest)
	})
}
