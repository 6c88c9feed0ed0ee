package functions

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"mealhow/internal/config"
	"mealhow/internal/logger"
	"mealhow/internal/metrics"
	"mealhow/internal/planner"
	"mealhow/internal/recipe"
	"mealhow/internal/shopping"
)

// PlanService generates meal plans.
type PlanService interface {
	Generate(ctx context.Context, req planner.Request) (*planner.MealPlan, error)
}

// RecipeService generates the recipe of a meal.
type RecipeService interface {
	Generate(ctx context.Context, mealID string) (*recipe.MealRecipe, error)
}

// ShoppingService fills a shopping list.
type ShoppingService interface {
	Generate(ctx context.Context, listID string, mealIDs []string) (*shopping.ShoppingList, error)
}

// ThumbnailConverter renders thumbnails of an uploaded object.
type ThumbnailConverter interface {
	Convert(ctx context.Context, bucket, objectName string) ([]string, error)
}

// Services are the handlers' dependencies. Telegram is optional.
type Services struct {
	Plans         PlanService
	Recipes       RecipeService
	ShoppingLists ShoppingService
	Thumbnails    ThumbnailConverter
	Telegram      http.Handler
	DataDir       string
}

// Server exposes every function as an HTTP endpoint.
type Server struct {
	services   Services
	signingKey []byte
	log        *logger.Logger
	router     *mux.Router
}

// NewServer creates a Server and registers its routes.
func NewServer(cfg *config.Config, services Services, log *logger.Logger) *Server {
	s := &Server{
		services: services,
		log:      log.With("service", "FunctionsServer"),
		router:   mux.NewRouter(),
	}
	if cfg.TriggerSigningKey != "" {
		s.signingKey = []byte(cfg.TriggerSigningKey)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	triggers := s.router.NewRoute().Subrouter()
	triggers.Use(s.authMiddleware)
	triggers.HandleFunc("/meal-plans", s.handleGenerateMealPlan).Methods(http.MethodPost)

	// Push deliveries carry Google-signed OIDC tokens, checked by the platform
	// invoker policy at ingress rather than by the trigger signing key.
	s.router.HandleFunc("/events/meal-recipe", s.handleMealRecipeEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/events/shopping-list", s.handleShoppingListEvent).Methods(http.MethodPost)
	s.router.HandleFunc("/events/image-uploaded", s.handleImageUploadedEvent).Methods(http.MethodPost)

	if s.services.Telegram != nil {
		s.router.Handle("/telegram/webhook", s.services.Telegram).Methods(http.MethodPost)
	}
}

// Handler returns the router wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.loggingMiddleware(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.log.Info("Server shutting down")
	return srv.Shutdown(shutdownCtx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.log.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", time.Since(start).String(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.GetSysHealth(s.services.DataDir))
}
