package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fdg312/nutrition-hub/internal/ai"
	"github.com/fdg312/nutrition-hub/internal/auth"
	"github.com/fdg312/nutrition-hub/internal/blob"
	"github.com/fdg312/nutrition-hub/internal/catalog"
	"github.com/fdg312/nutrition-hub/internal/config"
	"github.com/fdg312/nutrition-hub/internal/fooddb"
	"github.com/fdg312/nutrition-hub/internal/fooddb/openfoodfacts"
	"github.com/fdg312/nutrition-hub/internal/foodlog"
	"github.com/fdg312/nutrition-hub/internal/goals"
	"github.com/fdg312/nutrition-hub/internal/insights"
	"github.com/fdg312/nutrition-hub/internal/profiles"
	"github.com/fdg312/nutrition-hub/internal/reports"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/storage/memory"
	"github.com/fdg312/nutrition-hub/internal/storage/postgres"
	"github.com/fdg312/nutrition-hub/internal/summary"
)

// Server представляет HTTP сервер
type Server struct {
	config         *config.Config
	mux            *http.ServeMux
	storage        storage.Storage
	blobStore      blob.Store
	authMiddleware *auth.Middleware
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *Server {
	s := &Server{
		config: cfg,
		mux:    http.NewServeMux(),
	}

	// Инициализируем storage
	s.initStorage()
	s.initBlobStore()

	// Регистрируем маршруты
	s.routes()
	return s
}

// initStorage инициализирует storage (Memory или Postgres)
func (s *Server) initStorage() {
	if s.config.DatabaseURL == "" {
		log.Println("INFO storage: mode=memory")
		s.storage = memory.New()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pgStorage, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Printf("WARN storage: postgres_unavailable err=%v fallback=memory", err)
		s.storage = memory.New()
		return
	}
	log.Println("INFO storage: mode=postgres")
	s.storage = pgStorage
}

// initBlobStore выбирает хранилище файлов отчётов (S3 или память процесса)
func (s *Server) initBlobStore() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, _, err := blob.NewBlobStore(ctx, s.config.Blob.EffectiveReportsMode(), s.config.Blob.S3, log.Default())
	if err != nil {
		log.Printf("WARN blob: init_failed err=%v fallback=local", err)
		s.blobStore = blob.NewMemoryStore()
		return
	}
	s.blobStore = store
}

func (s *Server) foodDatabase() fooddb.Database {
	if s.config.FoodDB.Mode != config.FoodDBModeOpenFoodFacts {
		return nil
	}
	return &openfoodfacts.Client{
		BaseURL:    s.config.FoodDB.BaseURL,
		UserAgent:  s.config.FoodDB.UserAgent,
		HTTPClient: &http.Client{Timeout: time.Duration(s.config.FoodDB.TimeoutSeconds) * time.Second},
	}
}

// routes регистрирует маршруты
func (s *Server) routes() {
	logger := log.Default()

	// Health check (no auth required)
	s.mux.HandleFunc("/healthz", s.handleHealthz)

	// Auth API (no auth required)
	authService := auth.NewService(s.config, s.storage.GetUsersStorage())
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
	s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	s.mux.HandleFunc("POST /v1/auth/refresh", authHandler.HandleRefresh)
	if s.config.AuthMode != config.AuthModePassword {
		// POST /v1/auth/dev - local dev token without password
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}
	s.mux.HandleFunc("GET /v1/users/me", authHandler.HandleMe)
	s.mux.HandleFunc("POST /v1/users/change-password", authHandler.HandleChangePassword)
	s.mux.HandleFunc("DELETE /v1/users/account", authHandler.HandleDeleteAccount)

	// User profile
	profilesHandler := profiles.NewHandler(profiles.NewService(s.storage.GetUsersStorage()))
	s.mux.HandleFunc("GET /v1/users/profile", profilesHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/users/profile", profilesHandler.HandleUpdate)

	// Food catalog
	catalogService := catalog.NewService(s.storage.GetFoodsStorage(), s.foodDatabase(), s.config.FoodSearchMaxLimit, logger)
	catalogHandler := catalog.NewHandlers(catalogService)

	s.mux.HandleFunc("GET /v1/foods/search", catalogHandler.HandleSearch)
	s.mux.HandleFunc("POST /v1/foods", catalogHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/foods/barcode/{code}", catalogHandler.HandleBarcode)
	s.mux.HandleFunc("GET /v1/foods/{id}", catalogHandler.HandleGet)

	// Food log
	parser := ai.NewFoodParser(s.config, logger)
	foodLogService := foodlog.NewService(
		s.storage.GetFoodLogsStorage(),
		catalogService,
		parser,
		s.storage.GetSummariesStorage(),
		logger,
	)
	foodLogHandler := foodlog.NewHandlers(foodLogService)

	s.mux.HandleFunc("POST /v1/food/log", foodLogHandler.HandleLog)
	s.mux.HandleFunc("POST /v1/food/parse", foodLogHandler.HandleParse)
	s.mux.HandleFunc("POST /v1/food/log-natural", foodLogHandler.HandleLogNatural)
	s.mux.HandleFunc("GET /v1/food/logs", foodLogHandler.HandleList)
	s.mux.HandleFunc("GET /v1/food/logs/{id}", foodLogHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/food/logs/{id}", foodLogHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/food/logs/{id}", foodLogHandler.HandleDelete)

	// Nutrition goals
	goalManager := goals.NewManager(s.storage.GetGoalsStorage())
	goalsHandler := goals.NewHandlers(goalManager)

	s.mux.HandleFunc("POST /v1/nutrition/goals", goalsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/nutrition/goals", goalsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/nutrition/goals/current", goalsHandler.HandleCurrent)
	s.mux.HandleFunc("PUT /v1/nutrition/goals/{id}", goalsHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/nutrition/goals/{id}", goalsHandler.HandleDeactivate)
	s.mux.HandleFunc("POST /v1/nutrition/goals/{id}/activate", goalsHandler.HandleActivate)

	// Dashboard
	engine := summary.NewEngine(s.storage.GetSummariesStorage(), s.storage.GetFoodLogsStorage(), s.storage.GetGoalsStorage())
	facade := reports.NewFacade(engine, s.storage.GetSummariesStorage(), s.storage.GetFoodLogsStorage(), s.config.ProgressMaxDays)
	dashboardHandler := reports.NewDashboardHandlers(engine, facade)
	insightEngine := insights.NewEngine(s.storage.GetFoodLogsStorage(), s.storage.GetGoalsStorage())

	s.mux.HandleFunc("GET /v1/dashboard/summary", dashboardHandler.HandleToday)
	s.mux.HandleFunc("GET /v1/dashboard/summary/{date}", dashboardHandler.HandleByDate)
	s.mux.HandleFunc("GET /v1/dashboard/weekly-summary", dashboardHandler.HandleWeekly)
	s.mux.HandleFunc("GET /v1/dashboard/monthly-summary", dashboardHandler.HandleMonthly)
	s.mux.HandleFunc("GET /v1/dashboard/progress", dashboardHandler.HandleProgress)
	s.mux.HandleFunc("GET /v1/dashboard/insights", insights.HandleGet(insightEngine))

	// Reports API
	reportsService := reports.NewService(
		s.storage.GetReportsStorage(),
		engine,
		s.blobStore,
		reports.ServiceOptions{
			MaxRangeDays:    s.config.ReportsMaxRangeDays,
			PresignTTL:      s.config.Blob.S3.PresignTTLSeconds,
			PublicBaseURL:   s.config.Blob.S3.PublicBaseURL,
			PreferPublicURL: s.config.Blob.S3.PreferPublicURL,
		},
		logger,
	)
	reportsHandler := reports.NewHandlers(reportsService)

	s.mux.HandleFunc("POST /v1/reports", reportsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/reports", reportsHandler.HandleList)
	s.mux.HandleFunc("GET /v1/reports/{id}/download", reportsHandler.HandleDownload)
	s.mux.HandleFunc("DELETE /v1/reports/{id}", reportsHandler.HandleDelete)
}

// handleHealthz возвращает статус сервера
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Handler builds the middleware chain (outermost first): CORS → Rate Limit → Auth → Router
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	handler = s.authMiddleware.RequireAuth(handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	log.Printf("INFO server: listening addr=http://localhost%s", addr)
	log.Printf("INFO server: health=http://localhost%s/healthz", addr)

	return http.ListenAndServe(addr, s.Handler())
}

// Close закрывает storage и освобождает ресурсы
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
