package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcclellann/moneyflow/pkg/cache"
	"github.com/mcclellann/moneyflow/pkg/config"
	"github.com/mcclellann/moneyflow/pkg/document"
	"github.com/mcclellann/moneyflow/pkg/ledger"
	"github.com/mcclellann/moneyflow/pkg/models"
	"github.com/mcclellann/moneyflow/pkg/store"
	"github.com/sirupsen/logrus"
)

const maxDocumentBytes = 1 << 20

// Server holds the planner instance.
type Server struct {
	planner         *ledger.Planner
	storage         store.Storage // Keep a reference to the storage to close it
	log             logrus.FieldLogger
	defaultStrategy models.Strategy
}

func NewServer(s store.Storage, log logrus.FieldLogger, defaultStrategy models.Strategy, opts ...ledger.Option) *Server {
	opts = append([]ledger.Option{ledger.WithLogger(log)}, opts...)
	return &Server{
		planner:         ledger.NewPlanner(s, opts...),
		storage:         s,
		log:             log,
		defaultStrategy: defaultStrategy.Normalize(),
	}
}

// routes wires every endpoint onto a fresh router.
func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/simulate", s.simulateHandler).Methods("POST")
	router.HandleFunc("/sample", s.sampleHandler).Methods("GET")

	router.HandleFunc("/plans", s.listPlansHandler).Methods("GET")
	router.HandleFunc("/plans", s.createPlanHandler).Methods("POST")
	router.HandleFunc("/plans/{id}", s.getPlanHandler).Methods("GET")
	router.HandleFunc("/plans/{id}", s.importPlanHandler).Methods("PUT")
	router.HandleFunc("/plans/{id}", s.deletePlanHandler).Methods("DELETE")
	router.HandleFunc("/plans/{id}/export", s.exportPlanHandler).Methods("GET")
	router.HandleFunc("/plans/{id}/runs", s.runPlanHandler).Methods("POST")
	router.HandleFunc("/plans/{id}/runs", s.listRunsHandler).Methods("GET")

	return router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).WithField("status", status).Error("Failed to encode response")
	}
}

// writeError maps planner and import errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var malformed *document.MalformedImportError
	switch {
	case errors.Is(err, store.ErrPlanNotFound):
		http.Error(w, "Plan not found", http.StatusNotFound)
	case errors.As(err, &malformed):
		http.Error(w, malformed.Error(), http.StatusBadRequest)
	default:
		s.log.WithError(err).Error("Request failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read document: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

func planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid plan ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// strategyParam reads the optional ?strategy= override.
func strategyParam(w http.ResponseWriter, r *http.Request) (models.Strategy, bool) {
	st := models.Strategy(r.URL.Query().Get("strategy"))
	if !st.Valid() {
		http.Error(w, fmt.Sprintf("Unknown strategy %q", st), http.StatusBadRequest)
		return "", false
	}
	return st, true
}

func (s *Server) simulateHandler(w http.ResponseWriter, r *http.Request) {
	strategy, ok := strategyParam(w, r)
	if !ok {
		return
	}
	data, ok := readDocument(w, r)
	if !ok {
		return
	}

	plan, err := document.Decode(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if strategy != "" {
		plan.Strategy = strategy
	}
	if plan.Strategy == "" {
		plan.Strategy = s.defaultStrategy
	}

	s.writeJSON(w, http.StatusOK, s.planner.Simulate(plan))
}

func (s *Server) sampleHandler(w http.ResponseWriter, r *http.Request) {
	data, err := document.Encode(models.SamplePlan())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.log.WithError(err).Error("Failed to write document")
	}
}

func (s *Server) listPlansHandler(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planner.GetAllPlans()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if plans == nil {
		plans = []*models.SavedPlan{}
	}
	s.writeJSON(w, http.StatusOK, plans)
}

func (s *Server) createPlanHandler(w http.ResponseWriter, r *http.Request) {
	data, ok := readDocument(w, r)
	if !ok {
		return
	}
	plan, err := document.Decode(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if plan.Strategy == "" {
		plan.Strategy = s.defaultStrategy
	}

	saved, err := s.planner.CreatePlan(r.URL.Query().Get("name"), plan)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) getPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	saved, err := s.planner.GetPlan(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) importPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	data, ok := readDocument(w, r)
	if !ok {
		return
	}
	saved, err := s.planner.ImportPlan(id, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) deletePlanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	if err := s.planner.DeletePlan(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	data, err := s.planner.ExportPlan(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="moneyflow_data.json"`)
	if _, err := w.Write(data); err != nil {
		s.log.WithError(err).WithField("plan_id", id).Error("Failed to write export")
	}
}

func (s *Server) runPlanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	strategy, ok := strategyParam(w, r)
	if !ok {
		return
	}

	run, res, err := s.planner.RunPlan(id, strategy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, struct {
		Run    *models.Run   `json:"run"`
		Result models.Result `json:"result"`
	}{run, res})
}

func (s *Server) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}
	runs, err := s.planner.GetRuns(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []*models.Run{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []ledger.Option
	if cfg.CacheSize > 0 {
		results := cache.NewLRU[models.Result](cfg.CacheSize, cfg.CacheTTL)
		opts = append(opts, ledger.WithCache(results))

		janitor := cache.NewJanitor(func(n int) {
			logger.WithField("removed", n).Debug("Expired simulations evicted")
		}, results)
		go janitor.Run(ctx, cfg.CacheTTL)
	}

	server := NewServer(sqliteStore, logger, cfg.DefaultStrategy, opts...)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Server shutdown error")
		}
	}()

	logger.WithFields(logrus.Fields{"port": cfg.Port, "db": cfg.DBPath}).Info("Server starting")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server stopped")
}
