package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"baba-meal-planner/internal/config"
	"baba-meal-planner/internal/metrics"
	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"
	"baba-meal-planner/internal/recipe"

	"github.com/golang-jwt/jwt/v5"
)

// Server exposes plan generation over authenticated HTTP.
type Server struct {
	planner      *planner.Planner
	planRepo     *planner.PlanRepository
	recipeRepo   *recipe.Repository
	prefsRepo    *prefs.Repository
	metricsStore *metrics.Store
	cfg          *config.Config
}

// NewServer creates a new Server.
func NewServer(
	cfg *config.Config,
	pl *planner.Planner,
	planRepo *planner.PlanRepository,
	recipeRepo *recipe.Repository,
	prefsRepo *prefs.Repository,
	metricsStore *metrics.Store,
) *Server {
	return &Server{
		planner:      pl,
		planRepo:     planRepo,
		recipeRepo:   recipeRepo,
		prefsRepo:    prefsRepo,
		metricsStore: metricsStore,
		cfg:          cfg,
	}
}

// RegisterHandlers registers the API routes with the given mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/api/plans", s.requireAuth(s.handleCreatePlan))
	mux.HandleFunc("/api/plans/latest", s.requireAuth(s.handleLatestPlan))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// requireAuth validates the bearer token and passes the token subject to the
// handler as the user ID.
func (s *Server) requireAuth(next func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.authenticate(r)
		if err != nil {
			log.Printf("Rejected API request: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.APIJWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req planner.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := s.prefsRepo.Get(r.Context(), userID)
	if err != nil {
		log.Printf("Warning: could not read preferences for user %s: %v", userID, err)
	}
	req = prefs.Resolve(req, stored)

	result, metas, err := s.planner.GeneratePlan(r.Context(), userID, req, nil)

	for _, m := range metas {
		if err := s.metricsStore.RecordMeta(m); err != nil {
			log.Printf("Warning: failed to record metric for %s: %v", m.AgentName, err)
		}
	}

	if err != nil {
		if planner.IsInvalidRequest(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("Error generating plan for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// latestPlanLimit bounds the candidate fetch; the store gives no ordering,
// so more than one row is needed to pick the newest.
const latestPlanLimit = 10

// handleLatestPlan returns the caller's newest plan of the requested type
// (default weekly) together with the full recipe documents it references.
func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	planType := planner.PlanType(r.URL.Query().Get("type"))
	if planType == "" {
		planType = planner.PlanWeekly
	}

	stored, err := s.planRepo.ListRecentByUserAndType(r.Context(), userID, planType, latestPlanLimit)
	if err != nil {
		log.Printf("Error listing plans for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "could not read plans")
		return
	}
	if len(stored) == 0 {
		writeError(w, http.StatusNotFound, "no plans yet")
		return
	}
	planner.SortNewestFirst(stored)
	plan := stored[0].Plan

	recipes, err := s.recipeRepo.GetByIDs(r.Context(), plan.RecipeIDs())
	if err != nil {
		log.Printf("Error loading recipes for plan %s: %v", plan.ID, err)
		writeError(w, http.StatusInternalServerError, "could not read recipes")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Plan    planner.Plan    `json:"plan"`
		Recipes []recipe.Recipe `json:"recipes"`
	}{Plan: plan, Recipes: recipes})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
