package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/binaa-app/roomcost/internal/catalog"
	"github.com/binaa-app/roomcost/internal/config"
	"github.com/binaa-app/roomcost/internal/db"
	"github.com/binaa-app/roomcost/internal/migrations"
	"github.com/binaa-app/roomcost/internal/pricing"
	"github.com/binaa-app/roomcost/internal/project"
	"github.com/binaa-app/roomcost/internal/seed"
)

type server struct {
	auth            *authService
	catalogs        *catalog.Store
	projects        *project.Store
	defaultCurrency string
}

type contextKey string

const (
	ctxEmail contextKey = "email"
	ctxRole  contextKey = "role"
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database, "migrations"); err != nil {
			log.Fatalf("failed to run database migrations: %v", err)
		}
		stats, err := seed.Run(database)
		if err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		if stats.Inserts > 0 {
			log.Printf("seeded %d default catalog entries", stats.Inserts)
		}
	}

	auth := newAuthService(database, cfg.JWTSecret)
	if err := auth.ensureAdminUser(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	srv := &server{
		auth:            auth,
		catalogs:        catalog.NewStore(database),
		projects:        project.NewStore(database),
		defaultCurrency: cfg.DefaultCurrency,
	}

	r := chi.NewRouter()
	r.Post("/api/login", srv.handleLogin)
	r.Post("/api/quote", srv.handleQuote)
	r.Get("/api/materials", srv.handleListMaterials)
	r.Get("/api/furniture", srv.handleListFurniture)

	r.Group(func(r chi.Router) {
		r.Use(srv.requireAuth)
		r.Get("/api/projects", srv.handleListProjects)
		r.Post("/api/projects", srv.handleCreateProject)
		r.Get("/api/projects/{id}", srv.handleGetProject)
		r.Put("/api/projects/{id}", srv.handleUpdateProject)
		r.Delete("/api/projects/{id}", srv.handleDeleteProject)
	})

	r.Group(func(r chi.Router) {
		r.Use(srv.requireAuth, srv.requireAdmin)
		r.Post("/api/admin/materials", srv.handleAdminMaterialsCreate)
		r.Post("/api/admin/materials/{id}", srv.handleAdminMaterialsUpdate)
		r.Post("/api/admin/furniture", srv.handleAdminFurnitureCreate)
		r.Post("/api/admin/furniture/{id}", srv.handleAdminFurnitureUpdate)
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

type quoteRequest struct {
	Dimensions     *pricing.Dimensions     `json:"dimensions"`
	MaterialRefs   map[string]int64        `json:"materialRefs"`
	FurnitureItems []pricing.FurnitureLine `json:"furnitureItems"`
	AdditionalCost float64                 `json:"additionalCost"`
	Discount       float64                 `json:"discount"`
	TaxRate        float64                 `json:"taxRate"`
	Currency       string                  `json:"currency"`
}

type projectRequest struct {
	quoteRequest
	Name       string `json:"name"`
	Status     string `json:"status"`
	Visibility string `json:"visibility"`
	Notes      string `json:"notes"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, valid, err := s.auth.validateCredentials(req.Email, req.Password)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.issueToken(req.Email, role)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "authentication error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "role": role})
}

// handleQuote computes a price estimate without persisting anything.
func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quote, _, err := s.computeQuote(req)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

func (s *server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	quote, dims, err := s.computeQuote(req.quoteRequest)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	email, _ := r.Context().Value(ctxEmail).(string)
	rec, err := s.projects.Create(project.Record{
		Name:       strings.TrimSpace(req.Name),
		OwnerEmail: email,
		Status:     req.Status,
		Visibility: req.Visibility,
		Notes:      req.Notes,
		Dimensions: dims,
		Areas:      quote.Areas,
		Materials:  quote.Materials,
		Furniture:  quote.Furniture,
		Pricing:    quote.Pricing,
	})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to create project")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// handleUpdateProject recomputes areas and pricing from the submitted input
// and replaces the stored snapshots wholesale.
func (s *server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	publicID := chi.URLParam(r, "id")

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	quote, dims, err := s.computeQuote(req.quoteRequest)
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	err = s.projects.Replace(publicID, project.Record{
		Name:       strings.TrimSpace(req.Name),
		Status:     defaultString(req.Status, "draft"),
		Visibility: defaultString(req.Visibility, "private"),
		Notes:      req.Notes,
		Dimensions: dims,
		Areas:      quote.Areas,
		Materials:  quote.Materials,
		Furniture:  quote.Furniture,
		Pricing:    quote.Pricing,
	})
	if errors.Is(err, project.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to update project")
		return
	}

	rec, err := s.projects.GetByPublicID(publicID, false)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	rec, err := s.projects.GetByPublicID(chi.URLParam(r, "id"), true)
	if errors.Is(err, project.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := s.projects.List(query)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load projects")
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.projects.Delete(chi.URLParam(r, "id"))
	if errors.Is(err, project.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to delete project")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.catalogs.ListMaterials(true)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load materials")
		return
	}

	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleListFurniture(w http.ResponseWriter, r *http.Request) {
	furniture, err := s.catalogs.ListFurniture(true)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to load furniture")
		return
	}

	writeJSON(w, http.StatusOK, furniture)
}

func (s *server) handleAdminMaterialsCreate(w http.ResponseWriter, r *http.Request) {
	var rec catalog.MaterialRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateMaterial(rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.catalogs.CreateMaterial(rec)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to create material")
		return
	}
	rec.ID = id

	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleAdminMaterialsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid material id")
		return
	}

	var rec catalog.MaterialRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.ID = id
	if err := validateMaterial(rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.catalogs.UpdateMaterial(rec)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "material not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to update material")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleAdminFurnitureCreate(w http.ResponseWriter, r *http.Request) {
	var rec catalog.FurnitureRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateFurniture(rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.catalogs.CreateFurniture(rec)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to create furniture")
		return
	}
	rec.ID = id

	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleAdminFurnitureUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid furniture id")
		return
	}

	var rec catalog.FurnitureRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.ID = id
	if err := validateFurniture(rec); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.catalogs.UpdateFurniture(rec)
	if errors.Is(err, catalog.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "furniture not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to update furniture")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// computeQuote runs the shared area + cost pipeline used by quote, create,
// and update, so the preview and the persisted totals can never drift.
func (s *server) computeQuote(req quoteRequest) (pricing.Quote, pricing.Dimensions, error) {
	if err := validateAdjustments(req); err != nil {
		return pricing.Quote{}, pricing.Dimensions{}, err
	}

	dims := applyDefaultDimensions(req.Dimensions)
	areas, err := pricing.ComputeAreas(dims)
	if err != nil {
		return pricing.Quote{}, pricing.Dimensions{}, err
	}

	adj := pricing.Adjustments{
		AdditionalCost: req.AdditionalCost,
		Discount:       req.Discount,
		TaxRate:        req.TaxRate,
		Currency:       defaultString(req.Currency, s.defaultCurrency),
	}

	quote, err := pricing.Estimate(areas, req.MaterialRefs, req.FurnitureItems, adj, s.catalogs, s.catalogs)
	if err != nil {
		return pricing.Quote{}, pricing.Dimensions{}, err
	}

	return quote, dims, nil
}

func (s *server) writeComputeError(w http.ResponseWriter, err error) {
	if errors.Is(err, pricing.ErrInvalidDimensions) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	var vErr validationError
	if errors.As(err, &vErr) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSONError(w, http.StatusInternalServerError, "failed to compute estimate")
}

type validationError string

func (e validationError) Error() string { return string(e) }

func validateAdjustments(req quoteRequest) error {
	if req.AdditionalCost < 0 {
		return validationError("additionalCost must be greater or equal to 0")
	}
	if req.Discount < 0 {
		return validationError("discount must be greater or equal to 0")
	}
	if req.TaxRate < 0 || req.TaxRate > 100 {
		return validationError("taxRate must be between 0 and 100")
	}
	return nil
}

func validateMaterial(rec catalog.MaterialRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return validationError("name is required")
	}
	if rec.PricePerUnit <= 0 {
		return validationError("pricePerUnitArea must be greater than 0")
	}
	return nil
}

func validateFurniture(rec catalog.FurnitureRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return validationError("name is required")
	}
	if rec.UnitPrice <= 0 {
		return validationError("unitPrice must be greater than 0")
	}
	return nil
}

// applyDefaultDimensions substitutes the documented 5x5x3 default for
// missing dimensions; negative values are left for ComputeAreas to reject.
func applyDefaultDimensions(d *pricing.Dimensions) pricing.Dimensions {
	def := pricing.DefaultDimensions()
	if d == nil {
		return def
	}

	out := *d
	if out.Width == 0 {
		out.Width = def.Width
	}
	if out.Length == 0 {
		out.Length = def.Length
	}
	if out.Height == 0 {
		out.Height = def.Height
	}
	return out
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func (s *server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		email, role, err := s.auth.verifyToken(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ctxEmail, email)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := r.Context().Value(ctxRole).(string)
		if role != "admin" {
			writeJSONError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
