// Package api exposes the manual sync trigger and read access to the catalog snapshot.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalogmirror/scraper/internal/domain"
	"catalogmirror/scraper/internal/metrics"
	"catalogmirror/scraper/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// CatalogService is the part of service.Service the HTTP surface needs.
type CatalogService interface {
	TrySync(ctx context.Context) (bool, error)
	Snapshot() domain.Snapshot
}

// Server wires HTTP handlers to the sync service.
type Server struct {
	router  chi.Router
	catalog CatalogService
}

// NewServer builds the router. When imagesDir is set, cached images are served under imagePrefix.
func NewServer(catalog CatalogService, imagesDir, imagePrefix string) *Server {
	s := &Server{catalog: catalog}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/sync", s.sync)
		r.Get("/stats", s.stats)
		r.Get("/catalog", s.fullCatalog)
		r.Get("/products", s.allProducts)
		r.Get("/categories/{category_id}/products", s.categoryProducts)
		r.Get("/search", s.search)
	})

	if imagesDir != "" && imagePrefix != "" {
		prefix := "/" + strings.Trim(imagePrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(imagesDir))))
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type syncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statsResponse struct {
	LastSync *time.Time   `json:"last_sync"`
	Stats    domain.Stats `json:"stats"`
}

type productsResponse struct {
	Products      []domain.Product `json:"products"`
	TotalProducts int              `json:"total_products"`
}

type categoryResponse struct {
	Category      domain.Category   `json:"category"`
	Subcategories []domain.Category `json:"subcategories"`
	ActiveSub     *domain.Category  `json:"active_sub"`
	Products      []domain.Product  `json:"products"`
	TotalProducts int               `json:"total_products"`
}

type searchResponse struct {
	Query         string           `json:"query"`
	Products      []domain.Product `json:"products"`
	TotalProducts int              `json:"total_products"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sync runs a full sync in the request goroutine; a client disconnect does not cancel it.
func (s *Server) sync(w http.ResponseWriter, r *http.Request) {
	ok, err := s.catalog.TrySync(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, service.ErrSyncInProgress):
		writeJSON(w, http.StatusConflict, syncResponse{Success: false, Message: "Sincronización en curso"})
	case err != nil:
		log.Errorf("❌ Manual sync could not start: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, syncResponse{Success: false, Message: "Error en sincronización"})
	case ok:
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Message: "Sincronización completada"})
	default:
		writeJSON(w, http.StatusOK, syncResponse{Success: false, Message: "Error en sincronización"})
	}
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.catalog.Snapshot()
	writeJSON(w, http.StatusOK, statsResponse{LastSync: snapshot.LastSync, Stats: snapshot.Stats})
}

func (s *Server) fullCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Snapshot())
}

func (s *Server) allProducts(w http.ResponseWriter, _ *http.Request) {
	products := s.catalog.Snapshot().Products
	writeJSON(w, http.StatusOK, productsResponse{Products: products, TotalProducts: len(products)})
}

func (s *Server) categoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(chi.URLParam(r, "category_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	snapshot := s.catalog.Snapshot()
	category, ok := snapshot.Categories.All[categoryID]
	if !ok {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	activeID := categoryID
	var activeSub *domain.Category
	if raw := r.URL.Query().Get("sub"); raw != "" {
		subID, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid sub category id")
			return
		}
		activeID = subID
		if sub, ok := snapshot.Categories.All[subID]; ok {
			activeSub = &sub
		}
	}

	products := snapshot.ProductsByCategory[activeID]
	if products == nil {
		products = []domain.Product{}
	}
	subcategories := snapshot.Categories.Children[categoryID]
	if subcategories == nil {
		subcategories = []domain.Category{}
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		Category:      category,
		Subcategories: subcategories,
		ActiveSub:     activeSub,
		Products:      products,
		TotalProducts: len(products),
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	results := []domain.Product{}
	if query != "" {
		needle := strings.ToLower(query)
		for _, p := range s.catalog.Snapshot().Products {
			if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Code), needle) {
				results = append(results, p)
			}
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Products: results, TotalProducts: len(results)})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("HTTP request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		log.Errorf("write JSON failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
