package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"monocart/internal/domain"
	"monocart/internal/middleware"
	"monocart/internal/store"
)

// CatalogHandler serves products, categories and subcategories. Reads go
// through the staleness gate; nothing is fetched while the slice is fresh.
type CatalogHandler struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(st *store.Store, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/subcategories", h.ListSubcategories)
}

// ListProducts returns the catalog, refreshed when stale or when the filter changed
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "category")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	subcategoryID, err := queryID(r, "subCategory")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	products := h.store.Products
	filter := store.ProductFilter{CategoryID: categoryID, SubcategoryID: subcategoryID}

	if products.NeedsFetch(h.now(), filter) {
		if err := products.FetchAll(r.Context(), filter); err != nil {
			h.logger.Warn("Failed to load products", zap.Error(err))
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	items := products.Search(r.URL.Query().Get("q"))
	middleware.RespondWithJSON(w, http.StatusOK, newList(items, products.LastFetched()))
}

// GetProduct loads one product into the detail slot
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.store.Products.FetchByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// ListCategories returns all categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.store.Categories
	if categories.ShouldFetch(h.now()) {
		if err := categories.FetchAll(r.Context()); err != nil {
			h.logger.Warn("Failed to load categories", zap.Error(err))
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(categories.Items(), categories.LastFetched()))
}

// ListSubcategories returns subcategories, optionally of one category and matching q.
// The full list is cached and narrowed locally.
func (h *CatalogHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryID(r, "categoryId")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	subcategories := h.store.Subcategories
	if subcategories.ShouldFetch(h.now()) {
		if err := subcategories.FetchAll(r.Context(), 0); err != nil {
			h.logger.Warn("Failed to load subcategories", zap.Error(err))
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	items := subcategories.Search(r.URL.Query().Get("q"))
	if categoryID > 0 {
		filtered := make([]domain.Subcategory, 0, len(items))
		for _, sub := range items {
			if sub.CategoryID == categoryID {
				filtered = append(filtered, sub)
			}
		}
		items = filtered
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(items, subcategories.LastFetched()))
}
