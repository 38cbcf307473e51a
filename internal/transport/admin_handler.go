package transport

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"monocart/internal/middleware"
	"monocart/internal/session"
	"monocart/internal/store"
	"monocart/internal/validate"
)

const maxUploadMemory = 32 << 20

// AdminHandler serves the dashboard writes. Every write is followed by a
// refetch of the affected list so the dashboard shows the server's view.
type AdminHandler struct {
	session *session.Session
	store   *store.Store
	logger  *zap.Logger
	now     func() time.Time
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(sess *session.Session, st *store.Store, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		session: sess,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes registers the admin routes behind both guards
func (h *AdminHandler) RegisterRoutes(r chi.Router, requireSession, requireAdmin func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireSession, requireAdmin)

		r.Get("/users", h.ListUsers)

		r.Post("/products", h.CreateProduct)
		r.Patch("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Post("/categories", h.CreateCategory)
		r.Patch("/categories/{id}", h.UpdateCategory)
		r.Delete("/categories/{id}", h.DeleteCategory)

		r.Post("/subcategories", h.CreateSubcategory)
		r.Patch("/subcategories/{id}", h.UpdateSubcategory)
		r.Delete("/subcategories/{id}", h.DeleteSubcategory)
	})
}

// productInput reads a product form from JSON or multipart/form-data. The
// returned func closes uploaded files and must be called.
func productInput(r *http.Request) (store.ProductInput, func(), error) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var in store.ProductInput
		if err := middleware.DecodeAndValidate(r, &in); err != nil {
			return in, noop, err
		}
		return in, noop, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return store.ProductInput{}, noop, validate.Field("form", "Invalid multipart form")
	}

	in := store.ProductInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Brand:       strings.TrimSpace(r.FormValue("brand")),
	}

	var err error
	if in.Price, err = cast.ToFloat64E(r.FormValue("price")); err != nil {
		return in, noop, validate.Field("price", "Must be a number")
	}
	if in.Stock, err = cast.ToIntE(orZero(r.FormValue("stock"))); err != nil {
		return in, noop, validate.Field("stock", "Must be an integer")
	}
	if in.CategoryID, err = cast.ToInt64E(orZero(r.FormValue("categoryId"))); err != nil {
		return in, noop, validate.Field("categoryId", "Must be an integer")
	}
	if in.SubcategoryID, err = cast.ToInt64E(orZero(r.FormValue("subCategoryId"))); err != nil {
		return in, noop, validate.Field("subCategoryId", "Must be an integer")
	}

	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			c()
		}
		r.MultipartForm.RemoveAll()
	}

	for _, header := range r.MultipartForm.File["images"] {
		f, err := header.Open()
		if err != nil {
			cleanup()
			return in, noop, validate.Field("images", "Unreadable upload")
		}
		closers = append(closers, f.Close)
		in.Images = append(in.Images, store.ImageUpload{Filename: header.Filename, Content: f})
	}

	if err := validate.Struct(in); err != nil {
		cleanup()
		return in, noop, err
	}
	return in, cleanup, nil
}

func orZero(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}

// refreshProducts reloads the product list with its committed filter
func (h *AdminHandler) refreshProducts(r *http.Request) {
	if err := h.store.Products.FetchAll(r.Context(), h.store.Products.Filter()); err != nil {
		h.logger.Warn("Failed to refresh products after write", zap.Error(err))
	}
}

func (h *AdminHandler) refreshCategories(r *http.Request) {
	if err := h.store.Categories.FetchAll(r.Context()); err != nil {
		h.logger.Warn("Failed to refresh categories after write", zap.Error(err))
	}
}

func (h *AdminHandler) refreshSubcategories(r *http.Request) {
	if err := h.store.Subcategories.FetchAll(r.Context(), 0); err != nil {
		h.logger.Warn("Failed to refresh subcategories after write", zap.Error(err))
	}
}

// CreateProduct submits a new product with its images
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := productInput(r)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	defer cleanup()

	product, err := h.store.Products.Create(r.Context(), in, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID), zap.Int("images", len(in.Images)))
	h.refreshProducts(r)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct edits a product and merges the returned copy
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := productInput(r)
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}
	defer cleanup()

	product, err := h.store.Products.Update(r.Context(), chi.URLParam(r, "id"), in, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Products.Delete(r.Context(), id, h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id))
	h.refreshProducts(r)
	w.WriteHeader(http.StatusNoContent)
}

// CreateCategory submits a new category
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req store.CategoryInput
	if !decode(w, r, &req, h.logger) {
		return
	}

	category, err := h.store.Categories.Create(r.Context(), req, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.refreshCategories(r)
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// UpdateCategory renames a category
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	var req store.CategoryInput
	if !decode(w, r, &req, h.logger) {
		return
	}

	category, err := h.store.Categories.Update(r.Context(), id, req, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, category)
}

// DeleteCategory removes a category
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	if err := h.store.Categories.Delete(r.Context(), id, h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.refreshCategories(r)
	w.WriteHeader(http.StatusNoContent)
}

// CreateSubcategory submits a new subcategory under an existing category
func (h *AdminHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var req store.SubcategoryInput
	if !decode(w, r, &req, h.logger) {
		return
	}

	sub, err := h.store.Subcategories.Create(r.Context(), req, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.refreshSubcategories(r)
	middleware.RespondWithJSON(w, http.StatusCreated, sub)
}

// UpdateSubcategory edits a subcategory
func (h *AdminHandler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	var req store.SubcategoryInput
	if !decode(w, r, &req, h.logger) {
		return
	}

	sub, err := h.store.Subcategories.Update(r.Context(), id, req, h.session.Token())
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, sub)
}

// DeleteSubcategory removes a subcategory
func (h *AdminHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	if err := h.store.Subcategories.Delete(r.Context(), id, h.session.Token()); err != nil {
		middleware.RespondWithDomainError(w, err, h.logger)
		return
	}

	h.refreshSubcategories(r)
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers returns every user for the dashboard
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.store.Users
	if users.ShouldFetch(h.now()) {
		if err := users.FetchAll(r.Context(), h.session.Token()); err != nil {
			middleware.RespondWithDomainError(w, err, h.logger)
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, newList(users.Items(), users.LastFetched()))
}
