package store

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
)

// ProductFilter narrows a product list server-side. Zero values mean no filter.
type ProductFilter struct {
	CategoryID    int64
	SubcategoryID int64
}

func (f ProductFilter) query() url.Values {
	q := url.Values{}
	if f.CategoryID > 0 {
		q.Set("category", idString(f.CategoryID))
	}
	if f.SubcategoryID > 0 {
		q.Set("subCategory", idString(f.SubcategoryID))
	}
	return q
}

// ImageUpload is one product image sent with a create or update
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ProductInput is the admin form for creating or editing a product
type ProductInput struct {
	Title         string        `json:"title" validate:"required"`
	Description   string        `json:"description" validate:"required"`
	Brand         string        `json:"brand"`
	Price         float64       `json:"price" validate:"gt=0"`
	Stock         int           `json:"stock" validate:"gte=0"`
	CategoryID    int64         `json:"categoryId" validate:"gte=0"`
	SubcategoryID int64         `json:"subCategoryId" validate:"gte=0"`
	Images        []ImageUpload `json:"-" validate:"-"`
}

func (in ProductInput) form() *apiclient.Form {
	form := apiclient.NewForm().
		Set("title", in.Title).
		Set("description", in.Description).
		Set("brand", in.Brand).
		Set("price", strconv.FormatFloat(in.Price, 'f', -1, 64)).
		Set("stock", strconv.Itoa(in.Stock))
	if in.CategoryID > 0 {
		form.Set("categoryId", idString(in.CategoryID))
	}
	if in.SubcategoryID > 0 {
		form.Set("subCategoryId", idString(in.SubcategoryID))
	}
	for _, img := range in.Images {
		form.File("images", img.Filename, img.Content)
	}
	return form
}

// Products is the product catalog slice plus the separately tracked detail item
type Products struct {
	*Slice[domain.Product]
	deps Deps

	mu         sync.RWMutex
	filter     ProductFilter
	current    *domain.Product
	currentSeq uint64
}

// NewProducts creates the products slice
func NewProducts(deps Deps, window time.Duration) *Products {
	return &Products{
		Slice: NewSlice("products", window, func(p domain.Product) string { return p.ID }),
		deps:  deps,
	}
}

// FetchAll loads the catalog, filtered server-side by filter
func (p *Products) FetchAll(ctx context.Context, filter ProductFilter) error {
	seq := p.beginList()

	raw, err := p.deps.API.Get(ctx, "/products/all", filter.query(), "")
	if err != nil {
		msg := p.deps.report(ctx, p.Name(), OpList, err)
		p.failList(seq, msg)
		return err
	}

	if !p.commitList(seq, p.deps.Normalizer.Products(raw), p.deps.now()) {
		p.deps.discarded(p.Name(), seq)
		return nil
	}

	p.mu.Lock()
	p.filter = filter
	p.mu.Unlock()
	return nil
}

// Filter returns the filter of the committed collection
func (p *Products) Filter() ProductFilter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.filter
}

// NeedsFetch applies the staleness gate and also asks for a fetch when the
// committed collection was loaded with a different filter
func (p *Products) NeedsFetch(now time.Time, filter ProductFilter) bool {
	if p.Loading(OpList) {
		return false
	}
	return p.Filter() != filter || p.ShouldFetch(now)
}

// FetchByID loads a single product into the detail slot
func (p *Products) FetchByID(ctx context.Context, id string) (domain.Product, error) {
	p.mu.Lock()
	p.currentSeq++
	seq := p.currentSeq
	p.mu.Unlock()

	p.begin(OpDetail)

	raw, err := p.deps.API.Get(ctx, "/products/"+url.PathEscape(id), nil, "")
	if err != nil {
		p.settleDetail(seq, nil, p.deps.report(ctx, p.Name(), OpDetail, err))
		return domain.Product{}, err
	}

	product, ok := p.deps.Normalizer.Product(raw, id)
	if !ok {
		err := apiclient.ErrMalformedResponse
		p.settleDetail(seq, nil, apiclient.Message(err))
		return domain.Product{}, err
	}

	if !p.settleDetail(seq, &product, "") {
		p.deps.discarded(p.Name(), seq)
	}
	return product, nil
}

// settleDetail records the outcome of detail request seq. Outcomes of
// requests superseded by a newer FetchByID leave the detail state untouched.
func (p *Products) settleDetail(seq uint64, product *domain.Product, msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.currentSeq {
		return false
	}
	if product == nil {
		p.fail(OpDetail, msg)
		return true
	}
	p.current = product
	p.succeed(OpDetail)
	return true
}

// Current returns the product loaded by the latest FetchByID
func (p *Products) Current() (domain.Product, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return domain.Product{}, false
	}
	return *p.current, true
}

// Create submits a new product. Callers refresh with FetchAll afterwards.
func (p *Products) Create(ctx context.Context, input ProductInput, token string) (domain.Product, error) {
	if err := preflight(p.Slice, OpCreate, input, token); err != nil {
		return domain.Product{}, err
	}

	p.begin(OpCreate)

	raw, err := p.deps.API.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/products/create",
		Form:   input.form(),
		Token:  token,
	})
	if err != nil {
		p.fail(OpCreate, p.deps.report(ctx, p.Name(), OpCreate, err))
		return domain.Product{}, err
	}

	p.succeed(OpCreate)
	product, _ := p.deps.Normalizer.Product(raw, "")
	return product, nil
}

// Update edits a product and merges the returned authoritative copy
func (p *Products) Update(ctx context.Context, id string, input ProductInput, token string) (domain.Product, error) {
	if err := preflight(p.Slice, OpUpdate, input, token); err != nil {
		return domain.Product{}, err
	}

	p.begin(OpUpdate)

	raw, err := p.deps.API.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   "/products/" + url.PathEscape(id),
		Form:   input.form(),
		Token:  token,
	})
	if err != nil {
		p.fail(OpUpdate, p.deps.report(ctx, p.Name(), OpUpdate, err))
		return domain.Product{}, err
	}

	product, ok := p.deps.Normalizer.Product(raw, id)
	if !ok {
		err := apiclient.ErrMalformedResponse
		p.fail(OpUpdate, apiclient.Message(err))
		return domain.Product{}, err
	}
	p.upsert(product)
	p.mu.Lock()
	if p.current != nil && p.current.ID == product.ID {
		p.current = &product
	}
	p.mu.Unlock()

	p.succeed(OpUpdate)
	return product, nil
}

// Delete removes a product server-side. Callers refresh with FetchAll afterwards.
func (p *Products) Delete(ctx context.Context, id string, token string) error {
	if err := requireToken(token); err != nil {
		p.fail(OpDelete, apiclient.Message(err))
		return err
	}

	p.begin(OpDelete)

	if _, err := p.deps.API.Delete(ctx, "/products/"+url.PathEscape(id), token); err != nil {
		p.fail(OpDelete, p.deps.report(ctx, p.Name(), OpDelete, err))
		return err
	}

	p.succeed(OpDelete)
	return nil
}

// Search matches query against title, brand and slug, case-insensitively
func (p *Products) Search(query string) []domain.Product {
	items := p.Items()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	out := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if containsAny(query, item.Title, item.Brand, item.Slug) {
			out = append(out, item)
		}
	}
	return out
}

func containsAny(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}
