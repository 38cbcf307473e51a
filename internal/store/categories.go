package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
	"monocart/internal/normalize"
	"monocart/internal/validate"
)

// CategoryInput is the admin form for a category
type CategoryInput struct {
	Name string `json:"name" validate:"required"`
}

// Categories is the category slice
type Categories struct {
	*Slice[domain.Category]
	deps Deps
}

// NewCategories creates the categories slice
func NewCategories(deps Deps, window time.Duration) *Categories {
	return &Categories{
		Slice: NewSlice("categories", window, func(c domain.Category) string { return idString(c.ID) }),
		deps:  deps,
	}
}

// FetchAll loads every category
func (c *Categories) FetchAll(ctx context.Context) error {
	seq := c.beginList()

	raw, err := c.deps.API.Get(ctx, "/categories/all", nil, "")
	if err != nil {
		c.failList(seq, c.deps.report(ctx, c.Name(), OpList, err))
		return err
	}

	if !c.commitList(seq, normalize.Categories(raw), c.deps.now()) {
		c.deps.discarded(c.Name(), seq)
	}
	return nil
}

// Create submits a new category. Callers refresh with FetchAll afterwards.
func (c *Categories) Create(ctx context.Context, input CategoryInput, token string) (domain.Category, error) {
	if err := preflight(c.Slice, OpCreate, input, token); err != nil {
		return domain.Category{}, err
	}

	c.begin(OpCreate)

	raw, err := c.deps.API.Post(ctx, "/categories/create", input, token)
	if err != nil {
		c.fail(OpCreate, c.deps.report(ctx, c.Name(), OpCreate, err))
		return domain.Category{}, err
	}

	c.succeed(OpCreate)
	category, _ := normalize.Category(raw)
	return category, nil
}

// Update renames a category and merges the returned copy
func (c *Categories) Update(ctx context.Context, id int64, input CategoryInput, token string) (domain.Category, error) {
	if err := preflight(c.Slice, OpUpdate, input, token); err != nil {
		return domain.Category{}, err
	}

	c.begin(OpUpdate)

	raw, err := c.deps.API.Patch(ctx, "/categories/update/"+idString(id), input, token)
	if err != nil {
		c.fail(OpUpdate, c.deps.report(ctx, c.Name(), OpUpdate, err))
		return domain.Category{}, err
	}

	category, ok := normalize.Category(raw)
	if !ok {
		err := apiclient.ErrMalformedResponse
		c.fail(OpUpdate, apiclient.Message(err))
		return domain.Category{}, err
	}
	c.upsert(category)

	c.succeed(OpUpdate)
	return category, nil
}

// Delete removes a category server-side. Callers refresh with FetchAll afterwards.
func (c *Categories) Delete(ctx context.Context, id int64, token string) error {
	if err := requireToken(token); err != nil {
		c.fail(OpDelete, apiclient.Message(err))
		return err
	}

	c.begin(OpDelete)

	if _, err := c.deps.API.Delete(ctx, "/categories/delete/"+idString(id), token); err != nil {
		c.fail(OpDelete, c.deps.report(ctx, c.Name(), OpDelete, err))
		return err
	}

	c.succeed(OpDelete)
	return nil
}

// SubcategoryInput is the admin form for a subcategory
type SubcategoryInput struct {
	Name       string `json:"name" validate:"required"`
	CategoryID int64  `json:"categoryId" validate:"required,gt=0"`
}

// Subcategories is the subcategory slice
type Subcategories struct {
	*Slice[domain.Subcategory]
	deps Deps
}

// NewSubcategories creates the subcategories slice
func NewSubcategories(deps Deps, window time.Duration) *Subcategories {
	return &Subcategories{
		Slice: NewSlice("subcategories", window, func(s domain.Subcategory) string { return idString(s.ID) }),
		deps:  deps,
	}
}

// FetchAll loads subcategories, filtered server-side when categoryID is positive
func (s *Subcategories) FetchAll(ctx context.Context, categoryID int64) error {
	seq := s.beginList()

	var query url.Values
	if categoryID > 0 {
		query = url.Values{"categoryId": {idString(categoryID)}}
	}

	raw, err := s.deps.API.Get(ctx, "/subcategories/all", query, "")
	if err != nil {
		s.failList(seq, s.deps.report(ctx, s.Name(), OpList, err))
		return err
	}

	if !s.commitList(seq, normalize.Subcategories(raw), s.deps.now()) {
		s.deps.discarded(s.Name(), seq)
	}
	return nil
}

// Create submits a new subcategory. Callers refresh with FetchAll afterwards.
func (s *Subcategories) Create(ctx context.Context, input SubcategoryInput, token string) (domain.Subcategory, error) {
	if err := preflight(s.Slice, OpCreate, input, token); err != nil {
		return domain.Subcategory{}, err
	}

	s.begin(OpCreate)

	raw, err := s.deps.API.Post(ctx, "/subcategories/create", input, token)
	if err != nil {
		s.fail(OpCreate, s.deps.report(ctx, s.Name(), OpCreate, err))
		return domain.Subcategory{}, err
	}

	s.succeed(OpCreate)
	sub, _ := normalize.Subcategory(raw)
	return sub, nil
}

// Update edits a subcategory and merges the returned copy
func (s *Subcategories) Update(ctx context.Context, id int64, input SubcategoryInput, token string) (domain.Subcategory, error) {
	if err := preflight(s.Slice, OpUpdate, input, token); err != nil {
		return domain.Subcategory{}, err
	}

	s.begin(OpUpdate)

	raw, err := s.deps.API.Patch(ctx, "/subcategories/update/"+idString(id), input, token)
	if err != nil {
		s.fail(OpUpdate, s.deps.report(ctx, s.Name(), OpUpdate, err))
		return domain.Subcategory{}, err
	}

	sub, ok := normalize.Subcategory(raw)
	if !ok {
		err := apiclient.ErrMalformedResponse
		s.fail(OpUpdate, apiclient.Message(err))
		return domain.Subcategory{}, err
	}
	s.upsert(sub)

	s.succeed(OpUpdate)
	return sub, nil
}

// Delete removes a subcategory server-side
func (s *Subcategories) Delete(ctx context.Context, id int64, token string) error {
	if err := requireToken(token); err != nil {
		s.fail(OpDelete, apiclient.Message(err))
		return err
	}

	s.begin(OpDelete)

	if _, err := s.deps.API.Delete(ctx, "/subcategories/delete/"+idString(id), token); err != nil {
		s.fail(OpDelete, s.deps.report(ctx, s.Name(), OpDelete, err))
		return err
	}

	s.succeed(OpDelete)
	return nil
}

// Search matches query against name, slug and the parent category name
func (s *Subcategories) Search(query string) []domain.Subcategory {
	items := s.Items()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items
	}

	out := make([]domain.Subcategory, 0, len(items))
	for _, item := range items {
		parent := ""
		if item.Category != nil {
			parent = item.Category.Name
		}
		if containsAny(query, item.Name, item.Slug, parent) {
			out = append(out, item)
		}
	}
	return out
}

// preflight rejects a mutation without a token or with invalid input before any network call
func preflight[T any](s *Slice[T], op string, input interface{}, token string) error {
	if err := requireToken(token); err != nil {
		s.fail(op, apiclient.Message(err))
		return err
	}
	if err := validate.Struct(input); err != nil {
		s.fail(op, apiclient.Message(err))
		return err
	}
	return nil
}
