package store

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monocart/internal/apiclient"
	"monocart/internal/domain"
)

func TestCategories_CreateWithoutTokenMakesNoCall(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	categories := NewCategories(deps, 5*time.Minute)

	_, err := categories.Create(context.Background(), CategoryInput{Name: "Shoes"}, "")

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, api.CallCount())
	assert.Equal(t, "You must be logged in", categories.Error(OpCreate))
	assert.False(t, categories.Loading(OpCreate))
}

func TestCategories_FetchCreateRefresh(t *testing.T) {
	deps, api, _ := newTestDeps(t)

	list := `[{"id":1,"name":"Men","slug":"men"}]`
	api.Handle("GET /categories/all", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(list))
	})
	api.Handle("POST /categories/create", func(w http.ResponseWriter, r *http.Request) {
		var in CategoryInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		list = `[{"id":1,"name":"Men","slug":"men"},{"id":2,"name":"` + in.Name + `","slug":"shoes"}]`
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":2,"name":"` + in.Name + `","slug":"shoes"}`))
	})

	categories := NewCategories(deps, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, categories.FetchAll(ctx))
	assert.Equal(t, 1, categories.Len())
	assert.False(t, categories.ShouldFetch(testNow.Add(4*time.Minute)))

	created, err := categories.Create(ctx, CategoryInput{Name: "Shoes"}, "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.Category{ID: 2, Name: "Shoes", Slug: "shoes"}, created)
	assert.Equal(t, 1, categories.Len(), "creates are not merged")

	require.NoError(t, categories.FetchAll(ctx))
	assert.Equal(t, 2, categories.Len())
}

func TestCategories_UpdateAndDelete(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	api.Reply("GET /categories/all", http.StatusOK, `{"data":[{"id":1,"name":"Men"},{"id":2,"name":"Women"}]}`)
	api.Reply("PATCH /categories/update/2", http.StatusOK, `{"data":{"id":2,"name":"Ladies"}}`)
	api.Reply("DELETE /categories/delete/1", http.StatusBadRequest, `{"message":"Category has products"}`)

	categories := NewCategories(deps, 5*time.Minute)
	ctx := context.Background()
	require.NoError(t, categories.FetchAll(ctx))

	_, err := categories.Update(ctx, 2, CategoryInput{Name: "Ladies"}, "tok")
	require.NoError(t, err)
	got, _ := categories.Get("2")
	assert.Equal(t, "Ladies", got.Name)

	_, err = categories.Update(ctx, 2, CategoryInput{}, "tok")
	assert.Error(t, err)

	err = categories.Delete(ctx, 1, "tok")
	assert.Error(t, err)
	assert.Equal(t, "Category has products", categories.Error(OpDelete))
}

func TestCategories_UpdateMalformedResponse(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	api.Reply("PATCH /categories/update/2", http.StatusOK, `{"data":{"name":"Ladies"}}`)
	api.Reply("PATCH /subcategories/update/5", http.StatusOK, `[]`)

	ctx := context.Background()
	categories := NewCategories(deps, 5*time.Minute)
	_, err := categories.Update(ctx, 2, CategoryInput{Name: "Ladies"}, "tok")
	assert.ErrorIs(t, err, apiclient.ErrMalformedResponse)
	assert.NotEmpty(t, categories.Error(OpUpdate))
	assert.False(t, categories.Loading(OpUpdate))

	subcategories := NewSubcategories(deps, 5*time.Minute)
	_, err = subcategories.Update(ctx, 5, SubcategoryInput{Name: "Boots", CategoryID: 2}, "tok")
	assert.ErrorIs(t, err, apiclient.ErrMalformedResponse)
	assert.Zero(t, subcategories.Len())
}

func TestSubcategories_FilterAndSearch(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	api.Reply("GET /subcategories/all", http.StatusOK, `[
		{"id":10,"name":"Shirts","slug":"shirts","category":{"id":1,"name":"Men","slug":"men"}},
		{"id":11,"name":"Dresses","slug":"dresses","categoryId":2}
	]`)

	subs := NewSubcategories(deps, 5*time.Minute)
	require.NoError(t, subs.FetchAll(context.Background(), 1))
	assert.Equal(t, "categoryId=1", api.Calls()[0].Query)

	assert.Len(t, subs.Search("men"), 1)
	assert.Equal(t, int64(10), subs.Search("men")[0].ID)
	assert.Len(t, subs.Search("DRESS"), 1)
	assert.Len(t, subs.Search(""), 2)

	require.NoError(t, subs.FetchAll(context.Background(), 0))
	assert.Empty(t, api.Calls()[1].Query)
}

func TestSubcategories_CreateRequiresCategory(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	api.Reply("POST /subcategories/create", http.StatusCreated, `{"data":{"id":12,"name":"Boots","categoryId":3}}`)

	subs := NewSubcategories(deps, 5*time.Minute)

	_, err := subs.Create(context.Background(), SubcategoryInput{Name: "Boots"}, "tok")
	assert.Error(t, err)
	assert.Zero(t, api.CallCount())

	created, err := subs.Create(context.Background(), SubcategoryInput{Name: "Boots", CategoryID: 3}, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.CategoryID)
}

func TestSubcategories_ServerRejectsUnknownParent(t *testing.T) {
	deps, api, _ := newTestDeps(t)
	api.Reply("PATCH /subcategories/update/12", http.StatusBadRequest, `{"error":{"message":"Category does not exist"}}`)

	subs := NewSubcategories(deps, 5*time.Minute)
	_, err := subs.Update(context.Background(), 12, SubcategoryInput{Name: "Boots", CategoryID: 99}, "tok")

	assert.Error(t, err)
	assert.Equal(t, "Category does not exist", subs.Error(OpUpdate))
}
