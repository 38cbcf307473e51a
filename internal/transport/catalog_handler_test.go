package transport

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monocart/internal/domain"
)

const productsFixture = `{"data":[
	{"_id":"p1","title":"Linen Shirt","brand":"Acme","price":25,"stock":3,"categoryId":2,"images":[{"url":"/uploads/shirt.png"}]},
	{"id":"p2","name":"Denim Jacket","brand":"Blue","price":80,"stock":0,"category":{"id":2},"imageUrl":"https://img.test/jacket.jpg"}
]}`

func TestCatalog_ProductsAreStalenessGated(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /products/all", http.StatusOK, productsFixture)

	w := g.do(t, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[listResponse[domain.Product]](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "Linen Shirt", list.Items[0].Title)
	assert.Equal(t, []string{"https://cdn.monocart.test/uploads/shirt.png"}, list.Items[0].Images)

	g.now = g.now.Add(time.Minute)
	g.do(t, http.MethodGet, "/api/products", "")
	assert.Equal(t, 1, g.callsTo("GET /products/all"), "fresh collection must not refetch")

	g.now = g.now.Add(2 * time.Minute)
	g.do(t, http.MethodGet, "/api/products", "")
	assert.Equal(t, 2, g.callsTo("GET /products/all"))
}

func TestCatalog_FilterChangeRefetches(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /products/all", http.StatusOK, productsFixture)

	g.do(t, http.MethodGet, "/api/products", "")
	g.do(t, http.MethodGet, "/api/products?category=2&subCategory=7", "")

	calls := g.api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "category=2&subCategory=7", calls[1].Query)
}

func TestCatalog_SearchIsLocal(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /products/all", http.StatusOK, productsFixture)

	list := decodeBody[listResponse[domain.Product]](t, g.do(t, http.MethodGet, "/api/products?q=denim", ""))

	require.Equal(t, 1, list.Count)
	assert.Equal(t, "p2", list.Items[0].ID)
	assert.Equal(t, 1, g.api.CallCount())
}

func TestCatalog_InvalidFilter(t *testing.T) {
	g := newGateway(t)

	w := g.do(t, http.MethodGet, "/api/products?category=abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, g.api.CallCount())
}

func TestCatalog_UpstreamFailure(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /products/all", http.StatusInternalServerError, `{"message":"database unavailable"}`)

	w := g.do(t, http.MethodGet, "/api/products", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "database unavailable", g.store.Products.Error("list"))
}

func TestCatalog_ProductDetail(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /products/p9", http.StatusOK, `{"data":{"title":"Scarf","price":12}}`)

	w := g.do(t, http.MethodGet, "/api/products/p9", "")

	require.Equal(t, http.StatusOK, w.Code)
	product := decodeBody[domain.Product](t, w)
	assert.Equal(t, "p9", product.ID)
	assert.Equal(t, []string{"/placeholder.svg"}, product.Images)

	w = g.do(t, http.MethodGet, "/api/products/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalog_Subcategories(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /subcategories/all", http.StatusOK, `[
		{"id":1,"name":"Shirts","category":{"id":2,"name":"Men"}},
		{"id":2,"name":"Dresses","categoryId":3},
		{"id":3,"name":"Polo","categoryId":2}
	]`)

	list := decodeBody[listResponse[domain.Subcategory]](t, g.do(t, http.MethodGet, "/api/subcategories?categoryId=2", ""))
	require.Equal(t, 2, list.Count)

	list = decodeBody[listResponse[domain.Subcategory]](t, g.do(t, http.MethodGet, "/api/subcategories?q=men", ""))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Shirts", list.Items[0].Name)

	assert.Equal(t, 1, g.callsTo("GET /subcategories/all"))
}

func TestCatalog_Categories(t *testing.T) {
	g := newGateway(t)
	g.api.Reply("GET /categories/all", http.StatusOK, `{"data":[{"id":1,"name":"Men"},{"id":2,"name":"Women"}]}`)

	list := decodeBody[listResponse[domain.Category]](t, g.do(t, http.MethodGet, "/api/categories", ""))

	assert.Equal(t, 2, list.Count)
	require.NotNil(t, list.LastFetched)
	assert.True(t, list.LastFetched.Equal(testNow))
}
