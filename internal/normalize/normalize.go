// Package normalize maps Monocart API payloads onto the client-side domain
// shapes. Every function is pure: no network access, no panics on missing or
// mistyped fields. Field precedence is declared once in the candidate lists
// below and tried in order.
package normalize

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"monocart/internal/domain"
)

// DefaultPlaceholder is the image used when a product carries no usable image reference
const DefaultPlaceholder = "/placeholder.svg"

var (
	absoluteURL = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	dataURI     = regexp.MustCompile(`(?i)^data:`)
)

var (
	imageCandidates = []extractor{key("url"), key("imageUrl"), key("path"), key("src")}

	productIDCandidates          = []extractor{scalar("id"), scalar("_id")}
	productTitleCandidates       = []extractor{key("title"), key("name")}
	productStockCandidates       = []extractor{key("stock"), key("quantity")}
	productImagesCandidates      = []extractor{key("images"), key("productImages")}
	productSingleImageCandidates = []extractor{key("image"), key("imageUrl"), key("image_url"), key("thumbnail")}

	categoryIDCandidates = []extractor{
		key("categoryId"), key("category_id"), path("category", "id"), scalar("category"),
	}
	subcategoryIDCandidates = []extractor{
		key("subCategoryId"), key("subcategoryId"), key("sub_category_id"),
		path("subCategory", "id"), path("subcategory", "id"),
		scalar("subCategory"), scalar("subcategory"),
	}

	orderUserCandidates    = []extractor{key("userId"), key("user_id"), path("user", "id")}
	orderTotalCandidates   = []extractor{key("totalAmount"), key("total_amount"), key("total")}
	orderCreatedCandidates = []extractor{key("createdAt"), key("created_at"), key("orderDate")}
	orderItemsCandidates   = []extractor{key("order_items"), key("orderItems"), key("items")}

	itemProductIDCandidates = []extractor{key("productId"), key("product_id"), path("product", "id")}
	itemTitleCandidates     = []extractor{path("product", "title"), path("product", "name"), key("title"), key("name")}
	itemPriceCandidates     = []extractor{key("unitPrice"), key("unit_price"), key("price"), path("product", "price")}

	tokenCandidates = []extractor{key("token"), key("accessToken"), key("access_token"), path("data", "token")}
)

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Normalizer carries the configuration image resolution depends on
type Normalizer struct {
	imageRoot   string
	scheme      string
	placeholder string
}

// New creates a Normalizer resolving relative image paths against an absolute imageRoot
func New(imageRoot string) (*Normalizer, error) {
	u, err := url.Parse(imageRoot)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("image root must be an absolute URL, got %q", imageRoot)
	}

	n := &Normalizer{imageRoot: strings.TrimRight(imageRoot, "/"), scheme: u.Scheme}
	n.placeholder = n.join(DefaultPlaceholder)
	return n, nil
}

// Placeholder returns the resolved placeholder image URL
func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

// ResolveImage turns a raw image reference into an absolute URL.
// Protocol-relative references take the image root's scheme; data URIs are kept.
func (n *Normalizer) ResolveImage(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return n.placeholder
	case absoluteURL.MatchString(raw), dataURI.MatchString(raw):
		return raw
	case strings.HasPrefix(raw, "//") && len(raw) > 2 && raw[2] != '/':
		return n.scheme + ":" + raw
	}
	return n.join(raw)
}

func (n *Normalizer) join(p string) string {
	return n.imageRoot + "/" + strings.TrimLeft(p, "/")
}

// Products normalizes a product list payload. Entries without an id are dropped.
func (n *Normalizer) Products(raw json.RawMessage) []domain.Product {
	var out []domain.Product
	for _, obj := range objects(listOf(raw)) {
		p := n.product(obj, "")
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Product normalizes a single product payload; fallbackID is used when the payload omits the id
func (n *Normalizer) Product(raw json.RawMessage, fallbackID string) (domain.Product, bool) {
	obj := objectOf(raw)
	if obj == nil {
		return domain.Product{}, false
	}
	p := n.product(obj, fallbackID)
	return p, p.ID != ""
}

func (n *Normalizer) product(obj object, fallbackID string) domain.Product {
	id := strOr(obj, fallbackID, productIDCandidates...)

	return domain.Product{
		ID:            id,
		Title:         strOr(obj, "Untitled", productTitleCandidates...),
		Slug:          strOr(obj, id, key("slug")),
		Brand:         str(obj, key("brand")),
		Price:         num(obj, key("price")),
		Stock:         integer(obj, productStockCandidates...),
		Description:   str(obj, key("description")),
		Images:        n.images(obj),
		CategoryID:    optionalID(obj, categoryIDCandidates...),
		SubcategoryID: optionalID(obj, subcategoryIDCandidates...),
	}
}

func (n *Normalizer) images(obj object) []string {
	images := []string{}

	v, ok := first(obj, productImagesCandidates)
	if ok {
		switch list := v.(type) {
		case []interface{}:
			for _, item := range list {
				images = append(images, n.ResolveImage(imageRef(item)))
			}
		case string:
			images = append(images, n.ResolveImage(list))
		}
	}

	if len(images) == 0 {
		if single := str(obj, productSingleImageCandidates...); single != "" {
			images = append(images, n.ResolveImage(single))
		}
	}

	return images
}

func imageRef(item interface{}) string {
	switch v := item.(type) {
	case string:
		return v
	case object:
		return str(v, imageCandidates...)
	}
	return ""
}

// Categories normalizes a category list payload
func Categories(raw json.RawMessage) []domain.Category {
	var out []domain.Category
	for _, obj := range objects(listOf(raw)) {
		if c, ok := category(obj); ok {
			out = append(out, c)
		}
	}
	return out
}

// Category normalizes a single category payload, reporting false when it has no usable id
func Category(raw json.RawMessage) (domain.Category, bool) {
	return category(objectOf(raw))
}

func category(obj object) (domain.Category, bool) {
	id, ok := requiredID(obj, key("id"))
	if !ok {
		return domain.Category{}, false
	}
	return domain.Category{
		ID:   id,
		Name: str(obj, key("name"), key("title")),
		Slug: str(obj, key("slug")),
	}, true
}

// Subcategories normalizes a subcategory list payload
func Subcategories(raw json.RawMessage) []domain.Subcategory {
	var out []domain.Subcategory
	for _, obj := range objects(listOf(raw)) {
		if s, ok := subcategory(obj); ok {
			out = append(out, s)
		}
	}
	return out
}

// Subcategory normalizes a single subcategory payload
func Subcategory(raw json.RawMessage) (domain.Subcategory, bool) {
	return subcategory(objectOf(raw))
}

func subcategory(obj object) (domain.Subcategory, bool) {
	id, ok := requiredID(obj, key("id"))
	if !ok {
		return domain.Subcategory{}, false
	}

	s := domain.Subcategory{
		ID:   id,
		Name: str(obj, key("name"), key("title")),
		Slug: str(obj, key("slug")),
	}
	if categoryID := optionalID(obj, categoryIDCandidates...); categoryID != nil {
		s.CategoryID = *categoryID
	}
	if parent, ok := obj["category"].(object); ok {
		s.Category = &domain.CategoryRef{
			Name: str(parent, key("name"), key("title")),
			Slug: str(parent, key("slug")),
		}
	}
	return s, true
}

// Orders normalizes an order list payload
func (n *Normalizer) Orders(raw json.RawMessage) []domain.Order {
	var out []domain.Order
	for _, obj := range objects(listOf(raw)) {
		o := n.order(obj)
		if o.ID == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Order normalizes a single order payload
func (n *Normalizer) Order(raw json.RawMessage) (domain.Order, bool) {
	obj := objectOf(raw)
	if obj == nil {
		return domain.Order{}, false
	}
	o := n.order(obj)
	return o, o.ID != ""
}

func (n *Normalizer) order(obj object) domain.Order {
	o := domain.Order{
		ID:          str(obj, scalar("id"), scalar("_id")),
		UserID:      str(obj, orderUserCandidates...),
		Status:      domain.ParseOrderStatus(str(obj, key("status"))),
		TotalAmount: num(obj, orderTotalCandidates...),
		CreatedAt:   parseTime(str(obj, orderCreatedCandidates...)),
		Items:       []domain.OrderItem{},
	}

	if v, ok := first(obj, orderItemsCandidates); ok {
		if list, ok := v.([]interface{}); ok {
			for _, item := range objects(list) {
				o.Items = append(o.Items, n.orderItem(item))
			}
		}
	}

	return o
}

func (n *Normalizer) orderItem(obj object) domain.OrderItem {
	item := domain.OrderItem{
		ProductID: str(obj, itemProductIDCandidates...),
		Title:     strOr(obj, "Untitled", itemTitleCandidates...),
		Quantity:  integer(obj, key("quantity"), key("qty")),
		UnitPrice: num(obj, itemPriceCandidates...),
	}
	if product, ok := obj["product"].(object); ok {
		if images := n.images(product); len(images) > 0 {
			item.Image = images[0]
		}
	}
	if item.Image == "" {
		item.Image = n.ResolveImage(str(obj, key("image")))
	}
	return item
}

func parseTime(raw string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Users normalizes a user list payload
func Users(raw json.RawMessage) []domain.User {
	var out []domain.User
	for _, obj := range objects(listOf(raw)) {
		u := user(obj)
		if u.ID == "" {
			continue
		}
		out = append(out, u)
	}
	return out
}

func user(obj object) domain.User {
	return domain.User{
		ID:    str(obj, scalar("id"), scalar("_id")),
		Name:  str(obj, key("name"), key("fullName")),
		Email: str(obj, key("email")),
		Phone: str(obj, key("phone"), key("phoneNumber")),
		Role:  domain.ParseRole(str(obj, key("role"))),
	}
}

// LoginPayload is the normalized body of a login response. Fields may be empty
// when the server omits them; callers decide whether that is acceptable.
type LoginPayload struct {
	Token string
	User  domain.User
}

// Login normalizes a login response
func Login(raw json.RawMessage) LoginPayload {
	obj, _ := decode(raw).(object)

	var userObj object
	if v, ok := first(obj, []extractor{key("user"), path("data", "user")}); ok {
		userObj, _ = v.(object)
	}

	return LoginPayload{
		Token: str(obj, tokenCandidates...),
		User:  user(userObj),
	}
}

// Favorites normalizes a favorites payload. Entries may be bare products or
// wrappers carrying the product under "product".
func (n *Normalizer) Favorites(raw json.RawMessage) []domain.FavoriteItem {
	var out []domain.FavoriteItem
	for _, obj := range objects(listOf(raw)) {
		if inner, ok := obj["product"].(object); ok {
			if _, hasID := first(inner, productIDCandidates); !hasID {
				inner["id"] = str(obj, key("productId"), key("product_id"))
			}
			obj = inner
		}
		p := n.product(obj, "")
		if p.ID == "" {
			continue
		}
		out = append(out, FavoriteFromProduct(p))
	}
	return out
}

// FavoriteFromProduct snapshots a product for the favorites list
func FavoriteFromProduct(p domain.Product) domain.FavoriteItem {
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return domain.FavoriteItem{
		ProductID: p.ID,
		Name:      p.Title,
		Brand:     p.Brand,
		Price:     p.Price,
		Image:     image,
		Stock:     p.Stock,
	}
}
