package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mielpino/storefront/internal/domain/order"
	"github.com/mielpino/storefront/internal/domain/product"
	"github.com/mielpino/storefront/internal/domain/recipe"
	"github.com/mielpino/storefront/internal/event"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []product.Product
	byID     map[int64]*product.Product
	listErr  error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return m.products, m.listErr
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockInventory struct {
	mu    sync.Mutex
	stock map[int64]decimal.Decimal
}

func (m *mockInventory) ConditionalDecrement(_ context.Context, id int64, amount decimal.Decimal) (bool, decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.stock[id]
	if cur.LessThan(amount) {
		return false, cur, nil
	}
	m.stock[id] = cur.Sub(amount)
	return true, m.stock[id], nil
}

func (m *mockInventory) Increment(_ context.Context, id int64, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[id] = m.stock[id].Add(amount)
	return nil
}

type mockLedger struct {
	mu        sync.Mutex
	orders    map[string]*order.Order
	insertErr error
	pending   int
}

func (m *mockLedger) InsertWithItems(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return m.insertErr
	}
	if m.orders == nil {
		m.orders = make(map[string]*order.Order)
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockLedger) GetByID(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockLedger) CountPendingBefore(_ context.Context, _ time.Time) (int, error) {
	return m.pending, nil
}

type mockRecipeRepo struct {
	recipes []recipe.Recipe
}

func (m *mockRecipeRepo) List(_ context.Context) ([]recipe.Recipe, error) {
	return m.recipes, nil
}

func (m *mockRecipeRepo) ListByType(_ context.Context, productType string) ([]recipe.Recipe, error) {
	var out []recipe.Recipe
	for _, rc := range m.recipes {
		if rc.ProductType == productType {
			out = append(out, rc)
		}
	}
	return out, nil
}

func (m *mockRecipeRepo) GetByID(_ context.Context, id int64) (*recipe.Recipe, error) {
	for i := range m.recipes {
		if m.recipes[i].ID == id {
			return &m.recipes[i], nil
		}
	}
	return nil, recipe.ErrNotFound
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderCommitted(context.Context, event.OrderCommitted) error {
	return nil
}

// --- Helpers ---

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	router *chi.Mux
	ledger *mockLedger
}

func newFixture(t *testing.T, products []product.Product, recipes []recipe.Recipe) *fixture {
	return newFixtureWithConfig(t, Config{}, products, recipes)
}

func newFixtureWithConfig(t *testing.T, cfg Config, products []product.Product, recipes []recipe.Recipe) *fixture {
	t.Helper()

	byID := make(map[int64]*product.Product, len(products))
	stock := make(map[int64]decimal.Decimal, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
		stock[products[i].ID] = products[i].Stock
	}

	repo := &mockProductRepo{products: products, byID: byID}
	ledger := &mockLedger{}
	svc := order.NewService(repo, &mockInventory{stock: stock}, ledger, nopPublisher{}, zap.NewNop())

	router := chi.NewRouter()
	New(cfg, svc, repo, &mockRecipeRepo{recipes: recipes}).Register(router)
	return &fixture{router: router, ledger: ledger}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func testProducts() []product.Product {
	return []product.Product{
		{
			ID:      1,
			Name:    "Miele Millefiori",
			Price:   d("14.50"),
			Stock:   d("10"),
			SizesKg: []decimal.Decimal{d("0.5"), d("1")},
			Display: product.Display{BgColor: "#f6d26b"},
		},
		{
			ID:      2,
			Name:    "Salame Nostrano",
			Price:   d("22.00"),
			Stock:   d("0.5"),
			SizesKg: []decimal.Decimal{d("0.5"), d("1")},
		},
	}
}

const validOrderBody = `{
	"items": [{"productId": 1, "quantity": 2, "sizeKg": "0.5"}],
	"checkoutInfo": {
		"email": "ada@example.com",
		"firstName": "Ada",
		"lastName": "Rossi",
		"address": "Via dei Pini 4",
		"city": "Siena",
		"postalCode": "53100"
	}
}`

// --- Tests ---

func TestListProducts(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodGet, "/api/product", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]productResponse](t, rec)
	require.Len(t, resp, 2)
	assert.Equal(t, int64(1), resp[0].ID)
	assert.Equal(t, "Miele Millefiori", resp[0].Name)
	assert.Equal(t, "#f6d26b", resp[0].BgColor)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodGet, "/api/product/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[productResponse](t, rec)
	assert.Equal(t, "Salame Nostrano", resp.Name)

	rec = f.do(t, http.MethodGet, "/api/product/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/product/honey", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageBaseURLPrefixed(t *testing.T) {
	products := testProducts()
	products[0].ImageURL = "/images/millefiori.jpg"
	products[1].ImageURL = "https://static.example.com/salame.jpg"
	recipes := []recipe.Recipe{
		{ID: 1, Name: "Crostini with Honey and Pecorino", ImageURL: "/images/crostini.jpg", ProductType: "honey"},
	}
	f := newFixtureWithConfig(t, Config{ImageBaseURL: "https://cdn.mielpino.example"}, products, recipes)

	rec := f.do(t, http.MethodGet, "/api/product/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.mielpino.example/images/millefiori.jpg", decode[productResponse](t, rec).ImageURL)

	// Absolute URLs are returned as stored.
	rec = f.do(t, http.MethodGet, "/api/product/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://static.example.com/salame.jpg", decode[productResponse](t, rec).ImageURL)

	rec = f.do(t, http.MethodGet, "/api/recipe/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://cdn.mielpino.example/images/crostini.jpg", decode[recipeResponse](t, rec).ImageURL)
}

func TestSubmitOrder(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodPost, "/api/order", validOrderBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[orderResponse](t, rec)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.True(t, d("14.50").Equal(resp.Total), "total was %s", resp.Total)
	require.Len(t, resp.Items, 1)
	assert.True(t, d("14.50").Equal(resp.Items[0].PriceAtPurchase))
}

func TestSubmitOrder_InvalidBody(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodPost, "/api/order", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrder_MissingCheckoutFields(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodPost, "/api/order", `{
		"items": [{"productId": 1, "quantity": 1, "sizeKg": "1"}],
		"checkoutInfo": {"email": "ada@example.com"}
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Contains(t, resp.Message, "firstName")
	assert.Contains(t, resp.Message, "postalCode")
}

func TestSubmitOrder_EmptyCart(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodPost, "/api/order", `{
		"items": [],
		"checkoutInfo": {
			"email": "ada@example.com", "firstName": "Ada", "lastName": "Rossi",
			"address": "Via dei Pini 4", "city": "Siena", "postalCode": "53100"
		}
	}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodPost, "/api/order", `{
		"items": [{"productId": 99, "quantity": 1, "sizeKg": "1"}],
		"checkoutInfo": {
			"email": "ada@example.com", "firstName": "Ada", "lastName": "Rossi",
			"address": "Via dei Pini 4", "city": "Siena", "postalCode": "53100"
		}
	}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	// Product 2 has only 0.5 kg in stock.
	rec := f.do(t, http.MethodPost, "/api/order", `{
		"items": [{"productId": 2, "quantity": 2, "sizeKg": "1"}],
		"checkoutInfo": {
			"email": "ada@example.com", "firstName": "Ada", "lastName": "Rossi",
			"address": "Via dei Pini 4", "city": "Siena", "postalCode": "53100"
		}
	}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Code    int              `json:"code"`
		Message string           `json:"message"`
		Details []shortageDetail `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, int64(2), resp.Details[0].ProductID)
	assert.Equal(t, "2", resp.Details[0].Required)
	assert.Equal(t, "0.5", resp.Details[0].Available)
}

func TestSubmitOrder_LedgerFailure(t *testing.T) {
	f := newFixture(t, testProducts(), nil)
	f.ledger.insertErr = errors.New("connection reset")

	rec := f.do(t, http.MethodPost, "/api/order", validOrderBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetOrderAndQueuePosition(t *testing.T) {
	f := newFixture(t, testProducts(), nil)
	f.ledger.pending = 2

	rec := f.do(t, http.MethodPost, "/api/order", validOrderBody)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[orderResponse](t, rec)

	rec = f.do(t, http.MethodGet, "/api/order/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[orderResponse](t, rec)
	assert.Equal(t, created.ID, got.ID)

	rec = f.do(t, http.MethodGet, "/api/order/"+created.ID+"/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[queuePositionResponse](t, rec)
	assert.Equal(t, 3, queue.Position)

	rec = f.do(t, http.MethodGet, "/api/order/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueuePosition_UnknownOrderDefaultsToOne(t *testing.T) {
	f := newFixture(t, testProducts(), nil)

	rec := f.do(t, http.MethodGet, "/api/order/missing/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	queue := decode[queuePositionResponse](t, rec)
	assert.Equal(t, 1, queue.Position)
}

func TestRecipes(t *testing.T) {
	recipes := []recipe.Recipe{
		{ID: 1, Name: "Crostini with Honey and Pecorino", ProductType: "honey"},
		{ID: 2, Name: "Salami and Fig Board", ProductType: "sausage"},
	}
	f := newFixture(t, nil, recipes)

	rec := f.do(t, http.MethodGet, "/api/recipe", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]recipeResponse](t, rec), 2)

	rec = f.do(t, http.MethodGet, "/api/recipe?type=honey", "")
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[[]recipeResponse](t, rec)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Crostini with Honey and Pecorino", filtered[0].Name)

	rec = f.do(t, http.MethodGet, "/api/recipe/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Salami and Fig Board", decode[recipeResponse](t, rec).Name)

	rec = f.do(t, http.MethodGet, "/api/recipe/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
