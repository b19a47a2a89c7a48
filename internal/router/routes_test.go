package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/miniapp_admin/internal/pages"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
)

func newTestTable() (*Table, pages.Set) {
	set := pages.NewSet(webapp.ThemeParams{})
	return NewTable(set), set
}

func TestResolveDeclaredPaths(t *testing.T) {
	table, set := newTestTable()

	tests := []struct {
		path      string
		name      string
		component pages.Component
	}{
		{"/", Home, set.Home},
		{"/admin/products", Products, set.ProductList},
		{"/admin/products/add", ProductsAdd, set.ProductAdd},
		{"/admin/categories", Categories, set.Categories},
		{"/admin/orders", Orders, set.AdminOrders},
		{"/admin/orders/7", OrdersSingle, set.AdminOrdersSingle},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			m, ok := table.Resolve(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.name, m.Route.Name)
			assert.Same(t, tt.component, m.Route.Component)

			// No other route designates this component.
			for _, other := range table.Routes() {
				if other.Name != tt.name {
					assert.NotSame(t, tt.component, other.Component)
				}
			}
		})
	}
}

func TestResolveOrderIDIsString(t *testing.T) {
	table, set := newTestTable()

	m, ok := table.Resolve("/admin/orders/42")
	require.True(t, ok)
	assert.Same(t, set.AdminOrdersSingle, m.Route.Component)
	assert.Equal(t, map[string]string{"id": "42"}, m.Params)

	m, ok = table.Resolve("/admin/orders/007")
	require.True(t, ok)
	assert.Equal(t, "007", m.Params[OrderIDParam])
}

func TestResolveUndeclared(t *testing.T) {
	table, _ := newTestTable()

	for _, path := range []string{"/nonexistent", "/admin", "/admin/products/", "/admin/orders/1/items", ""} {
		_, ok := table.Resolve(path)
		assert.False(t, ok, path)
	}
}

func TestRoutesReturnsCopy(t *testing.T) {
	table, _ := newTestTable()

	routes := table.Routes()
	require.Len(t, routes, 6)
	assert.Equal(t, "/admin/orders/{id}", routes[5].Path)

	routes[0].Path = "/changed"
	assert.Equal(t, "/", table.Routes()[0].Path)

	route, ok := table.Route(ProductsAdd)
	require.True(t, ok)
	assert.Equal(t, "/admin/products/add", route.Path)
}

func TestMount(t *testing.T) {
	table, _ := newTestTable()

	var got Match
	r := mux.NewRouter()
	table.Mount(r, func(w http.ResponseWriter, req *http.Request, m Match) {
		got = m
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/orders/abc", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, OrdersSingle, got.Route.Name)
	assert.Equal(t, "abc", got.Params["id"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products/add", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, ProductsAdd, got.Route.Name)
}

func TestRouteMethods(t *testing.T) {
	table, _ := newTestTable()

	for _, route := range table.Routes() {
		assert.Subset(t, route.Methods, []string{http.MethodGet, http.MethodHead}, route.Name)
		if route.Name == ProductsAdd {
			assert.Contains(t, route.Methods, http.MethodPost)
		} else {
			assert.NotContains(t, route.Methods, http.MethodPost, route.Name)
		}
	}

	routes := table.Routes()
	routes[2].Methods[0] = http.MethodDelete
	route, _ := table.Route(ProductsAdd)
	assert.Equal(t, http.MethodGet, route.Methods[0])
}
