// Package router declares the admin shell's route table.
package router

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/miniapp_admin/internal/pages"
)

// Route names.
const (
	Home         = "home"
	Products     = "products"
	ProductsAdd  = "products.add"
	Categories   = "categories"
	Orders       = "orders"
	OrdersSingle = "orders.single"
	OrderIDParam = "id"
)

// Route maps a path template to the component rendered for it.
type Route struct {
	Name      string
	Path      string
	Component pages.Component
	// Methods are the HTTP methods Mount accepts. Every route takes GET and HEAD.
	Methods []string
}

// Match is the result of resolving a path.
type Match struct {
	Route  Route
	Params map[string]string
}

// RenderFunc renders a matched route for an HTTP request.
type RenderFunc func(w http.ResponseWriter, r *http.Request, m Match)

// Table is the fixed set of routes. It is not modified after NewTable returns and is safe
// for concurrent use.
type Table struct {
	routes []Route
	byName map[string]Route
	mux    *mux.Router
}

// NewTable declares the admin routes for set.
func NewTable(set pages.Set) *Table {
	read := []string{http.MethodGet, http.MethodHead}
	form := []string{http.MethodGet, http.MethodHead, http.MethodPost}
	routes := []Route{
		{Name: Home, Path: "/", Component: set.Home, Methods: read},
		{Name: Products, Path: "/admin/products", Component: set.ProductList, Methods: read},
		{Name: ProductsAdd, Path: "/admin/products/add", Component: set.ProductAdd, Methods: form},
		{Name: Categories, Path: "/admin/categories", Component: set.Categories, Methods: read},
		{Name: Orders, Path: "/admin/orders", Component: set.AdminOrders, Methods: read},
		{Name: OrdersSingle, Path: "/admin/orders/{" + OrderIDParam + "}", Component: set.AdminOrdersSingle, Methods: read},
	}

	t := &Table{
		routes: routes,
		byName: make(map[string]Route, len(routes)),
		mux:    mux.NewRouter(),
	}
	for _, route := range routes {
		t.byName[route.Name] = route
		t.mux.Path(route.Path).Name(route.Name)
	}
	return t
}

// Resolve returns the route declared for path. Path parameters are returned as matched.
func (t *Table) Resolve(path string) (Match, bool) {
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: path}}

	var rm mux.RouteMatch
	if !t.mux.Match(req, &rm) || rm.MatchErr != nil || rm.Route == nil {
		return Match{}, false
	}
	route, ok := t.byName[rm.Route.GetName()]
	if !ok {
		return Match{}, false
	}
	params := make(map[string]string, len(rm.Vars))
	for k, v := range rm.Vars {
		params[k] = v
	}
	return Match{Route: route, Params: params}, true
}

// Routes returns the declared routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	for i := range out {
		out[i].Methods = append([]string(nil), out[i].Methods...)
	}
	return out
}

// Route looks a route up by name.
func (t *Table) Route(name string) (Route, bool) {
	route, ok := t.byName[name]
	return route, ok
}

// Mount registers every route on r for its methods. Unmatched paths fall through to r's
// not-found handler.
func (t *Table) Mount(r *mux.Router, render RenderFunc) {
	for _, route := range t.routes {
		route := route
		r.HandleFunc(route.Path, func(w http.ResponseWriter, req *http.Request) {
			params := make(map[string]string)
			for k, v := range mux.Vars(req) {
				params[k] = v
			}
			render(w, req, Match{Route: route, Params: params})
		}).Methods(route.Methods...).Name(route.Name)
	}
}
