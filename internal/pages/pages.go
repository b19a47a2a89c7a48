// Package pages renders the admin shell's page components.
package pages

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sync"

	"golang.org/x/text/language"

	"github.com/R3E-Network/miniapp_admin/internal/metrics"
	"github.com/R3E-Network/miniapp_admin/internal/webapp"
	"github.com/R3E-Network/miniapp_admin/pkg/admin"
)

//go:embed templates/*.html
var templateFS embed.FS

// AddProductButtonText is the main button label on the add-product page.
const AddProductButtonText = "Add product"

// DefaultTheme is used for every color the host does not supply, and for the whole theme
// when the page is rendered without a host.
var DefaultTheme = webapp.ThemeParams{
	BgColor:         "#ffffff",
	TextColor:       "#000000",
	HintColor:       "#999999",
	LinkColor:       "#2481cc",
	ButtonColor:     "#2481cc",
	ButtonTextColor: "#ffffff",
}

// Request carries what a page needs to render.
type Request struct {
	// Params holds path parameters by name, as matched. Values are not coerced.
	Params map[string]string
	// Host is the mini-app host the page runs in, or nil outside one.
	Host webapp.Host
	// Submission is a posted add-product form, nil on a plain page load.
	Submission *Submission
}

// Submission is an add-product form together with its validation problems.
type Submission struct {
	Form     admin.ProductForm
	Problems map[string]string
}

// Submit validates form.
func Submit(form admin.ProductForm) *Submission {
	return &Submission{Form: form, Problems: form.Validate()}
}

// Valid reports whether the form had no problems.
func (s *Submission) Valid() bool {
	return len(s.Problems) == 0
}

// Component is a page-level UI component.
type Component interface {
	Name() string
	Render(ctx context.Context, w io.Writer, req Request) error
}

// Set holds one instance of every page component.
type Set struct {
	Home              Component
	ProductList       Component
	ProductAdd        Component
	Categories        Component
	AdminOrders       Component
	AdminOrdersSingle Component
}

// NewSet builds the page components. theme supplies fallback colors; zero fields fall back
// to DefaultTheme.
func NewSet(theme webapp.ThemeParams) Set {
	theme = theme.WithDefaults(DefaultTheme)
	return Set{
		Home:        newPage("HomePage", "Admin", "home.html", theme, hideButton, nil),
		ProductList: newPage("ProductList", "Products", "products.html", theme, hideButton, nil),
		ProductAdd:  newProductAdd(theme),
		Categories:  newPage("Categories", "Categories", "categories.html", theme, hideButton, nil),
		AdminOrders: newPage("AdminOrders", "Orders", "orders.html", theme, hideButton, nil),
		AdminOrdersSingle: newPage("AdminOrdersSingle", "Order", "order.html", theme, hideButton, func(req Request, v *view) {
			v.OrderID = req.Params["id"]
		}),
	}
}

// All returns the components in display order.
func (s Set) All() []Component {
	return []Component{s.Home, s.ProductList, s.ProductAdd, s.Categories, s.AdminOrders, s.AdminOrdersSingle}
}

func hideButton(h webapp.Host) {
	h.MainButton().Hide()
}

// view is the data every template receives.
type view struct {
	Page   string
	Title  string
	Lang   string
	Scheme webapp.ColorScheme
	Theme  webapp.ThemeParams
	User   *webapp.User

	Products   []admin.Product
	Categories []admin.Category
	Orders     []admin.Order
	Order      *admin.Order
	OrderID    string
	Form       admin.ProductForm
	Problems   map[string]string
	Accepted   bool
}

type page struct {
	name   string
	title  string
	tmpl   *template.Template
	theme  webapp.ThemeParams
	button func(webapp.Host)
	fill   func(Request, *view)
}

func newPage(name, title, file string, theme webapp.ThemeParams, button func(webapp.Host), fill func(Request, *view)) *page {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+file))
	return &page{name: name, title: title, tmpl: tmpl, theme: theme, button: button, fill: fill}
}

func (p *page) Name() string {
	return p.name
}

// Render writes the page. With a host present the page takes its colors from the host
// theme, configures the main button and signals Ready once the markup has been written.
func (p *page) Render(ctx context.Context, w io.Writer, req Request) (err error) {
	defer func() { metrics.RecordPageRender(p.name, err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	v := view{
		Page:   p.name,
		Title:  p.title,
		Lang:   "en",
		Scheme: webapp.ColorSchemeLight,
		Theme:  p.theme,
	}
	if req.Host != nil {
		v.Scheme = req.Host.ColorScheme()
		v.Theme = req.Host.ThemeParams().WithDefaults(p.theme)
		if user := req.Host.InitDataUnsafe().User; user != nil {
			v.User = user
			if tag := user.LanguageCode.Tag(); tag != language.Und {
				v.Lang = tag.String()
			}
		}
	}
	if p.fill != nil {
		p.fill(req, &v)
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("render %s: %w", p.name, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", p.name, err)
	}

	if req.Host != nil {
		p.button(req.Host)
		req.Host.Ready()
	}
	return nil
}

// productAdd is the add-product form. In a host, clicking the main button submits the form
// as last rendered; the outcome is shown on the next render.
type productAdd struct {
	*page

	mu    sync.Mutex
	host  webapp.Host
	sub   webapp.Subscription
	draft admin.ProductForm
	last  *Submission
}

func newProductAdd(theme webapp.ThemeParams) *productAdd {
	p := &productAdd{}
	p.page = newPage("ProductAdd", "Add product", "product_add.html", theme, p.configureButton, p.fill)
	return p
}

func (p *productAdd) fill(req Request, v *view) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub := req.Submission
	if sub == nil {
		sub, p.last = p.last, nil
	}
	v.Form = admin.ProductForm{}
	if sub != nil {
		v.Problems = sub.Problems
		v.Accepted = sub.Valid()
		if !v.Accepted {
			v.Form = sub.Form
		}
	}
	p.draft = v.Form
}

func (p *productAdd) configureButton(h webapp.Host) {
	b := h.MainButton()
	b.SetParams(webapp.ButtonParams{Text: webapp.String(AddProductButtonText)})
	b.Show()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.host != nil {
		p.host.Off(p.sub)
	}
	p.host = h
	p.sub = h.OnMainButtonClicked(p.submit)
}

func (p *productAdd) submit() {
	p.mu.Lock()
	host, form := p.host, p.draft
	p.mu.Unlock()
	if host == nil {
		return
	}

	b := host.MainButton()
	b.ShowProgress(false)
	sub := Submit(form)
	p.mu.Lock()
	p.last = sub
	p.mu.Unlock()
	b.HideProgress()
}
