// Package admin provides the view models rendered by the admin pages.
//
// The shell holds no admin data of its own; these types describe what the pages display when
// a backend supplies it, and what the product form collects.
package admin

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Product represents a catalogue entry.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Price formats the product price as "12.50 USD".
func (p Product) Price() string {
	return FormatPrice(p.PriceCents, p.Currency)
}

// Category groups products.
type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int    `json:"product_count"`
}

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderCancelled OrderStatus = "cancelled"
)

// Order represents a customer order.
type Order struct {
	ID         string      `json:"id"`
	CustomerID int64       `json:"customer_id"`
	Customer   string      `json:"customer"`
	Status     OrderStatus `json:"status"`
	Items      []OrderItem `json:"items"`
	Currency   string      `json:"currency"`
	CreatedAt  time.Time   `json:"created_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// TotalCents sums the order lines.
func (o Order) TotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += int64(item.Quantity) * item.PriceCents
	}
	return total
}

// Total formats TotalCents in the order currency.
func (o Order) Total() string {
	return FormatPrice(o.TotalCents(), o.Currency)
}

// ProductForm is the input collected by the add-product page.
type ProductForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CategoryID  string `json:"category_id"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

// Validate returns the problems with the form keyed by field name, or nil.
func (f ProductForm) Validate() map[string]string {
	problems := make(map[string]string)
	if strings.TrimSpace(f.Name) == "" {
		problems["name"] = "name is required"
	}
	if strings.TrimSpace(f.Price) == "" {
		problems["price"] = "price is required"
	} else if _, err := ParsePrice(f.Price); err != nil {
		problems["price"] = err.Error()
	}
	if f.Stock < 0 {
		problems["stock"] = "stock cannot be negative"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// ProductFormFromValues reads a submitted add-product form and validates it. The returned
// problems are keyed like Validate's, or nil when the form is acceptable.
func ProductFormFromValues(values url.Values) (ProductForm, map[string]string) {
	f := ProductForm{
		Name:        strings.TrimSpace(values.Get("name")),
		Description: strings.TrimSpace(values.Get("description")),
		CategoryID:  strings.TrimSpace(values.Get("category_id")),
		Price:       strings.TrimSpace(values.Get("price")),
	}

	badStock := false
	if raw := strings.TrimSpace(values.Get("stock")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badStock = true
		} else {
			f.Stock = n
		}
	}

	problems := f.Validate()
	if badStock {
		if problems == nil {
			problems = make(map[string]string)
		}
		problems["stock"] = "stock must be a whole number"
	}
	return f, problems
}

// FormatPrice renders cents with two decimals.
func FormatPrice(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	out := fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
	if currency != "" {
		out += " " + currency
	}
	return out
}

// ParsePrice parses "12", "12.5" or "12.50" into cents. Prices that do not fit in an int64
// number of cents are rejected.
func ParsePrice(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("invalid price %q", s)
	}

	var units int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		d := int64(r - '0')
		if units > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("price %q is too large", s)
		}
		units = units*10 + d
	}

	var cents int64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("invalid price %q", s)
			}
			cents = cents*10 + int64(r-'0')
		}
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("price %q is too large", s)
	}
	return units*100 + cents, nil
}
