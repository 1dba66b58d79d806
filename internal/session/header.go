package session

import (
	"context"
	"sync"

	"github.com/letsgobuy/storefront/pkg/model"
)

// Brand is the header title.
const Brand = "LET'S GO_BUY"

// Link is one navigation entry.
type Link struct {
	Name   string `json:"name"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

// NavLinks are the main navigation entries in display order.
var NavLinks = []Link{
	{Name: "Home", Href: "/"},
	{Name: "Fornecedor", Href: "/fornecedor"},
	{Name: "Produtos", Href: "/produtos"},
	{Name: "Bancas", Href: "/bancas"},
}

// HeaderView is the derived header rendering.
type HeaderView struct {
	Brand    string `json:"brand"`
	Links    []Link `json:"links"`
	LoggedIn bool   `json:"logged_in"`
	UserName string `json:"user_name,omitempty"`
	// Actions are the account links: Profile and Logout, or Login.
	Actions []Link `json:"actions"`
}

// Header derives its view from the session store and stays in sync through a subscription.
type Header struct {
	store *Store
	unsub func()

	mu   sync.RWMutex
	path string
	user *model.User
}

// NewHeader reads the current value and subscribes to changes.
func NewHeader(s *Store, path string) *Header {
	h := &Header{store: s, path: path}
	if u, ok := s.Current(); ok {
		h.user = &u
	}
	h.unsub = s.Subscribe(func(u *model.User) {
		h.mu.Lock()
		h.user = u
		h.mu.Unlock()
	})
	return h
}

// Navigate changes the active path and re-reads the stored value.
func (h *Header) Navigate(path string) {
	var cur *model.User
	if u, ok := h.store.Current(); ok {
		cur = &u
	}
	h.mu.Lock()
	h.path = path
	h.user = cur
	h.mu.Unlock()
}

// Logout clears the session through the store.
func (h *Header) Logout(ctx context.Context) error {
	return h.store.Logout(ctx)
}

// View derives the header rendering.
func (h *Header) View() HeaderView {
	h.mu.RLock()
	defer h.mu.RUnlock()

	v := HeaderView{Brand: Brand, Links: make([]Link, len(NavLinks))}
	for i, l := range NavLinks {
		l.Active = l.Href == h.path
		v.Links[i] = l
	}
	if h.user != nil {
		v.LoggedIn = true
		v.UserName = h.user.Name
		v.Actions = []Link{{Name: "Perfil", Href: "/perfil"}, {Name: "Sair", Href: "/logout"}}
	} else {
		v.Actions = []Link{{Name: "Login", Href: "/login"}}
	}
	return v
}

// Close stops following the store.
func (h *Header) Close() { h.unsub() }
