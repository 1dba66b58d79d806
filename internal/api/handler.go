package api

import (
	"errors"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/letsgobuy/storefront/internal/feira"
	"github.com/letsgobuy/storefront/internal/form"
	"github.com/letsgobuy/storefront/internal/geo"
	"github.com/letsgobuy/storefront/internal/listview"
	"github.com/letsgobuy/storefront/internal/render"
	"github.com/letsgobuy/storefront/internal/session"
	"github.com/letsgobuy/storefront/pkg/model"
)

// Views are the list view models served by the preview API.
type Views struct {
	Stalls    *listview.StallList
	Products  *listview.ProductList
	Suppliers *listview.SupplierList
	Search    *listview.SearchView
}

// Handler exposes the storefront view models over HTTP.
type Handler struct {
	logger    *zap.Logger
	views     Views
	submitter form.Submitter
	sessions  *session.Store
	origin    geo.Point

	// query parameters are applied to the shared views, so reads are serialised
	mu sync.Mutex
}

func NewHandler(logger *zap.Logger, views Views, submitter form.Submitter, sessions *session.Store, origin geo.Point) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		logger:    logger,
		views:     views,
		submitter: submitter,
		sessions:  sessions,
		origin:    origin,
	}
}

// ListResponse is the JSON form of a list snapshot.
type ListResponse[T any] struct {
	View    string `json:"view"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Items   []T    `json:"items"`
	Message string `json:"message,omitempty"`
}

func listResponse[T any](name string, snap listview.Snapshot[T], empty, noMatch string) ListResponse[T] {
	resp := ListResponse[T]{
		View:    name,
		Loading: snap.Loading,
		Total:   snap.Total,
		Count:   len(snap.Items),
		Items:   snap.Items,
	}
	if snap.Error && snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	switch {
	case snap.Empty():
		resp.Message = empty
	case len(snap.Items) == 0:
		resp.Message = noMatch
	}
	if resp.Items == nil {
		resp.Items = []T{}
	}
	return resp
}

func wantsText(c *fiber.Ctx) bool {
	return c.Query("format") == "text"
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &v, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errors.New(key + " must be a number")
	}
	return &v, nil
}

// ─── Stalls ───────────────────────────────────────────────────────────────────

func (h *Handler) applyStallQuery(c *fiber.Ctx) error {
	dist, err := queryFloat(c, "max_distance")
	if err != nil {
		return err
	}
	v := h.views.Stalls
	v.SetSearch(c.Query("q"))
	v.SetMaxDistance(dist, h.origin)
	return v.SetSort(listview.SortKey(c.Query("sort")))
}

// ListStalls handles GET /api/v1/stalls.
func (h *Handler) ListStalls(c *fiber.Ctx) error {
	h.mu.Lock()
	err := h.applyStallQuery(c)
	snap := h.views.Stalls.Snapshot()
	h.mu.Unlock()
	if err != nil {
		return badRequest(c, err)
	}
	if wantsText(c) {
		return c.SendString(render.Stalls(snap))
	}
	return c.JSON(listResponse("bancas", snap, render.NoStallsRegistered, render.NoStallsMatch))
}

// GetStall handles GET /api/v1/stalls/:id.
func (h *Handler) GetStall(c *fiber.Ctx) error {
	v := h.views.Stalls
	h.mu.Lock()
	found := v.Select(c.Params("id"))
	s, _ := v.Selected()
	v.CloseDetail()
	h.mu.Unlock()
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "stall not found"})
	}
	if wantsText(c) {
		return c.SendString(render.StallDetail(s))
	}
	return c.JSON(s)
}

// RefreshStalls handles POST /api/v1/stalls/refresh.
func (h *Handler) RefreshStalls(c *fiber.Ctx) error {
	err := h.views.Stalls.Refresh(c.UserContext())
	return h.refreshed(c, "bancas", err, func() any {
		return listResponse("bancas", h.views.Stalls.Snapshot(), render.NoStallsRegistered, render.NoStallsMatch)
	})
}

// ─── Products ─────────────────────────────────────────────────────────────────

func (h *Handler) applyProductQuery(c *fiber.Ctx) error {
	price, err := queryDecimal(c, "max_price")
	if err != nil {
		return err
	}
	v := h.views.Products
	v.SetSearch(c.Query("q"))
	v.SetMaxPrice(price)
	return v.SetSort(listview.SortKey(c.Query("sort")))
}

// ListProducts handles GET /api/v1/products.
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	h.mu.Lock()
	err := h.applyProductQuery(c)
	snap := h.views.Products.Snapshot()
	h.mu.Unlock()
	if err != nil {
		return badRequest(c, err)
	}
	if wantsText(c) {
		return c.SendString(render.Products(snap))
	}
	return c.JSON(listResponse("produtos", snap, render.NoProductsRegistered, render.NoProductsMatch))
}

// GetProduct handles GET /api/v1/products/:id.
func (h *Handler) GetProduct(c *fiber.Ctx) error {
	v := h.views.Products
	h.mu.Lock()
	found := v.Select(c.Params("id"))
	p, _ := v.Selected()
	v.CloseDetail()
	h.mu.Unlock()
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if wantsText(c) {
		return c.SendString(render.ProductDetail(p))
	}
	return c.JSON(p)
}

// RefreshProducts handles POST /api/v1/products/refresh.
func (h *Handler) RefreshProducts(c *fiber.Ctx) error {
	err := h.views.Products.Refresh(c.UserContext())
	return h.refreshed(c, "produtos", err, func() any {
		return listResponse("produtos", h.views.Products.Snapshot(), render.NoProductsRegistered, render.NoProductsMatch)
	})
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

// ListSuppliers handles GET /api/v1/suppliers.
func (h *Handler) ListSuppliers(c *fiber.Ctx) error {
	v := h.views.Suppliers
	h.mu.Lock()
	v.SetSearch(c.Query("q"))
	err := v.SetSort(listview.SortKey(c.Query("sort")))
	snap := v.Snapshot()
	h.mu.Unlock()
	if err != nil {
		return badRequest(c, err)
	}
	if wantsText(c) {
		return c.SendString(render.Suppliers(snap))
	}
	return c.JSON(listResponse("suppliers", snap, render.NoSuppliers, render.NoSuppliersMatch))
}

// RefreshSuppliers handles POST /api/v1/suppliers/refresh.
func (h *Handler) RefreshSuppliers(c *fiber.Ctx) error {
	err := h.views.Suppliers.Refresh(c.UserContext())
	return h.refreshed(c, "suppliers", err, func() any {
		return listResponse("suppliers", h.views.Suppliers.Snapshot(), render.NoSuppliers, render.NoSuppliersMatch)
	})
}

func (h *Handler) refreshed(c *fiber.Ctx, view string, err error, body func() any) error {
	switch {
	case err == nil, errors.Is(err, listview.ErrStale):
		return c.JSON(body())
	default:
		h.logger.Warn("api.refresh_failed", zap.String("view", view), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(body())
	}
}

// ─── Aggregate search ─────────────────────────────────────────────────────────

// SearchResponse is the home page result for one category.
type SearchResponse struct {
	ListResponse[listview.Hit]
	Category string `json:"category"`
}

// Search handles GET /api/v1/search. Every call fetches with the given parameters.
func (h *Handler) Search(c *fiber.Ctx) error {
	sv := h.views.Search
	price, err := queryDecimal(c, "max_price")
	if err != nil {
		return badRequest(c, err)
	}
	dist, err := queryFloat(c, "max_distance")
	if err != nil {
		return badRequest(c, err)
	}
	category := c.Query("category", listview.CategoryAll)

	h.mu.Lock()
	defer h.mu.Unlock()
	sv.SetSearch(c.Query("q"))
	sv.SetMaxPrice(price)
	sv.SetMaxDistance(dist)
	if err := sv.SetCategory(category); err != nil {
		return badRequest(c, err)
	}
	if err := sv.SetSort(listview.SortKey(c.Query("sort"))); err != nil {
		return badRequest(c, err)
	}

	refreshErr := sv.Refresh(c.UserContext())
	snap := sv.Snapshot()
	if wantsText(c) {
		return c.SendString(render.Search(snap, category))
	}
	resp := SearchResponse{
		ListResponse: listResponse("pesquisa", snap, render.NoSearchResults, render.NoSearchResults),
		Category:     category,
	}
	if refreshErr != nil && !errors.Is(refreshErr, listview.ErrStale) {
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}
	return c.JSON(resp)
}

// ─── Forms ────────────────────────────────────────────────────────────────────

// SubmitForm handles POST /api/v1/forms/:kind with a flat JSON object of field values.
func (h *Handler) SubmitForm(c *fiber.Ctx) error {
	kind, err := form.ParseKind(c.Params("kind"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	var values map[string]string
	if err := c.BodyParser(&values); err != nil {
		return badRequest(c, err)
	}

	f := form.New(h.submitter, h.logger)
	if err := f.SwitchKind(kind); err != nil {
		return badRequest(c, err)
	}
	for name, value := range values {
		if err := f.Set(name, value); err != nil {
			return badRequest(c, err)
		}
	}

	err = f.Submit(c.UserContext())
	st := f.State()
	if wantsText(c) {
		return c.Status(formStatus(err)).SendString(render.Form(st))
	}
	return c.Status(formStatus(err)).JSON(st)
}

func formStatus(err error) int {
	var ve *feira.ValidationError
	var apiErr *feira.APIError
	switch {
	case err == nil:
		return fiber.StatusCreated
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return apiErr.Status
	default:
		return fiber.StatusBadGateway
	}
}

// ─── Session ──────────────────────────────────────────────────────────────────

// SessionResponse is the current user and the derived header.
type SessionResponse struct {
	User   *model.User        `json:"user"`
	Header session.HeaderView `json:"header"`
}

// GetSession handles GET /api/v1/session.
func (h *Handler) GetSession(c *fiber.Ctx) error {
	header := session.NewHeader(h.sessions, c.Query("path", "/"))
	defer header.Close()

	var resp SessionResponse
	if u, ok := h.sessions.Current(); ok {
		resp.User = &u
	}
	resp.Header = header.View()
	if wantsText(c) {
		return c.SendString(render.Header(resp.Header))
	}
	return c.JSON(resp)
}
