package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/letsgobuy/storefront/internal/metrics"
	"github.com/letsgobuy/storefront/internal/store"
)

// RegisterRoutes wires the preview API. st may be nil when sessions live in memory.
func RegisterRoutes(app *fiber.App, st store.Store, h *Handler) {
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"store": "ok"}
		status := "ok"
		code := fiber.StatusOK

		if st == nil {
			checks["store"] = "memory"
		} else {
			healthCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := st.HealthCheck(healthCtx); err != nil {
				checks["store"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	})

	v1 := app.Group("/api/v1")
	v1.Get("/stalls", h.ListStalls)
	v1.Post("/stalls/refresh", h.RefreshStalls)
	v1.Get("/stalls/:id", h.GetStall)
	v1.Get("/products", h.ListProducts)
	v1.Post("/products/refresh", h.RefreshProducts)
	v1.Get("/products/:id", h.GetProduct)
	v1.Get("/suppliers", h.ListSuppliers)
	v1.Post("/suppliers/refresh", h.RefreshSuppliers)
	v1.Get("/search", h.Search)
	v1.Post("/forms/:kind", h.SubmitForm)
	v1.Get("/session", h.GetSession)
}
