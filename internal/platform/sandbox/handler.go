package sandbox

import (
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SeedHandler exposes the seeder over HTTP for sandbox environments. Runs
// are serialized: a second request waits for the first to finish.
type SeedHandler struct {
	repos   Repositories
	catalog *Catalog
	logger  zerolog.Logger
	mu      sync.Mutex
}

// NewSeedHandler returns a handler that seeds with catalog, or the built-in
// one when catalog is nil.
func NewSeedHandler(repos Repositories, catalog *Catalog, logger zerolog.Logger) *SeedHandler {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &SeedHandler{repos: repos, catalog: catalog, logger: logger}
}

// RegisterRoutes registers sandbox routes on the given Echo group.
func (h *SeedHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/seed", h.handleSeed)
	g.POST("/bootstrap", h.handleBootstrap)
	g.GET("/catalog", h.handleCatalog)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	var cfg SeedConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	cfg.Catalog = h.catalog

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := NewSeeder(h.repos, cfg, io.Discard, h.logger).Run(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("sandbox seed failed")
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   err.Error(),
			"partial": result,
		})
	}
	return c.JSON(http.StatusOK, result)
}

func (h *SeedHandler) handleBootstrap(c echo.Context) error {
	cfg := DefaultBootstrapConfig()
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := cfg.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	result, err := Bootstrap(c.Request().Context(), h.repos, cfg)
	if err != nil {
		h.logger.Error().Err(err).Msg("sandbox bootstrap failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *SeedHandler) handleCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog)
}
