package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/offer-comb/app/offer"
	"github.com/lysyi3m/offer-comb/app/search"
	"github.com/lysyi3m/offer-comb/app/tasks"
	"github.com/shopspring/decimal"
)

// NewHandler wires the HTTP handlers. cache may be nil when caching is off.
func NewHandler(searchService SearchService, stats tasks.IndexStatter,
	scheduler tasks.TaskSchedulerInterface, cache CacheSizer, version string) *Handler {
	return &Handler{
		search:    searchService,
		stats:     stats,
		scheduler: scheduler,
		cache:     cache,
		version:   version,
	}
}

func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	maxPrice, ok := parseMaxPrice(c.Query("max_price"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
		return
	}

	result := h.search.Search(c.Request.Context(), search.Request{
		Query:    query,
		MaxPrice: maxPrice,
		Category: strings.TrimSpace(c.Query("category")),
		Variants: c.QueryArray("variant"),
	})

	c.Header("X-Total-Found", strconv.Itoa(result.TotalFound))

	if c.Query("format") == "bot" {
		c.String(http.StatusOK, search.FormatResultsForBot(result))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Links(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query parameter 'q'"})
		return
	}

	maxPrice, ok := parseMaxPrice(c.Query("max_price"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
		return
	}

	links := h.search.GenerateSearchLinks(c.Request.Context(), query, maxPrice)
	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"links": links,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if h.stats != nil {
		if stats, err := h.stats.Stats(c.Request.Context()); err == nil {
			health["indexed_products"] = stats.RowCount
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIGetStats(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feed index not configured"})
		return
	}

	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_index_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	body := gin.H{
		"index": gin.H{
			"active_table": stats.ActiveTable,
			"row_count":    stats.RowCount,
			"imported_at":  stats.ImportedAt,
		},
		"version": h.version,
	}
	if h.cache != nil {
		entries, err := h.cache.Size(c.Request.Context())
		if err != nil {
			slog.Warn("Cache size unavailable", "error", err)
		} else {
			body["cache"] = gin.H{"entries": entries}
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) APIImportFeed(c *gin.Context) {
	if err := h.scheduler.ImportNow(); err != nil {
		h.taskError(c, "import_feed", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Feed import enqueued",
		"type":    tasks.TaskTypeImportFeed,
	})
}

func (h *Handler) APIPurgeCache(c *gin.Context) {
	if err := h.scheduler.PurgeNow(); err != nil {
		h.taskError(c, "purge_cache", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Cache purge enqueued",
		"type":    tasks.TaskTypePurgeCache,
	})
}

func (h *Handler) taskError(c *gin.Context, operation string, err error) {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, tasks.ErrImportInProgress):
		status = http.StatusConflict
	case errors.Is(err, tasks.ErrNoFeedURL), errors.Is(err, tasks.ErrCachePurgeMissing):
		status = http.StatusNotImplemented
	default:
		slog.Error("Error enqueueing task", "operation", operation, "error", err)
	}

	c.JSON(status, gin.H{
		"error":   "Failed to enqueue task",
		"details": err.Error(),
	})
}

// parseMaxPrice accepts both "499.90" and "499,90". An empty value means no
// budget.
func parseMaxPrice(raw string) (*decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	price, ok := offer.ParsePrice(raw)
	if !ok || !price.IsPositive() {
		return nil, false
	}
	return &price, true
}
