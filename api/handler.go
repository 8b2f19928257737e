// Package api serves the journal over HTTP with gin.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/tradejournal/internal/logger"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/metrics"
	"github.com/rustyeddy/tradejournal/share"
	"github.com/rustyeddy/tradejournal/window"
)

// Settings stores opaque JSON blobs such as dashboard layouts.
type Settings interface {
	SaveSetting(ctx context.Context, key string, value json.RawMessage) error
	LoadSetting(ctx context.Context, key string) (json.RawMessage, error)
}

// Exporter publishes a share snapshot of one day.
type Exporter interface {
	Export(ctx context.Context, date time.Time, accountID string) (share.Result, error)
}

type Handler struct {
	store    journal.Store
	settings Settings
	shares   Exporter

	edge    metrics.EdgeConfig
	metrics []metrics.Option
	loc     *time.Location
	now     func() time.Time
}

type Option func(*Handler)

func WithEdgeConfig(cfg metrics.EdgeConfig) Option {
	return func(h *Handler) { h.edge = cfg }
}

func WithMetricsOptions(opts ...metrics.Option) Option {
	return func(h *Handler) { h.metrics = append(h.metrics, opts...) }
}

func WithLocation(loc *time.Location) Option {
	return func(h *Handler) {
		if loc != nil {
			h.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler wires the handler. shares may be nil, which disables
// POST /shares.
func NewHandler(store journal.Store, settings Settings, shares Exporter, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		settings: settings,
		shares:   shares,
		edge:     metrics.DefaultEdgeConfig(),
		loc:      time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/trades", h.ListTrades)
	r.POST("/trades", h.CreateTrade)
	r.GET("/trades/:id", h.GetTrade)
	r.DELETE("/trades/:id", h.DeleteTrade)

	r.GET("/stats", h.Stats)

	r.GET("/layout/:key", h.GetLayout)
	r.PUT("/layout/:key", h.PutLayout)

	r.POST("/shares", h.CreateShare)
}

// NewRouter returns an engine serving h under /api.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// windowed loads the trades selected by the account and window query
// parameters.
func (h *Handler) windowed(c *gin.Context) ([]journal.Trade, window.Window, bool) {
	w, err := window.Parse(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}

	account := c.Query("account")
	trades, err := h.store.ListTrades(c.Request.Context(), journal.Query{AccountID: account})
	if err != nil {
		h.internalError(c, "failed to list trades", err)
		return nil, "", false
	}
	return window.Filter(trades, h.now(), w, account), w, true
}

func (h *Handler) ListTrades(c *gin.Context) {
	trades, _, ok := h.windowed(c)
	if !ok {
		return
	}
	if trades == nil {
		trades = []journal.Trade{}
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (h *Handler) CreateTrade(c *gin.Context) {
	var t journal.Trade
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if t.Symbol == "" || t.EntryTime.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and entryTime are required"})
		return
	}

	saved, err := h.store.RecordTrade(c.Request.Context(), t)
	if err != nil {
		h.internalError(c, "failed to record trade", err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) GetTrade(c *gin.Context) {
	t, err := h.store.GetTrade(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
		return
	}
	if err != nil {
		h.internalError(c, "failed to get trade", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTrade(c *gin.Context) {
	err := h.store.DeleteTrade(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
		return
	}
	if err != nil {
		h.internalError(c, "failed to delete trade", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Stats(c *gin.Context) {
	trades, w, ok := h.windowed(c)
	if !ok {
		return
	}

	opts := append([]metrics.Option{metrics.WithLocation(h.loc)}, h.metrics...)
	s := metrics.Aggregate(trades, opts...)
	c.JSON(http.StatusOK, gin.H{
		"window":   w,
		"summary":  s,
		"edge":     metrics.EdgeScore(s, h.edge),
		"daily":    metrics.Daily(trades, opts...),
		"warnings": s.Warnings,
	})
}

func layoutKey(c *gin.Context) string {
	return "layout:" + c.Param("key")
}

func (h *Handler) GetLayout(c *gin.Context) {
	v, err := h.settings.LoadSetting(c.Request.Context(), layoutKey(c))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "layout not found"})
		return
	}
	if err != nil {
		h.internalError(c, "failed to load layout", err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", v)
}

func (h *Handler) PutLayout(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be valid JSON"})
		return
	}
	if err := h.settings.SaveSetting(c.Request.Context(), layoutKey(c), body); err != nil {
		h.internalError(c, "failed to save layout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

type shareRequest struct {
	Date    string `json:"date" binding:"required"`
	Account string `json:"account"`
}

func (h *Handler) CreateShare(c *gin.Context) {
	if h.shares == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sharing is not configured"})
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.ParseInLocation(journal.DayLayout, req.Date, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	res, err := h.shares.Export(c.Request.Context(), day, req.Account)
	if err != nil {
		h.internalError(c, "share export failed", err)
		return
	}
	degraded := res.Degraded
	if degraded == nil {
		degraded = []share.DegradedImage{}
	}
	c.JSON(http.StatusCreated, gin.H{"shareId": res.ShareID, "degraded": degraded})
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	logger.ErrorWithErr(c.Request.Context(), msg, err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
