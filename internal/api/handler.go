package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gobasket/app"
	"gobasket/domain/basket"
	"gobasket/domain/core"
	"gobasket/domain/rules"
	"gobasket/internal"
	"gobasket/internal/errors"
)

// QueryDefaults fill in association query parameters the caller leaves out
type QueryDefaults struct {
	TopK   int
	SortBy rules.Metric
}

// Handler serves analysis queries against the current session
type Handler struct {
	sessions *app.SessionHolder
	miner    *app.MiningService
	defaults QueryDefaults
	logger   *internal.Logger
}

// NewHandler creates a handler over a session holder and a mining service
func NewHandler(sessions *app.SessionHolder, miner *app.MiningService, defaults QueryDefaults, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if defaults.TopK < 1 {
		defaults.TopK = 10
	}
	return &Handler{
		sessions: sessions,
		miner:    miner,
		defaults: defaults,
		logger:   logger.Named("API"),
	}
}

// Health reports liveness and whether a session is loaded
func (h *Handler) Health(c *gin.Context) {
	sess, err := h.sessions.Load()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"ready":        true,
		"session_id":   sess.ID(),
		"dataset":      sess.DatasetName(),
		"transactions": sess.Total(),
		"loaded_at":    sess.CreatedAt(),
	})
}

type dimensionInfo struct {
	Name           string   `json:"name"`
	DistinctValues int      `json:"distinct_values"`
	Values         []string `json:"values,omitempty"`
}

// Dimensions lists the dimensions of the session, with values when values=true
func (h *Handler) Dimensions(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	withValues := c.Query("values") == "true"

	dims := sess.Dimensions()
	out := make([]dimensionInfo, 0, len(dims))
	for _, dim := range dims {
		values, err := sess.Values(dim)
		if err != nil {
			h.respondError(c, err)
			return
		}
		info := dimensionInfo{Name: dim, DistinctValues: len(values)}
		if withValues {
			info.Values = values
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, gin.H{"dataset": sess.DatasetName(), "dimensions": out})
}

// Summary returns basket size statistics
func (h *Handler) Summary(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	summary, err := sess.Summary()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Support returns the support of one value, or of every value without value=
func (h *Handler) Support(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	dimension := c.Query("dimension")
	if dimension == "" {
		h.respondError(c, errors.InvalidInput("dimension is required"))
		return
	}

	value := c.Query("value")
	if value == "" {
		all, err := sess.SupportAll(dimension)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dimension": dimension, "transactions": sess.Total(), "supports": all})
		return
	}

	support, err := sess.Support(dimension, value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dimension": dimension, "value": value, "transactions": sess.Total(), "support": support})
}

// Associations ranks co-occurring values of the target dimensions for one antecedent
func (h *Handler) Associations(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	q, err := h.parseQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	analysis, err := sess.Analyze(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *Handler) parseQuery(c *gin.Context) (app.Query, error) {
	q := app.Query{
		Antecedent: basket.EntitySelector{Dimension: c.Query("dimension"), Value: c.Query("value")},
		SortBy:     h.defaults.SortBy,
		TopK:       h.defaults.TopK,
	}
	if q.Antecedent.Dimension == "" || strings.TrimSpace(q.Antecedent.Value) == "" {
		return q, errors.InvalidInput("dimension and value are required")
	}
	if targets := c.Query("targets"); targets != "" {
		for _, t := range strings.Split(targets, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Targets = append(q.Targets, t)
			}
		}
	}
	if sort := c.Query("sort"); sort != "" {
		q.SortBy = rules.Metric(sort)
	}
	if raw := c.Query("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil {
			return q, errors.InvalidInput("top_k must be an integer")
		}
		q.TopK = topK
	}
	if raw := c.Query("ascending"); raw != "" {
		ascending, err := strconv.ParseBool(raw)
		if err != nil {
			return q, errors.InvalidInput("ascending must be a boolean")
		}
		q.Ascending = ascending
	}
	return q, nil
}

// MineRules runs frequent itemset mining with the posted parameters
func (h *Handler) MineRules(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req app.MineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	resp, err := h.miner.Run(c.Request.Context(), sess, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns returns stored mining run headers, newest first
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.respondError(c, errors.InvalidInput("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.miner.ListRuns(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one stored mining run with its itemsets and rules
func (h *Handler) GetRun(c *gin.Context) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	run, err := h.miner.GetRun(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// NoRoute answers unknown paths with the JSON error body
func (h *Handler) NoRoute(c *gin.Context) {
	h.respondError(c, errors.NotFound("route "+c.Request.URL.Path))
}

// Recover turns a handler panic into an INTERNAL_ERROR response
func (h *Handler) Recover(c *gin.Context, recovered any) {
	h.logger.Error("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
	h.respondError(c, errors.InternalError("internal server error"))
}

func (h *Handler) session(c *gin.Context) (*app.Session, bool) {
	sess, err := h.sessions.Load()
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	code := errors.GetCode(appErr)
	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("%s %s rejected: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": appErr.Error(), "code": code})
}
