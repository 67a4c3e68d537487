package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-surf-report/internal/models"
	"github.com/mr1hm/go-surf-report/internal/registry"
	"github.com/mr1hm/go-surf-report/internal/report"
)

// QueryService is the read side the handlers need. *report.Service
// implements it.
type QueryService interface {
	Snapshot() *registry.Snapshot
	Degraded() bool
	Search(query string) []models.Location
	LiveReport(ctx context.Context, name string) (report.Report, error)
}

type Handler struct {
	svc QueryService
}

func NewHandler(svc QueryService) *Handler {
	return &Handler{
		svc: svc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/spots", h.listSpots)
	r.GET("/api/spots.geojson", h.spotsGeoJSON)
	r.GET("/api/search", h.search)
	r.GET("/api/live/:name", h.liveReport)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// spotSummary is the trimmed record map and search clients need.
type spotSummary struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func summarize(locs []models.Location) []spotSummary {
	out := make([]spotSummary, 0, len(locs))
	for _, l := range locs {
		out = append(out, spotSummary{Name: l.Name, Country: l.Country, Lat: l.Latitude, Lng: l.Longitude})
	}
	return out
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"locations": h.svc.Snapshot().Len(),
		"degraded":  h.svc.Degraded(),
	})
}

func (h *Handler) listSpots(c *gin.Context) {
	snap := h.svc.Snapshot()
	if notModified(c, snap) {
		return
	}
	c.JSON(http.StatusOK, summarize(snap.Locations()))
}

func (h *Handler) spotsGeoJSON(c *gin.Context) {
	snap := h.svc.Snapshot()
	if notModified(c, snap) {
		return
	}

	body, err := toGeoJSON(snap.Locations()).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to encode spots",
		})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

func (h *Handler) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query parameter q is required",
		})
		return
	}
	c.JSON(http.StatusOK, summarize(h.svc.Search(q)))
}

func (h *Handler) liveReport(c *gin.Context) {
	r, err := h.svc.LiveReport(c.Request.Context(), c.Param("name"))
	switch {
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "spot not found"})
	case errors.Is(err, report.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "offline"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
	default:
		c.JSON(http.StatusOK, r)
	}
}

// notModified sets the ETag for snap and answers 304 when the client
// already has this version.
func notModified(c *gin.Context, snap *registry.Snapshot) bool {
	if snap.Version == "" {
		return false
	}
	etag := `"` + snap.Version + `"`
	c.Header("ETag", etag)

	if match := c.GetHeader("If-None-Match"); match != "" {
		for _, candidate := range strings.Split(match, ",") {
			if strings.TrimSpace(candidate) == etag || strings.TrimSpace(candidate) == "*" {
				c.Status(http.StatusNotModified)
				return true
			}
		}
	}
	return false
}
