package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"provider-finder/internal/excel"
	"provider-finder/internal/finder"
	"provider-finder/internal/mapview"
	"provider-finder/internal/models"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request id middleware sets.
const RequestIDKey = "request_id"

const (
	sessionAddress = "last_address"
	sessionLimit   = "last_limit"
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Finder is the part of finder.Service the HTTP layer uses.
type Finder interface {
	Search(ctx context.Context, req finder.Request) (*models.ResultSet, error)
	Categories() []string
	Source() string
	Providers() int
}

type Limits struct {
	Default int
	Max     int
}

// SearchHandler serves searches, exports and the remembered last query.
type SearchHandler struct {
	finder Finder
	limits Limits
	log    *slog.Logger
}

func NewSearchHandler(f Finder, limits Limits, log *slog.Logger) *SearchHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SearchHandler{finder: f, limits: limits, log: log}
}

// searchParams is bound from the query string on GET and from the JSON
// body on POST.
type searchParams struct {
	Name       string   `form:"name" json:"name"`
	Categories []string `form:"categories" json:"categories"`
	Address    string   `form:"address" json:"address"`
	Lat        *float64 `form:"lat" json:"lat"`
	Lon        *float64 `form:"lon" json:"lon"`
	Limit      *int     `form:"limit" json:"limit"`
	MaxMiles   float64  `form:"max_miles" json:"max_miles"`
	Map        bool     `form:"map" json:"map"`
	Selected   int      `form:"selected" json:"selected"`
	Reuse      bool     `form:"reuse" json:"reuse"`
}

type searchResponse struct {
	RequestID      string                  `json:"request_id"`
	Status         models.Status           `json:"status"`
	Message        string                  `json:"message"`
	DistanceSorted bool                    `json:"distance_sorted"`
	Total          int                     `json:"total"`
	Location       *models.Coordinate      `json:"location,omitempty"`
	GeocodeError   string                  `json:"geocode_error,omitempty"`
	Results        []models.ScoredProvider `json:"results"`
	Map            *mapview.View           `json:"map,omitempty"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// Categories handles GET /api/v1/categories
func (h *SearchHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.finder.Categories()})
}

// Search handles GET and POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	p, ok := h.bind(c)
	if !ok {
		return
	}
	rs, ok := h.run(c, p)
	if !ok {
		return
	}

	resp := searchResponse{
		RequestID:      c.GetString(RequestIDKey),
		Status:         rs.Status,
		Message:        rs.Message,
		DistanceSorted: rs.DistanceSorted,
		Total:          rs.Total,
		Location:       rs.Location,
		GeocodeError:   rs.GeocodeError,
		Results:        rs.Results,
	}
	if p.Map {
		v := mapview.Build(rs, p.Selected)
		resp.Map = &v
	}
	c.JSON(http.StatusOK, resp)
}

// Export handles GET /api/v1/search/export
func (h *SearchHandler) Export(c *gin.Context) {
	p, ok := h.bind(c)
	if !ok {
		return
	}
	rs, ok := h.run(c, p)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteResults(&buf, rs); err != nil {
		h.log.Error("export failed", "request_id", c.GetString(RequestIDKey), "err", err)
		h.fail(c, http.StatusInternalServerError, "could not build workbook")
		return
	}
	name := fmt.Sprintf("providers-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxType, buf.Bytes())
}

// ClearSession handles DELETE /api/v1/session
func (h *SearchHandler) ClearSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		h.fail(c, http.StatusInternalServerError, "could not clear session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *SearchHandler) bind(c *gin.Context) (searchParams, bool) {
	var p searchParams
	var err error
	if c.Request.Method == http.MethodPost {
		err = c.ShouldBindJSON(&p)
	} else {
		err = c.ShouldBindQuery(&p)
	}
	if err != nil {
		h.fail(c, http.StatusBadRequest, "malformed search parameters: "+err.Error())
		return p, false
	}
	if (p.Lat == nil) != (p.Lon == nil) {
		h.fail(c, http.StatusBadRequest, "lat and lon must be given together")
		return p, false
	}
	return p, true
}

// run resolves defaults and the session's remembered query, then searches.
func (h *SearchHandler) run(c *gin.Context, p searchParams) (*models.ResultSet, bool) {
	session := sessions.Default(c)

	if p.Reuse {
		if p.Address == "" && p.Lat == nil {
			if addr, ok := session.Get(sessionAddress).(string); ok {
				p.Address = addr
			}
		}
		if p.Limit == nil {
			if n, ok := session.Get(sessionLimit).(int); ok {
				p.Limit = &n
			}
		}
	}

	limit := h.limits.Default
	if p.Limit != nil {
		limit = *p.Limit
	}
	if h.limits.Max > 0 && limit > h.limits.Max {
		h.fail(c, http.StatusBadRequest, fmt.Sprintf("limit must be at most %d", h.limits.Max))
		return nil, false
	}

	req := finder.Request{
		Name:       p.Name,
		Categories: splitCategories(p.Categories),
		Address:    p.Address,
		Limit:      limit,
		MaxMiles:   p.MaxMiles,
	}
	if p.Lat != nil {
		req.Location = &models.Coordinate{Lat: *p.Lat, Lon: *p.Lon}
	}

	rs, err := h.finder.Search(c.Request.Context(), req)
	if errors.Is(err, finder.ErrInvalidQuery) {
		h.fail(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err != nil {
		h.log.Error("search failed", "request_id", c.GetString(RequestIDKey), "err", err)
		h.fail(c, http.StatusInternalServerError, "search failed")
		return nil, false
	}

	if addr := strings.TrimSpace(p.Address); addr != "" && rs.DistanceSorted {
		session.Set(sessionAddress, addr)
		session.Set(sessionLimit, limit)
		if err := session.Save(); err != nil {
			h.log.Warn("session save failed", "err", err)
		}
	}
	return rs, true
}

func (h *SearchHandler) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{RequestID: c.GetString(RequestIDKey), Error: msg})
}

// splitCategories accepts both repeated parameters and comma-separated
// lists.
func splitCategories(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
