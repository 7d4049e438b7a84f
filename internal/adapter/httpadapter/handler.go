package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
	"github.com/go-chi/chi/v5/middleware"
)

// Assessor produces a risk report for a request.
type Assessor interface {
	Assess(ctx context.Context, req pipeline.Request) (domain.RiskReport, error)
}

// Handler serves the assessment API.
type Handler struct {
	assessor Assessor
	catalog  domain.ZoneCatalog
	logger   *slog.Logger
}

// NewHandler creates a Handler. catalog may be nil.
func NewHandler(assessor Assessor, catalog domain.ZoneCatalog, logger *slog.Logger) *Handler {
	return &Handler{assessor: assessor, catalog: catalog, logger: logger}
}

// FloodRisk handles GET /api/flood-risk?lat=&lon=&zone=&pattern=&offset=
// and responds with {"data": [...]}, one entry per sampled coordinate.
func (h *Handler) FloodRisk(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.ClientIP = clientIP(r)

	report, err := h.assessor.Assess(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("assessment failed",
				"error", err,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report.Body())
}

// Zones handles GET /api/zones.
func (h *Handler) Zones(w http.ResponseWriter, r *http.Request) {
	zones := []domain.Zone{}
	if h.catalog != nil {
		z, err := h.catalog.Zones(r.Context())
		if err != nil {
			h.logger.Error("list zones failed", "error", err)
			writeError(w, http.StatusBadGateway, "zone catalog unavailable")
			return
		}
		zones = append(zones, z...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": zones})
}

func parseRequest(q url.Values) (pipeline.Request, error) {
	var req pipeline.Request

	for _, p := range []struct {
		key string
		dst **float64
	}{
		{"lat", &req.Lat},
		{"lon", &req.Lon},
		{"offset", &req.Offset},
	} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidParameter, p.key, raw)
		}
		*p.dst = &v
	}

	if raw := strings.TrimSpace(q.Get("pattern")); raw != "" {
		pattern, err := domain.ParsePattern(raw)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Pattern = pattern
	}

	req.Zone = strings.TrimSpace(q.Get("zone"))
	return req, nil
}

func clientIP(r *http.Request) net.IP {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return net.ParseIP(host)
}

// statusClientClosedRequest reports a request abandoned by the client.
const statusClientClosedRequest = 499

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrZoneNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGeocodeUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
