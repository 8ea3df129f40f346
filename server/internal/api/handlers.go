package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/taoscope/taoscope/server/internal/auth"
	"github.com/taoscope/taoscope/server/internal/upstream"
)

const maxApproveBody = 64 << 10

// --- route handlers ---------------------------------------------------------

func (s *Server) stats(w http.ResponseWriter, r *http.Request) error {
	return respond(w, r, http.StatusOK, s.opts.Subnets.Stats(r.Context()))
}

// subnets serves the merged listing. The token is optional; it only sets
// the authenticated flag on each record.
func (s *Server) subnets(w http.ResponseWriter, r *http.Request) error {
	_, authenticated := auth.FromContext(r.Context())
	return respond(w, r, http.StatusOK, s.opts.Subnets.Listing(r.Context(), authenticated))
}

func (s *Server) news(w http.ResponseWriter, r *http.Request) error {
	return respond(w, r, http.StatusOK, s.opts.Catalog.News)
}

func (s *Server) research(w http.ResponseWriter, r *http.Request) error {
	return respond(w, r, http.StatusOK, s.opts.Catalog.Research)
}

func (s *Server) academy(w http.ResponseWriter, r *http.Request) error {
	return respond(w, r, http.StatusOK, s.opts.Catalog.Academy)
}

// historical serves GET /api/historical/{asset}?days=N. days defaults to 30
// and is clamped to [1, 365]; a non-integer is rejected.
func (s *Server) historical(w http.ResponseWriter, r *http.Request) error {
	asset := strings.ToLower(chi.URLParam(r, "asset"))
	if !s.opts.History.Supports(asset) {
		return notFound("Unknown asset: " + asset)
	}

	days := upstream.DefaultHistoryDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest("days must be an integer")
		}
		days = upstream.ClampDays(n)
	}

	return respond(w, r, http.StatusOK, HistoryResponse{
		Asset: asset,
		Days:  days,
		Data:  s.opts.History.History(r.Context(), asset, days),
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	counts, err := s.opts.Metrics.UpstreamCounts()
	if err != nil {
		slog.Warn("api: gather upstream counts", "err", err)
		counts = nil
	}
	return respond(w, r, http.StatusOK, HealthResponse{
		Status:       "ok",
		CoinGeckoKey: s.opts.Credentials.CoinGecko,
		TaoStatsKey:  s.opts.Credentials.TaoStats,
		IdentityKey:  s.opts.Credentials.Identity,
		CacheBackend: s.opts.CacheBackend,
		Upstream:     counts,
	})
}

// approve invites the account named in the body. The caller must present a
// token for an account in the admin domain; the caller is checked before the
// body is read.
func (s *Server) approve(w http.ResponseWriter, r *http.Request) error {
	if s.opts.Provisioner == nil {
		return newError(http.StatusServiceUnavailable, "Identity provider not configured", auth.ErrNotConfigured)
	}

	token, _ := auth.BearerToken(r)
	caller, err := auth.VerifyAdmin(r.Context(), s.opts.Verifier, token, s.opts.AdminDomain)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUnauthenticated):
		return newError(http.StatusUnauthorized, "Invalid or missing token", err)
	case errors.Is(err, auth.ErrForbidden):
		return newError(http.StatusForbidden, "Admin access required", err)
	case errors.Is(err, auth.ErrNotConfigured):
		return newError(http.StatusServiceUnavailable, "Identity provider not configured", err)
	default:
		return newError(http.StatusBadGateway, "Identity provider unavailable", err)
	}

	var req ApproveRequest
	if err := render.DecodeJSON(io.LimitReader(r.Body, maxApproveBody), &req); err != nil {
		return badRequest("Request body must be JSON with an email field")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil || addr.Address != strings.TrimSpace(req.Email) {
		return badRequest("Invalid email address")
	}

	if err := s.opts.Provisioner.Invite(r.Context(), addr.Address); err != nil {
		return newError(http.StatusBadGateway, "Identity provider request failed", err)
	}
	slog.Info("api: account approved", "email", addr.Address, "by", caller.Email)
	return respond(w, r, http.StatusOK, ApproveResponse{Status: "approved", Email: addr.Address})
}
