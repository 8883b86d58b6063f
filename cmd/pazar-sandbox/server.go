package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Pazar/pazar_sdk_go/internal/devseed"
	"github.com/Pazar/pazar_sdk_go/pkg/pricing"
)

// server backs the sandbox REST API with the seeded catalog. It speaks the
// same wire contract as the production feed and commerce services, so SDK
// clients can point at it unchanged.
type server struct {
	catalog     *devseed.Catalog
	sessions    map[string]devseed.Session
	memberships map[string]devseed.Membership
	tiers       map[string]devseed.Tier
	pageSize    int
	latency     time.Duration
	failRate    float64
	failCode    int
	logger      *logrus.Logger
	tracer      trace.Tracer

	mu      sync.Mutex
	intents map[string]intentResponse
	subs    map[string]subscriptionResponse
	seq     int
}

type feedRequest struct {
	Filters []string `json:"filters"`
	Search  string   `json:"search"`
	Cursor  string   `json:"cursor"`
}

type feedItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	PriceCents int64    `json:"price_cents"`
	Tags       []string `json:"tags,omitempty"`
}

type feedResponse struct {
	Items      []feedItem `json:"items"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type checkoutRequest struct {
	SessionID    string  `json:"session_id"`
	MembershipID *string `json:"membership_id"`
}

type intentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	AmountCents     int64  `json:"amount_cents"`
	DiscountCents   int64  `json:"discount_cents"`
}

type subscriptionRequest struct {
	Tier string `json:"tier"`
}

type subscriptionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	ClientSecret   string `json:"client_secret"`
	Tier           string `json:"tier"`
}

func newServer(cfg Config, logger *logrus.Logger) (*server, error) {
	listings := devseed.DefaultListings()
	sessions := devseed.DefaultSessions()
	memberships := devseed.DefaultMemberships()
	tiers := devseed.DefaultTiers()

	if cfg.SeedPath != "" {
		seed, err := devseed.LoadCatalogSeed(cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog seed: %w", err)
		}
		if len(seed.Listings) > 0 {
			listings = seed.Listings
		}
		if len(seed.Sessions) > 0 {
			sessions = seed.Sessions
		}
		if len(seed.Memberships) > 0 {
			memberships = seed.Memberships
		}
		if len(seed.Tiers) > 0 {
			tiers = seed.Tiers
		}
	}

	s := &server{
		catalog:     devseed.NewCatalog(listings),
		sessions:    make(map[string]devseed.Session, len(sessions)),
		memberships: make(map[string]devseed.Membership, len(memberships)),
		tiers:       make(map[string]devseed.Tier, len(tiers)),
		pageSize:    cfg.PageSize,
		latency:     cfg.Latency,
		failRate:    cfg.FailRate,
		failCode:    cfg.FailCode,
		logger:      logger,
		tracer:      otel.Tracer("pazar-sandbox"),
		intents:     make(map[string]intentResponse),
		subs:        make(map[string]subscriptionResponse),
	}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	for _, m := range memberships {
		s.memberships[m.ID] = m
	}
	for _, t := range tiers {
		s.tiers[t.Name] = t
	}
	return s, nil
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.injectMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/feed", s.handleFeed)
	r.Post("/create-checkout", s.handleCreateCheckout)
	r.Post("/create-subscription", s.handleCreateSubscription)

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleFeed(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "sandbox.feed")
	defer span.End()

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	span.SetAttributes(
		attribute.StringSlice("feed.filters", req.Filters),
		attribute.String("feed.search", req.Search),
		attribute.String("feed.cursor", req.Cursor),
	)

	listings, hasMore, nextCursor, err := s.catalog.Page(req.Filters, req.Search, req.Cursor, s.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := feedResponse{
		Items:      make([]feedItem, 0, len(listings)),
		HasMore:    hasMore,
		NextCursor: nextCursor,
	}
	for _, l := range listings {
		resp.Items = append(resp.Items, feedItem{
			ID:         l.ID,
			Title:      l.Title,
			PriceCents: l.PriceCents,
			Tags:       l.Tags,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "sandbox.create_checkout")
	defer span.End()

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	span.SetAttributes(attribute.String("checkout.session_id", req.SessionID))

	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if intent, ok := s.intents[key]; ok {
			writeJSON(w, http.StatusOK, intent)
			return
		}
	}

	session, ok := s.sessions[req.SessionID]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown session %q", req.SessionID))
		return
	}
	var discountPercent int
	if req.MembershipID != nil {
		membership, ok := s.memberships[*req.MembershipID]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown membership %q", *req.MembershipID))
			return
		}
		discountPercent = membership.DiscountPercent
	}

	quote := pricing.QuoteDiscount(session.PriceCents, discountPercent)
	s.seq++
	intent := intentResponse{
		PaymentIntentID: fmt.Sprintf("pi_sbx_%06d", s.seq),
		ClientSecret:    fmt.Sprintf("cs_sbx_%06d", s.seq),
		AmountCents:     quote.TotalCents,
		DiscountCents:   quote.DiscountCents,
	}
	if key != "" {
		s.intents[key] = intent
	}
	writeJSON(w, http.StatusOK, intent)
}

func (s *server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "sandbox.create_subscription")
	defer span.End()

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.Tier == "" {
		writeError(w, http.StatusBadRequest, "tier is required")
		return
	}
	span.SetAttributes(attribute.String("checkout.tier", req.Tier))

	key := r.Header.Get("Idempotency-Key")

	s.mu.Lock()
	defer s.mu.Unlock()

	if key != "" {
		if intent, ok := s.subs[key]; ok {
			writeJSON(w, http.StatusOK, intent)
			return
		}
	}

	tier, ok := s.tiers[req.Tier]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown tier %q", req.Tier))
		return
	}

	s.seq++
	intent := subscriptionResponse{
		SubscriptionID: fmt.Sprintf("sub_sbx_%06d", s.seq),
		ClientSecret:   fmt.Sprintf("cs_sbx_%06d", s.seq),
		Tier:           tier.Name,
	}
	if key != "" {
		s.subs[key] = intent
	}
	writeJSON(w, http.StatusOK, intent)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r)
	})
}

func (s *server) injectMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			time.Sleep(s.latency)
		}
		if s.failRate > 0 && rand.Float64() < s.failRate {
			writeError(w, s.failCode, "failure injected")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		entry := s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  w.Header().Get("X-Request-Id"),
		})
		if recorder.statusCode >= 500 {
			entry.Error("request completed")
		} else if recorder.statusCode >= 400 {
			entry.Warn("request completed")
		} else {
			entry.Info("request completed")
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
