// internal/adapters/osrm/client.go
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"homefinder/internal/adapters/memcache"
	"homefinder/internal/adapters/observability"
	"homefinder/internal/domain"
)

// MinInterval is the smallest spacing allowed between two outbound table calls.
const MinInterval = 200 * time.Millisecond

// Client fetches distance/duration tables from an OSRM-compatible routing service.
// The throttle and the cache belong to the instance; share one Client per process.
type Client struct {
	base     string
	profile  string
	hc       *http.Client
	rl       *rate.Limiter
	cache    domain.Cache
	cacheTTL time.Duration
	group    singleflight.Group

	flightTimeout time.Duration
}

type Option func(*Client)

// WithCache replaces the default unbounded in-process cache.
// ttl <= 0 keeps entries for the lifetime of the cache.
func WithCache(c domain.Cache, ttl time.Duration) Option {
	return func(cl *Client) { cl.cache, cl.cacheTTL = c, ttl }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(cl *Client) { cl.hc = hc }
}

// WithFlightTimeout bounds one outbound fetch, throttle wait included. Default 30s.
func WithFlightTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.flightTimeout = d
		}
	}
}

// New builds a client. minInterval below MinInterval is raised to it.
func New(base, profile string, minInterval time.Duration, opts ...Option) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("routing base URL is required")
	}
	if profile == "" {
		profile = "driving"
	}
	if minInterval < MinInterval {
		minInterval = MinInterval
	}
	c := &Client{
		base:    strings.TrimRight(base, "/"),
		profile: profile,
		hc:      &http.Client{Timeout: 20 * time.Second},
		rl:      rate.NewLimiter(rate.Every(minInterval), 1),
		cache:   memcache.New(0),

		flightTimeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- Public API ----

// FetchMatrix returns distances and durations from every origin to every destination.
// Identical coordinate lists are served from cache; failures are *domain.RoutingError and are not retried.
func (c *Client) FetchMatrix(ctx context.Context, origins, destinations []domain.Coordinate) (domain.Matrix, error) {
	if len(origins) == 0 || len(destinations) == 0 {
		return domain.Matrix{}, fmt.Errorf("origins and destinations cannot be empty")
	}
	for _, p := range append(append([]domain.Coordinate(nil), origins...), destinations...) {
		if !p.Valid() {
			return domain.Matrix{}, fmt.Errorf("invalid coordinate %s", p.Key())
		}
	}

	key := cacheKey(origins, destinations)
	if m, ok := c.cached(ctx, key); ok {
		return m, nil
	}

	// The flight outlives any single caller: it runs detached with its own deadline,
	// and each caller stops waiting when its own ctx ends.
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()
		// a caller that missed the cache may arrive just after the previous flight stored it
		if m, ok := c.cached(fctx, key); ok {
			return m, nil
		}
		m, err := c.table(fctx, origins, destinations)
		if err != nil {
			return domain.Matrix{}, err
		}
		if err := c.cache.Set(fctx, key, m, int(c.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("matrix cache set failed")
		}
		return m, nil
	})
	select {
	case <-ctx.Done():
		return domain.Matrix{}, fmt.Errorf("fetch matrix: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Matrix{}, res.Err
		}
		return clone(res.Val.(domain.Matrix)), nil
	}
}

// ---- Internals ----

// cacheKey keeps coordinate order; origins and destinations are joined like the wire list.
func cacheKey(origins, destinations []domain.Coordinate) string {
	var b strings.Builder
	b.WriteString("table")
	for _, p := range origins {
		b.WriteByte('|')
		b.WriteString(p.Key())
	}
	b.WriteString("|>")
	for _, p := range destinations {
		b.WriteByte('|')
		b.WriteString(p.Key())
	}
	return b.String()
}

func (c *Client) cached(ctx context.Context, key string) (domain.Matrix, bool) {
	var m domain.Matrix
	ok, err := c.cache.Get(ctx, key, &m)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("matrix cache get failed")
		return domain.Matrix{}, false
	}
	return m, ok
}

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

func (c *Client) tableURL(origins, destinations []domain.Coordinate) string {
	coords := make([]string, 0, len(origins)+len(destinations))
	for _, p := range origins {
		coords = append(coords, p.Wire())
	}
	for _, p := range destinations {
		coords = append(coords, p.Wire())
	}
	src := make([]string, len(origins))
	for i := range origins {
		src[i] = strconv.Itoa(i)
	}
	dst := make([]string, len(destinations))
	for i := range destinations {
		dst[i] = strconv.Itoa(len(origins) + i)
	}
	return fmt.Sprintf("%s/table/v1/%s/%s?sources=%s&destinations=%s&annotations=distance,duration",
		c.base, c.profile,
		strings.Join(coords, ";"),
		strings.Join(src, ";"),
		strings.Join(dst, ";"),
	)
}

// table performs one throttled GET and decodes the matrix.
func (c *Client) table(ctx context.Context, origins, destinations []domain.Coordinate) (domain.Matrix, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.Matrix{}, &domain.RoutingError{Message: "throttle wait", Err: err}
	}

	url := c.tableURL(origins, destinations)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Matrix{}, &domain.RoutingError{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "homefinder/1.0")

	log.Debug().
		Int("origins", len(origins)).
		Int("destinations", len(destinations)).
		Msg("osrm table request")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("osrm", "table", 0, time.Since(start))
		return domain.Matrix{}, &domain.RoutingError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("osrm", "table", resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(b))
		var tr tableResponse
		if json.Unmarshal(b, &tr) == nil && tr.Message != "" {
			msg = tr.Code + ": " + tr.Message
		}
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: msg}
	}

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if tr.Code != "" && tr.Code != "Ok" {
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: tr.Code + ": " + tr.Message}
	}
	if tr.Distances == nil || tr.Durations == nil {
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: "no distances/durations in response"}
	}
	if err := checkShape(tr.Distances, len(origins), len(destinations)); err != nil {
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: "distances: " + err.Error()}
	}
	if err := checkShape(tr.Durations, len(origins), len(destinations)); err != nil {
		return domain.Matrix{}, &domain.RoutingError{Status: resp.StatusCode, Message: "durations: " + err.Error()}
	}

	return domain.Matrix{
		Distances: domain.FromNullable(tr.Distances),
		Durations: domain.FromNullable(tr.Durations),
	}, nil
}

var errShape = errors.New("unexpected matrix shape")

func checkShape(m [][]*float64, rows, cols int) error {
	if len(m) != rows {
		return fmt.Errorf("%w: %d rows, want %d", errShape, len(m), rows)
	}
	for i, r := range m {
		if len(r) != cols {
			return fmt.Errorf("%w: row %d has %d cols, want %d", errShape, i, len(r), cols)
		}
	}
	return nil
}

func clone(m domain.Matrix) domain.Matrix {
	cp := func(in [][]float64) [][]float64 {
		out := make([][]float64, len(in))
		for i, r := range in {
			out[i] = append([]float64(nil), r...)
		}
		return out
	}
	return domain.Matrix{Distances: cp(m.Distances), Durations: cp(m.Durations)}
}
