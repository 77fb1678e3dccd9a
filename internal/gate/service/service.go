// Package service orchestrates the admission gate: resolve the client
// IP, load the allowlist, optionally look up the ASN, evaluate, and
// mint or verify office passes. Handlers stay thin; every decision is
// made here.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nameha1/synergyhr/internal/audit"
	"github.com/nameha1/synergyhr/internal/gate/allowlist"
	"github.com/nameha1/synergyhr/internal/gate/asn"
	"github.com/nameha1/synergyhr/internal/gate/metrics"
	"github.com/nameha1/synergyhr/internal/gate/models"
	"github.com/nameha1/synergyhr/internal/gate/pass"
	"github.com/nameha1/synergyhr/internal/gate/resolver"
	"github.com/nameha1/synergyhr/internal/gate/settings"
	"github.com/nameha1/synergyhr/internal/geofence"
)

// Headers carrying the two gate credentials.
const (
	HeaderOfficePass = "X-Office-Pass"
	HeaderGateKey    = "X-Gate-Key"

	// Optional client-reported coordinates, advisory only.
	HeaderGeoLat = "X-Geo-Lat"
	HeaderGeoLon = "X-Geo-Lon"
)

// Endpoint labels for metrics and audit events.
const (
	endpointAdmission = "office-gate"
	endpointGuard     = "checkin-guard"
)

var (
	// ErrDenied is the everyday outcome: the caller's network location
	// (or credential) did not satisfy the gate. Callers receive a bare
	// 403; the reason stays server-side.
	ErrDenied = errors.New("gate: denied")

	// ErrUnavailable means a dependency needed for the decision could
	// not be reached. The gate fails closed.
	ErrUnavailable = errors.New("gate: upstream unavailable")

	// ErrConfigMissing means a required secret is absent. Surfaced as a
	// generic 500; the gate never degrades to allow-all.
	ErrConfigMissing = errors.New("gate: required configuration missing")
)

// Service implements the two-step admission protocol.
type Service struct {
	resolver *resolver.Resolver
	cache    *settings.Cache
	lookup   asn.Lookup
	signer   *pass.Signer
	gateKey  string
	passTTL  time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    audit.Recorder
}

// Option adjusts a Service.
type Option func(*Service)

// WithASNLookup wires an ASN source. Without one the ASN category is
// simply never matched.
func WithASNLookup(lookup asn.Lookup) Option {
	return func(s *Service) { s.lookup = lookup }
}

// WithPassTTL overrides the office pass lifetime.
func WithPassTTL(ttl time.Duration) Option {
	return func(s *Service) { s.passTTL = ttl }
}

// WithMetrics wires Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit wires a decision audit sink.
func WithAudit(recorder audit.Recorder) Option {
	return func(s *Service) { s.audit = recorder }
}

// New builds the gate service. signer may be nil and gateKey empty when
// the deployment is missing secrets; the service then refuses every
// request with ErrConfigMissing instead of failing open.
func New(rv *resolver.Resolver, cache *settings.Cache, signer *pass.Signer, gateKey string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		resolver: rv,
		cache:    cache,
		signer:   signer,
		gateKey:  gateKey,
		passTTL:  pass.DefaultTTL,
		logger:   logger,
		audit:    audit.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Admit answers "is this caller on an allowed office network" and mints
// an office pass on success. It has no side effects beyond the token,
// so clients may call it proactively to pre-warm a pass.
func (s *Service) Admit(ctx context.Context, r *http.Request) (string, error) {
	if s.signer == nil {
		s.logger.Error("admission refused: pass signing secret not configured")
		return "", ErrConfigMissing
	}

	check, err := s.checkNetwork(ctx, r)
	if err != nil {
		s.deny(ctx, endpointAdmission, "upstream unavailable", check)
		return "", err
	}
	if !check.allowed {
		s.deny(ctx, endpointAdmission, check.reason, check)
		return "", ErrDenied
	}

	token, err := s.signer.Sign(pass.Claims{"ip": check.ip, "asn": check.asn}, s.passTTL)
	if err != nil {
		s.logger.Error("pass signing failed", "error", err)
		return "", ErrUnavailable
	}

	s.metrics.ObserveDecision(endpointAdmission, "allowed")
	s.audit.Record(ctx, audit.NewEvent(endpointAdmission, audit.OutcomeAllowed, "", check.ip, check.asn))
	return token, nil
}

// Guard authorizes one mutating attendance operation. It demands the
// pre-shared gate key, a valid unexpired office pass, and a fresh
// network check against the request's current IP, since a pass only
// proves a past check. The caller performs the actual mutation only
// after Guard returns nil.
func (s *Service) Guard(ctx context.Context, r *http.Request) error {
	if s.signer == nil || s.gateKey == "" {
		s.logger.Error("guard refused: gate secrets not configured")
		return ErrConfigMissing
	}

	supplied := r.Header.Get(HeaderGateKey)
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.gateKey)) != 1 {
		s.deny(ctx, endpointGuard, "gate key missing or invalid", networkCheck{})
		return ErrDenied
	}

	claims, ok := s.signer.Verify(r.Header.Get(HeaderOfficePass))
	if !ok {
		s.metrics.ObservePassVerification("invalid")
		s.deny(ctx, endpointGuard, "pass missing, malformed, or expired", networkCheck{})
		return ErrDenied
	}
	s.metrics.ObservePassVerification("valid")

	check, err := s.checkNetwork(ctx, r)
	if err != nil {
		s.deny(ctx, endpointGuard, "upstream unavailable", check)
		return err
	}
	if !check.allowed {
		s.deny(ctx, endpointGuard, check.reason, check)
		return ErrDenied
	}

	if minted, _ := claims["ip"].(string); minted != "" && minted != check.ip {
		// Not a denial: the fresh check above is the authority. Worth
		// knowing how often devices move between mint and use.
		s.logger.Info("pass minted for different ip", "minted_prefix", audit.MaskIP(minted), "current_prefix", audit.MaskIP(check.ip))
	}

	s.logGeoAdvisory(ctx, r)

	s.metrics.ObserveDecision(endpointGuard, "allowed")
	s.audit.Record(ctx, audit.NewEvent(endpointGuard, audit.OutcomeAllowed, "", check.ip, check.asn))
	return nil
}

// GeoFence returns the configured office geo-fence for the browser's
// client-side distance check.
func (s *Service) GeoFence(ctx context.Context) (models.GeoFence, error) {
	snapshot, hit, err := s.cache.Get(ctx)
	if err != nil {
		s.metrics.ObserveCache("error")
		return models.GeoFence{}, ErrUnavailable
	}
	s.observeCacheResult(hit)
	return snapshot.GeoFence, nil
}

// logGeoAdvisory compares coordinates the client chose to report
// against the configured fence. The real distance check runs in the
// browser; this only measures how often reported positions fall
// outside, and never denies.
func (s *Service) logGeoAdvisory(ctx context.Context, r *http.Request) {
	lat, errLat := strconv.ParseFloat(r.Header.Get(HeaderGeoLat), 64)
	lon, errLon := strconv.ParseFloat(r.Header.Get(HeaderGeoLon), 64)
	if errLat != nil || errLon != nil {
		return
	}
	snapshot, _, err := s.cache.Get(ctx)
	if err != nil || !snapshot.GeoFence.Enabled {
		return
	}
	if !geofence.Contains(snapshot.GeoFence, lat, lon) {
		s.logger.Info("check-in reported position outside geo-fence",
			"distance_meters", int(geofence.Distance(snapshot.GeoFence.Latitude, snapshot.GeoFence.Longitude, lat, lon)))
	}
}

// networkCheck is the outcome of one full network evaluation.
type networkCheck struct {
	ip      string
	asn     int
	asnOK   bool
	allowed bool
	reason  string
}

func (s *Service) checkNetwork(ctx context.Context, r *http.Request) (networkCheck, error) {
	var check networkCheck

	// An unresolvable IP is not an early deny: the allowlist still gets
	// its say, since a wildcard or Unrestricted config admits callers
	// regardless of address.
	if ip, ok := s.resolver.ClientIP(r); ok {
		check.ip = ip
	}

	snapshot, hit, err := s.cache.Get(ctx)
	if err != nil {
		s.metrics.ObserveCache("error")
		s.logger.Error("settings fetch failed", "error", err)
		check.reason = "settings unavailable"
		return check, ErrUnavailable
	}
	s.observeCacheResult(hit)
	list := snapshot.Allowlist

	// The lookup costs a network round trip; only pay it when an ASN
	// restriction can actually use the answer.
	if check.ip != "" && list.ASNRestricted() && !list.Wildcard() && s.lookup != nil {
		start := time.Now()
		check.asn, check.asnOK = s.lookup.Lookup(ctx, check.ip)
		s.metrics.ObserveASNLookup(time.Since(start))
	}

	check.allowed = allowlist.Evaluate(check.ip, check.asn, check.asnOK, list)
	if !check.allowed {
		if check.ip == "" {
			check.reason = "client ip undeterminable"
		} else {
			check.reason = "network not in allowlist"
		}
	}
	return check, nil
}

func (s *Service) observeCacheResult(hit bool) {
	if hit {
		s.metrics.ObserveCache("hit")
	} else {
		s.metrics.ObserveCache("refresh")
	}
}

func (s *Service) deny(ctx context.Context, endpoint, reason string, check networkCheck) {
	s.metrics.ObserveDecision(endpoint, "denied")
	s.logger.Warn("gate denied",
		"endpoint", endpoint,
		"reason", reason,
		"ip_prefix", audit.MaskIP(check.ip),
	)
	s.audit.Record(ctx, audit.NewEvent(endpoint, audit.OutcomeDenied, reason, check.ip, check.asn))
}
