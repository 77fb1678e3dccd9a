package asn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nameha1/synergyhr/internal/gate/allowlist"
)

// DefaultTimeout bounds a single lookup so a slow intelligence provider
// cannot hang the admission check.
const DefaultTimeout = 3 * time.Second

const maxResponseBytes = 1 << 16

// HTTPClient queries a third-party IP-intelligence service
// (ipinfo-style: GET {base}/{ip}/json with a bearer token) for the ASN
// of an address.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// HTTPOption adjusts an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient substitutes the underlying client, mainly for tests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.client = c }
}

// NewHTTPClient builds a lookup client for the given provider base URL,
// authenticated with the given bearer token.
func NewHTTPClient(baseURL, token string, logger *slog.Logger, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// lookupResponse tolerates the two shapes providers use: a bare number
// or an "AS"-prefixed string.
type lookupResponse struct {
	ASN json.RawMessage `json:"asn"`
	Org string          `json:"org"`
}

// Lookup resolves the ASN for ip. Transport errors, non-2xx statuses,
// and unparseable bodies all return ok=false.
func (h *HTTPClient) Lookup(ctx context.Context, ip string) (int, bool) {
	endpoint := fmt.Sprintf("%s/%s/json", h.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("asn lookup failed", "error", err)
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("asn lookup rejected", "status", resp.StatusCode)
		return 0, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, false
	}
	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		h.logger.Warn("asn lookup returned malformed body", "error", err)
		return 0, false
	}
	return extractASN(parsed)
}

func extractASN(parsed lookupResponse) (int, bool) {
	// The "asn" field may be 15169 or "AS15169"; some providers only
	// carry it inside "org" ("AS15169 Google LLC").
	if len(parsed.ASN) > 0 {
		var number int
		if err := json.Unmarshal(parsed.ASN, &number); err == nil {
			if number >= 0 {
				return number, true
			}
			return 0, false
		}
		var text string
		if err := json.Unmarshal(parsed.ASN, &text); err == nil {
			return allowlist.NormalizeASN(text)
		}
		return 0, false
	}
	if parsed.Org != "" {
		for i := 0; i < len(parsed.Org); i++ {
			if parsed.Org[i] == ' ' {
				return allowlist.NormalizeASN(parsed.Org[:i])
			}
		}
		return allowlist.NormalizeASN(parsed.Org)
	}
	return 0, false
}
