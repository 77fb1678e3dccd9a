package settings

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nameha1/synergyhr/internal/gate/allowlist"
	"github.com/nameha1/synergyhr/internal/gate/models"
)

// Settings keys the gate reads. Each is an independent row owned by the
// admin dashboard; this service never writes them.
const (
	keyAllowedIPs   = "allowed_ips"
	keyAllowedCIDRs = "allowed_cidrs"
	keyAllowedASNs  = "allowed_asns"
	keyGeoFence     = "office_geofence"
)

// PostgresSource reads office settings from the shared key/value
// settings table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource wraps a pgx pool as a settings source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// geoFenceRow is the persisted shape of the office_geofence value.
type geoFenceRow struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	Enabled      bool    `json:"enabled"`
}

// Fetch loads one consistent snapshot of the gate's settings.
//
// The allowlist's restriction state depends on row existence, not row
// content: when none of the three network keys has a row at all the
// gate is Unrestricted; as soon as any row exists the allowlist is
// evaluated strictly, even if every list turns out empty.
func (s *PostgresSource) Fetch(ctx context.Context) (models.OfficeSettings, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM office_settings WHERE key = ANY($1)`,
		[]string{keyAllowedIPs, keyAllowedCIDRs, keyAllowedASNs, keyGeoFence})
	if err != nil {
		return models.OfficeSettings{}, fmt.Errorf("fetch office settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 4)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.OfficeSettings{}, fmt.Errorf("scan office setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.OfficeSettings{}, fmt.Errorf("read office settings: %w", err)
	}

	return buildSettings(values), nil
}

func buildSettings(values map[string]string) models.OfficeSettings {
	var out models.OfficeSettings

	ips, ipsPresent := values[keyAllowedIPs]
	cidrs, cidrsPresent := values[keyAllowedCIDRs]
	asns, asnsPresent := values[keyAllowedASNs]

	if ipsPresent || cidrsPresent || asnsPresent {
		out.Allowlist = models.NetworkAllowlist{
			State:    models.Restricted,
			ExactIPs: ParseList(ips),
			CIDRs:    ParseList(cidrs),
			ASNs:     allowlist.NormalizeASNs(ParseList(asns)),
		}
	} else {
		out.Allowlist = models.NetworkAllowlist{State: models.Unrestricted}
	}

	if raw, ok := values[keyGeoFence]; ok {
		var fence geoFenceRow
		if err := json.Unmarshal([]byte(raw), &fence); err == nil {
			out.GeoFence = models.GeoFence(fence)
		}
	}
	return out
}
