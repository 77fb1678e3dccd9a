package asn

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MaxMindDB resolves ASNs from a local GeoLite2-ASN database, avoiding
// the per-request latency and quota of a hosted lookup service.
type MaxMindDB struct {
	reader *geoip2.Reader
}

// OpenMaxMindDB opens a GeoLite2-ASN database file.
func OpenMaxMindDB(path string) (*MaxMindDB, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asn database: %w", err)
	}
	return &MaxMindDB{reader: reader}, nil
}

// Lookup resolves the ASN for ip from the local database.
func (m *MaxMindDB) Lookup(_ context.Context, ip string) (int, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0, false
	}
	record, err := m.reader.ASN(parsed)
	if err != nil || record == nil || record.AutonomousSystemNumber == 0 {
		return 0, false
	}
	return int(record.AutonomousSystemNumber), true
}

// Close releases the underlying database handle.
func (m *MaxMindDB) Close() error {
	return m.reader.Close()
}
