package geoip

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"xrayshim/internal/logger"

	"github.com/oschwald/geoip2-golang"
)

var ErrNotInitialized = errors.New("geoip database not initialized")

var (
	mu            sync.RWMutex
	asnReader     *geoip2.Reader
	countryReader *geoip2.Reader
)

// Init opens the MMDB files. A missing country database only disables country data.
func Init(asnPath, countryPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if asnReader != nil {
		return nil
	}

	r, err := geoip2.Open(asnPath)
	if err != nil {
		return fmt.Errorf("failed to open ASN DB at %s: %w", asnPath, err)
	}
	asnReader = r

	if countryPath != "" {
		countryReader, err = geoip2.Open(countryPath)
		if err != nil {
			countryReader = nil
			logger.Log.Warnf("Failed to open Country DB at %s: %v. Country data will be missing.", countryPath, err)
		}
	}
	return nil
}

type GeoResult struct {
	ISP     string
	Country string
}

func Lookup(ipStr string) (*GeoResult, error) {
	mu.RLock()
	defer mu.RUnlock()

	if asnReader == nil {
		return nil, ErrNotInitialized
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return nil, fmt.Errorf("invalid ip: %s", ipStr)
	}

	res := &GeoResult{ISP: "Unknown", Country: "XX"}
	if asn, err := asnReader.ASN(ip); err == nil {
		res.ISP = asn.AutonomousSystemOrganization
	}
	if countryReader != nil {
		if c, err := countryReader.Country(ip); err == nil && c.Country.IsoCode != "" {
			res.Country = c.Country.IsoCode
		}
	}
	return res, nil
}

// LookupHost resolves a server address (IP or domain) and looks up its first address.
func LookupHost(host string) (*GeoResult, error) {
	if net.ParseIP(host) != nil {
		return Lookup(host)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed for %s: %w", host, err)
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("dns lookup failed for %s", host)
	}
	return Lookup(ips[0].String())
}

func Close() {
	mu.Lock()
	defer mu.Unlock()

	if asnReader != nil {
		asnReader.Close()
		asnReader = nil
	}
	if countryReader != nil {
		countryReader.Close()
		countryReader = nil
	}
}
