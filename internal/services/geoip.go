package services

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/config"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

// GeoReader is the subset of *geoip2.Reader the service needs.
type GeoReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// GeoProbe remembers whether the geo database answers lookups. The probe
// against TestIP runs once; Reset forces a new probe after the database
// changes.
type GeoProbe struct {
	TestIP net.IP

	mu        sync.Mutex
	probed    bool
	available bool
	logger    *slog.Logger
}

func NewGeoProbe(testIP string, logger *slog.Logger) *GeoProbe {
	ip := net.ParseIP(testIP)
	if ip == nil {
		ip = net.ParseIP("8.8.8.8")
	}
	return &GeoProbe{TestIP: ip, logger: logger}
}

// Available reports the cached probe result, probing reader on first use.
func (p *GeoProbe) Available(reader GeoReader) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.probed {
		return p.available
	}
	p.probed = true

	if reader == nil {
		p.logger.Warn("GeoIP: No database loaded, geography disabled")
		return false
	}
	if _, err := reader.City(p.TestIP); err != nil {
		p.logger.Warn("GeoIP: Probe lookup failed, geography disabled", "probe_ip", p.TestIP.String(), "error", err)
		return false
	}
	p.available = true
	return true
}

func (p *GeoProbe) Reset() {
	p.mu.Lock()
	p.probed = false
	p.available = false
	p.mu.Unlock()
}

type GeoIPService struct {
	cfg       config.Config
	logger    *slog.Logger
	probe     *GeoProbe
	geoReader GeoReader
	geoLock   sync.RWMutex
	lookupErr sync.Once
	openFunc  func(path string) (GeoReader, error)
}

func NewGeoIPService(cfg config.Config, logger *slog.Logger, probe *GeoProbe) *GeoIPService {
	return &GeoIPService{
		cfg:    cfg,
		logger: logger,
		probe:  probe,
		openFunc: func(path string) (GeoReader, error) {
			return geoip2.Open(path)
		},
	}
}

// Init loads the database from disk, downloading it first when it is
// missing and MaxMind credentials are configured.
func (s *GeoIPService) Init() {
	dbPath := s.cfg.MaxMindDBPath
	if dbPath == "" {
		s.logger.Warn("GeoIP: No database path configured. Lookups will be disabled.")
		return
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if !s.hasCredentials() {
			s.logger.Warn("GeoIP: Database missing and MaxMind credentials not set. Lookups will be disabled.", "path", dbPath)
			return
		}
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			s.logger.Error("GeoIP: Failed to create directory", "dir", filepath.Dir(dbPath), "error", err)
			return
		}
		s.logger.Info("GeoIP: Database missing, downloading...")
		if err := s.updateGeoDB(); err != nil {
			s.logger.Error("GeoIP: Initial download failed", "error", err)
			return
		}
	}

	s.reloadReader(dbPath)
}

func (s *GeoIPService) hasCredentials() bool {
	return s.cfg.MaxMindAccountID != "" && s.cfg.MaxMindLicenseKey != ""
}

func (s *GeoIPService) StartUpdater(ctx context.Context) {
	s.StartUpdaterWithInterval(ctx, 24*time.Hour)
}

func (s *GeoIPService) StartUpdaterWithInterval(ctx context.Context, interval time.Duration) {
	if !s.hasCredentials() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logger.Info("GeoIP: Running scheduled update...")
			if err := s.updateGeoDB(); err != nil {
				s.logger.Error("GeoIP: Update failed", "error", err)
				continue
			}
			s.reloadReader(s.cfg.MaxMindDBPath)
		case <-ctx.Done():
			s.logger.Info("GeoIP: Updater stopping")
			return
		}
	}
}

func (s *GeoIPService) updateGeoDB() error {
	dbDir := filepath.Dir(s.cfg.MaxMindDBPath)
	confPath := filepath.Join(dbDir, "GeoIP.conf")

	content := fmt.Sprintf("AccountID %s\nLicenseKey %s\nEditionIDs %s\nDatabaseDirectory %s\n",
		s.cfg.MaxMindAccountID, s.cfg.MaxMindLicenseKey, s.cfg.MaxMindEditionIDs, dbDir)

	if err := os.WriteFile(confPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write GeoIP.conf: %w", err)
	}
	defer os.Remove(confPath)

	cmd := exec.Command("geoipupdate", "-v", "-f", confPath, "-d", dbDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("geoipupdate failed: %w, output: %s", err, string(output))
	}

	s.logger.Info("GeoIP: Database updated successfully")
	return nil
}

func (s *GeoIPService) reloadReader(path string) {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()

	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}
	s.probe.Reset()

	reader, err := s.openFunc(path)
	if err != nil {
		s.logger.Error("GeoIP: Failed to open database", "path", path, "error", err)
		return
	}
	s.geoReader = reader

	meta := reader.Metadata()
	s.logger.Info("GeoIP: Loaded database", "type", meta.DatabaseType, "epoch", meta.BuildEpoch)
}

// Close releases the database file.
func (s *GeoIPService) Close() error {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader == nil {
		return nil
	}
	err := s.geoReader.Close()
	s.geoReader = nil
	return err
}

// Locate returns the best-effort country and city for ipStr. Either may
// be nil; no failure here is ever fatal.
func (s *GeoIPService) Locate(ipStr string) (country, city *string) {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil || isNonPublic(addr) {
		return nil, nil
	}

	// The read lock is held through the lookup so a reload cannot close
	// the reader underneath it.
	s.geoLock.RLock()
	defer s.geoLock.RUnlock()

	reader := s.geoReader
	if !s.probe.Available(reader) {
		return nil, nil
	}

	record, err := reader.City(net.IP(addr.AsSlice()))
	if err != nil {
		s.lookupErr.Do(func() {
			s.logger.Warn("GeoIP: Lookup error, further errors suppressed", "ip", ipStr, "error", err)
		})
		return nil, nil
	}

	if name, ok := record.Country.Names["en"]; ok && name != "" {
		country = &name
	} else if record.Country.IsoCode != "" {
		code := record.Country.IsoCode
		country = &code
	}
	if name, ok := record.City.Names["en"]; ok && name != "" {
		city = &name
	}
	return country, city
}

// isNonPublic covers loopback, RFC 1918 / RFC 4193 private ranges,
// link-local and unspecified addresses.
func isNonPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
