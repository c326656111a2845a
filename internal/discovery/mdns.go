package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"golang.org/x/sync/errgroup"
)

const (
	// MQTTServiceType is advertised by MQTT brokers such as Mosquitto
	MQTTServiceType = "_mqtt._tcp"

	// HomeAssistantServiceType is advertised by Home Assistant's zeroconf integration
	HomeAssistantServiceType = "_home-assistant._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for service discovery
	DefaultScanTimeout = 5 * time.Second

	DefaultMQTTPort          = 1883
	DefaultHomeAssistantPort = 8123
)

// Scanner handles mDNS service discovery
type Scanner struct {
	// Timeout is how long each browse runs
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

func serviceType(k Kind) string {
	if k == KindHomeAssistant {
		return HomeAssistantServiceType
	}
	return MQTTServiceType
}

// Scan browses for one kind of service until the timeout or ctx expires.
func (s *Scanner) Scan(ctx context.Context, kind Kind) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		services = make([]*Service, 0)
	)
	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for entry := range entries {
			if svc := parseServiceEntry(kind, entry); svc != nil {
				mu.Lock()
				services = append(services, svc)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, serviceType(kind), ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for %s services: %w", serviceType(kind), err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return dedupe(services), nil
}

// ScanAll browses for MQTT brokers and Home Assistant instances at once.
// Brokers come first in the result.
func (s *Scanner) ScanAll(ctx context.Context) ([]*Service, error) {
	var brokers, instances []*Service
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		brokers, err = s.Scan(ctx, KindMQTT)
		return err
	})
	g.Go(func() (err error) {
		instances, err = s.Scan(ctx, KindHomeAssistant)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(brokers, instances...), nil
}

// dedupe drops repeated announcements of the same instance and sorts the
// rest by instance name.
func dedupe(services []*Service) []*Service {
	seen := make(map[string]bool)
	out := make([]*Service, 0, len(services))
	for _, svc := range services {
		key := svc.Instance + "|" + svc.IP
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

// parseServiceEntry converts a zeroconf service entry to a Service.
// Returns nil if the entry has no usable address.
func parseServiceEntry(kind Kind, entry *zeroconf.ServiceEntry) *Service {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultMQTTPort
		if kind == KindHomeAssistant {
			port = DefaultHomeAssistantPort
		}
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Service{
		Kind:         kind,
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
