package discovery

import (
	"fmt"
	"time"
)

// Kind identifies what a discovered service is.
type Kind int

const (
	KindMQTT Kind = iota
	KindHomeAssistant
)

func (k Kind) String() string {
	switch k {
	case KindMQTT:
		return "mqtt"
	case KindHomeAssistant:
		return "home-assistant"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Service is a service instance found on the local network
type Service struct {
	Kind Kind

	// Instance is the advertised instance name (e.g., "Home")
	Instance string

	// Hostname is the mDNS hostname (e.g., "homeassistant.local.")
	Hostname string

	// IP is the preferred address, IPv4 when available
	IP string

	Port int

	// Metadata contains the TXT record data
	// Home Assistant publishes "base_url", "internal_url" and "version"
	Metadata map[string]string

	DiscoveredAt time.Time
}

func (s *Service) String() string {
	return fmt.Sprintf("%s %q (%s) at %s:%d", s.Kind, s.Instance, s.Hostname, s.IP, s.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}

// HomeAssistantURL returns the base URL of a Home Assistant instance,
// preferring the advertised internal URL.
func (s *Service) HomeAssistantURL() string {
	for _, key := range []string{"internal_url", "base_url"} {
		if u := s.GetMetadata(key); u != "" {
			return u
		}
	}
	return fmt.Sprintf("http://%s:%d", s.IP, s.Port)
}
