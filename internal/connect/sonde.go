package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"go.uber.org/zap"
)

// DefaultSondeInterval is the period between two temperature reports.
const DefaultSondeInterval = 3 * time.Minute

// TemperatureSource provides the outside temperature in degrees Celsius.
type TemperatureSource interface {
	Temperature(ctx context.Context) (float64, error)
}

// SondeConfig holds the probe emulation settings
type SondeConfig struct {
	Interval time.Duration // Period between reports (DefaultSondeInterval if zero)
	SendInit bool          // Send the init exchange once before the first report

	// OnInit is called after a successful init exchange, typically to clear
	// the persisted SendInit flag.
	OnInit func() error
	// OnReport is called after every acknowledged report, typically to
	// persist the advanced request id.
	OnReport func(celsius float64, boilerTime *protocol.DateBody) error
}

// SondeService emulates an external temperature probe: it periodically reads
// a temperature source and reports it to the boiler.
type SondeService struct {
	session *Session
	source  TemperatureSource
	config  SondeConfig
}

// NewSondeService creates a probe service speaking through session, which
// must use the probe address and association.
func NewSondeService(session *Session, source TemperatureSource, config SondeConfig) *SondeService {
	if config.Interval <= 0 {
		config.Interval = DefaultSondeInterval
	}
	return &SondeService{session: session, source: source, config: config}
}

// Run sends the init exchange when configured, then reports the temperature
// every interval until ctx is done. A report the boiler does not acknowledge
// in time is logged and retried at the next interval; any other failure ends
// the loop.
func (s *SondeService) Run(ctx context.Context) error {
	if s.config.SendInit {
		if _, err := s.session.SondeInit(ctx); err != nil {
			return fmt.Errorf("sonde init failed: %w", err)
		}
		logging.Info("Sonde init acknowledged")
		s.config.SendInit = false
		if s.config.OnInit != nil {
			if err := s.config.OnInit(); err != nil {
				return err
			}
		}
	}

	for {
		if err := s.ReportOnce(ctx); err != nil {
			if !protocol.IsTimeout(err) {
				return err
			}
			logging.Warn("Sonde report not acknowledged", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.Interval):
		}
	}
}

// ReportOnce reads the source and sends one temperature report.
func (s *SondeService) ReportOnce(ctx context.Context) error {
	celsius, err := s.source.Temperature(ctx)
	if err != nil {
		return fmt.Errorf("failed to read outside temperature: %w", err)
	}

	logging.Info("Reporting outside temperature", zap.Float64("celsius", celsius))
	_, reply, err := s.session.SondeTemperature(ctx, celsius)
	if err != nil {
		return err
	}

	if s.config.OnReport != nil {
		return s.config.OnReport(celsius, &reply.DateBody)
	}
	return nil
}

// FixedTemperature is a TemperatureSource returning a constant.
type FixedTemperature float64

func (f FixedTemperature) Temperature(context.Context) (float64, error) {
	return float64(f), nil
}
