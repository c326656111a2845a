package main

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/frisquet/internal/config"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"github.com/muurk/frisquet/internal/rf/mqtt"
	"github.com/muurk/frisquet/internal/rf/serial"
	"github.com/muurk/frisquet/internal/ui"
)

// radio is a transport owning a connection to the bridge board.
type radio interface {
	rf.Transport
	io.Closer
}

// Test seams
var (
	dialMQTT   = func(cfg mqtt.Config) (radio, error) { return mqtt.Dial(cfg) }
	openSerial = func(cfg serial.Config) (radio, error) { return serial.Open(cfg) }
)

// openTransport connects to the bridge board. The MQTT bridge wins when both
// transports are configured.
func openTransport(cfg *config.Config) (radio, string, error) {
	switch {
	case cfg.MQTT != nil:
		t, err := dialMQTT(*cfg.MQTT)
		if err != nil {
			return nil, "", protocol.NewTransportError("failed to connect to MQTT broker "+cfg.MQTT.Broker(), err)
		}
		return t, "mqtt " + cfg.MQTT.Broker(), nil
	case cfg.Serial != nil:
		t, err := openSerial(*cfg.Serial)
		if err != nil {
			return nil, "", protocol.NewTransportError("failed to open serial port "+cfg.Serial.Port, err)
		}
		return t, "serial " + cfg.Serial.Port, nil
	default:
		return nil, "", protocol.NewConfigError("no transport configured: add an mqtt or serial section to %s", cfg.Path())
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// closeOnCancel closes t once ctx is done, unblocking pending receives.
func closeOnCancel(ctx context.Context, t io.Closer) {
	context.AfterFunc(ctx, func() { _ = t.Close() })
}

// app bundles what every radio command needs.
type app struct {
	cfg     *config.Config
	printer *ui.Printer
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, printer: ui.NewPrinter(os.Stdout)}, nil
}

// fail prints err in an error box and returns errReported.
func (a *app) fail(title string, err error) error {
	a.printer.PrintError(title, err)
	return errReported
}

// save persists the configuration, logging failures.
func (a *app) save() error {
	if err := a.cfg.Save(); err != nil {
		logging.Error("Failed to save configuration", zap.String("path", a.cfg.Path()), zap.Error(err))
		return err
	}
	return nil
}

// sessionFunc is a radio exchange run by withSession.
type sessionFunc func(ctx context.Context, s *connect.Session) error

// withSession opens the transport and runs fn with a session for entity. The
// association, advanced by every request, is saved whatever the outcome.
func (a *app) withSession(cmd *cobra.Command, entity connect.Entity, title string, fn sessionFunc) error {
	assoc, err := a.cfg.Association(entity)
	if err != nil {
		return a.fail(title+" FAILED", err)
	}
	t, via, err := openTransport(a.cfg)
	if err != nil {
		return a.fail(title+" FAILED", err)
	}
	defer t.Close()

	a.printer.PrintHeader(title, cmd.CommandPath(),
		ui.D("Network", hex.EncodeToString(assoc.NetworkIDBytes())),
		ui.D("Association", assoc.String()),
		ui.D("Transport", via),
	)

	ctx, stop := signalContext()
	defer stop()
	closeOnCancel(ctx, t)

	session := connect.NewSession(t, entity.Addr(), assoc)
	runErr := fn(ctx, session)

	a.cfg.SetAssociation(entity, session.Association())
	saveErr := a.save()

	if runErr != nil {
		return a.fail(title+" FAILED", runErr)
	}
	if saveErr != nil {
		return a.fail("CONFIGURATION NOT SAVED", saveErr)
	}
	return nil
}
