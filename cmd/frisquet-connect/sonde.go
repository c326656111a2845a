package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/frisquet/internal/config"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/datasource"
	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/ui"
)

var sondeTemperature float64

var sondeCmd = &cobra.Command{
	Use:   "sonde",
	Short: "Report the outside temperature once",
	Long: `Report one outside temperature as the paired probe.

The temperature comes from --temperature when given, otherwise from the
home_assistant section of the configuration. A freshly paired probe sends
its init exchange first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		source, err := temperatureSource(a.cfg, cmd.Flags().Changed("temperature"))
		if err != nil {
			return a.fail("SONDE REPORT FAILED", err)
		}

		return a.withSession(cmd, connect.EntitySonde, "SONDE REPORT", func(ctx context.Context, s *connect.Session) error {
			if a.cfg.SondeInitPending() {
				if _, err := s.SondeInit(ctx); err != nil {
					return err
				}
				a.cfg.MarkSondeInit(false)
			}

			var reported float64
			var boiler *protocol.DateBody
			svc := connect.NewSondeService(s, source, connect.SondeConfig{
				OnReport: func(celsius float64, boilerTime *protocol.DateBody) error {
					reported, boiler = celsius, boilerTime
					return nil
				},
			})
			if err := svc.ReportOnce(ctx); err != nil {
				return err
			}
			a.printer.PrintSuccess("TEMPERATURE REPORTED",
				ui.D("Temperature", reported),
				ui.D("Boiler date", boiler),
			)
			return nil
		})
	},
}

var metricsAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Report the outside temperature periodically",
	Long: `Run the probe service until interrupted.

The Home Assistant temperature is reported every sonde_interval (3 minutes
by default). Reports the boiler does not acknowledge are retried at the
next interval. Prometheus metrics are served on --metrics-addr when set.`,
	Args: cobra.NoArgs,
	RunE: runService,
}

func init() {
	sondeCmd.Flags().Float64Var(&sondeTemperature, "temperature", 0, "Temperature to report in °C instead of the Home Assistant value")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9100)")

	rootCmd.AddCommand(sondeCmd)
	rootCmd.AddCommand(runCmd)
}

// temperatureSource picks the fixed flag value or the Home Assistant entity.
func temperatureSource(cfg *config.Config, fixed bool) (connect.TemperatureSource, error) {
	if fixed {
		return connect.FixedTemperature(sondeTemperature), nil
	}
	if cfg.HomeAssistant == nil {
		return nil, protocol.NewConfigError("no temperature source: pass --temperature or add a home_assistant section to %s", cfg.Path())
	}
	return datasource.NewHomeAssistant(*cfg.HomeAssistant), nil
}

func runService(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	source, err := temperatureSource(a.cfg, false)
	if err != nil {
		return a.fail("SONDE SERVICE FAILED", err)
	}
	addr := metricsAddr
	if addr == "" {
		addr = a.cfg.MetricsAddr
	}

	return a.withSession(cmd, connect.EntitySonde, "SONDE SERVICE", func(ctx context.Context, s *connect.Session) error {
		svc := connect.NewSondeService(s, source, connect.SondeConfig{
			Interval: a.cfg.SondeInterval,
			SendInit: a.cfg.SondeInitPending(),
			OnInit: func() error {
				a.cfg.MarkSondeInit(false)
				return a.save()
			},
			OnReport: func(celsius float64, boilerTime *protocol.DateBody) error {
				a.cfg.SetAssociation(connect.EntitySonde, s.Association())
				if err := a.save(); err != nil {
					return err
				}
				logging.Info("Temperature acknowledged",
					zap.Float64("celsius", celsius),
					zap.Stringer("boiler_time", boilerTime),
				)
				return nil
			},
		})

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			err := svc.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		if addr != "" {
			g.Go(func() error {
				return serveMetrics(ctx, addr)
			})
		}
		return g.Wait()
	})
}

// serveMetrics serves /metrics on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
