package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/frisquet/internal/capture"
	"github.com/muurk/frisquet/internal/config"
	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"github.com/muurk/frisquet/internal/ui"
)

var (
	captureDir      string
	replayPath      string
	sniffNetworkHex string
	liveAddr        string
)

var promiscuousCmd = &cobra.Command{
	Use:     "promiscuous",
	Aliases: []string{"sniff"},
	Short:   "Decode the traffic of an existing Connect box",
	Long: `Listen on the boiler network and decode every exchange between the
boiler and a Connect box.

Requests are classified by their command bytes and their replies decoded
accordingly. With --capture-dir every frame is appended to a JSON lines
capture; --replay reads such a capture back instead of the radio. With
--serve the same records are streamed to WebSocket clients.`,
	Example: `  # Record the traffic of the Connect box
  frisquet-connect promiscuous --capture-dir ./captures

  # Decode a previous capture offline
  frisquet-connect promiscuous --replay ./captures/capture-20240101-120000.jsonl`,
	Args: cobra.NoArgs,
	RunE: runPromiscuous,
}

func init() {
	promiscuousCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory to record frames into")
	promiscuousCmd.Flags().StringVar(&replayPath, "replay", "", "Replay a capture file instead of listening")
	promiscuousCmd.Flags().StringVar(&sniffNetworkHex, "network-id", "", "Network id to listen on (default: frisquet.network_id)")
	promiscuousCmd.Flags().StringVar(&liveAddr, "serve", "", "Stream decoded frames to WebSocket clients on this address (path /live)")

	rootCmd.AddCommand(promiscuousCmd)
}

// sniffNetworkID resolves the network to listen on: the flag, then the
// configured Connect network.
func sniffNetworkID(cfg *config.Config, flag string) ([]byte, error) {
	if flag != "" {
		var id config.NetworkID
		if err := id.UnmarshalText([]byte(flag)); err != nil {
			return nil, protocol.NewConfigError("invalid --network-id %q: %v", flag, err)
		}
		return id[:], nil
	}
	if cfg.Frisquet == nil || cfg.Frisquet.NetworkID == nil {
		return nil, protocol.NewConfigError("missing required config: frisquet.network_id (or pass --network-id)")
	}
	return cfg.Frisquet.NetworkID[:], nil
}

func runPromiscuous(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	sigCtx, stop := signalContext()
	defer stop()
	g, ctx := errgroup.WithContext(sigCtx)

	var (
		t         rf.Transport
		via       string
		networkID = make([]byte, 4)
	)
	if replayPath != "" {
		replay, err := capture.OpenReplay(replayPath)
		if err != nil {
			return a.fail("REPLAY FAILED", err)
		}
		t, via = replay, fmt.Sprintf("replay %s (%d frames)", replayPath, replay.Len())
	} else {
		if networkID, err = sniffNetworkID(a.cfg, sniffNetworkHex); err != nil {
			return a.fail("PROMISCUOUS FAILED", err)
		}
		r, v, err := openTransport(a.cfg)
		if err != nil {
			return a.fail("PROMISCUOUS FAILED", err)
		}
		defer r.Close()
		closeOnCancel(ctx, r)
		t, via = r, v
	}

	params := []ui.Detail{ui.D("Network", hex.EncodeToString(networkID)), ui.D("Source", via)}

	sniffer := connect.NewSniffer(t, networkID)
	var recorder *capture.Recorder
	if captureDir != "" {
		if recorder, err = capture.NewRecorder(captureDir); err != nil {
			return a.fail("PROMISCUOUS FAILED", err)
		}
		defer recorder.Close()
		params = append(params, ui.D("Capture", recorder.Path()))
	}

	var live *capture.Live
	if liveAddr != "" {
		live = capture.NewLive()
		params = append(params, ui.D("Live", "ws://"+liveAddr+"/live"))
	}

	a.printer.PrintHeader("PROMISCUOUS", cmd.CommandPath(), params...)

	count := 0
	sniffer.OnObservation = func(obs *connect.Observation) {
		count++
		a.printer.PrintObservation(obs)
		if recorder != nil {
			recorder.Record(obs)
		}
		if live != nil {
			live.Publish(obs)
		}
	}

	g.Go(func() error {
		err := sniffer.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil && live != nil {
			// keep serving after a replay ends until interrupted
			<-ctx.Done()
		}
		return err
	})
	if live != nil {
		g.Go(func() error {
			return live.Serve(ctx, liveAddr)
		})
	}
	if err := g.Wait(); err != nil {
		return a.fail("PROMISCUOUS FAILED", err)
	}
	logging.Debug("Sniffer stopped", zap.Int("frames", count), zap.Int("pending", sniffer.Pending()))

	a.printer.Newline()
	a.printer.PrintSuccess("PROMISCUOUS DONE",
		ui.D("Frames", count),
		ui.D("Unanswered", sniffer.Pending()),
	)
	return nil
}
