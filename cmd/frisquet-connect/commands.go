package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/frisquet/internal/connect"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/ui"
)

var pairCmd = &cobra.Command{
	Use:       "pair {connect|sonde|satellite-z1|satellite-z2|satellite-z3}",
	Short:     "Pair with the boiler as a Connect box, a probe or a satellite",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"connect", "sonde", "satellite-z1", "satellite-z2", "satellite-z3"},
	Long: `Run the association handshake with a boiler in association mode.

The boiler broadcasts announces on the broadcast network; each one is
answered and the last announce seen before the boiler falls silent wins.
The resulting network id, association id and request id are saved in the
configuration file. Pairing the probe also schedules its init exchange.`,
	RunE: runPair,
}

var (
	pairWait time.Duration
	pairYes  bool
)

func init() {
	pairCmd.Flags().DurationVar(&pairWait, "wait", connect.DefaultPairWait, "How long to wait for the first announce")
	pairCmd.Flags().BoolVar(&pairYes, "yes", false, "Replace an existing pairing without asking")

	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(dateCmd)
	rootCmd.AddCommand(sensorsCmd)
	rootCmd.AddCommand(newDataCmd("data1", "Read the first register dump", (*connect.Session).Data1))
	rootCmd.AddCommand(newDataCmd("data3", "Read the third register dump", (*connect.Session).Data3))
	rootCmd.AddCommand(newDataCmd("data4", "Send the data4 command and print its reply", (*connect.Session).Data4))
	rootCmd.AddCommand(area1Cmd)
	rootCmd.AddCommand(sleepCmd)
	rootCmd.AddCommand(decodeCmd)
}

func runPair(cmd *cobra.Command, args []string) error {
	entity, err := connect.ParseEntity(args[0])
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}

	title := "PAIRING " + strings.ToUpper(entity.String())
	if _, err := a.cfg.Association(entity); err == nil && !pairYes {
		if !ui.ConfirmRepair(os.Stdin, os.Stdout, entity.String()) {
			a.printer.PrintWarning("PAIRING CANCELLED", ui.D("Entity", entity))
			return nil
		}
	}

	t, via, err := openTransport(a.cfg)
	if err != nil {
		return a.fail(title+" FAILED", err)
	}
	defer t.Close()

	a.printer.PrintHeader(title, cmd.CommandPath(),
		ui.D("Address", fmt.Sprintf("%02x", entity.Addr())),
		ui.D("Transport", via),
		ui.D("Wait", pairWait),
	)

	ctx, stop := signalContext()
	defer stop()
	closeOnCancel(ctx, t)

	assoc, err := ui.RunPairing(entity, stop, func(onState func(connect.State)) (*protocol.Association, error) {
		return connect.Pair(ctx, t, entity, connect.PairOptions{Wait: pairWait, OnState: onState})
	})
	if err != nil {
		return a.fail(title+" FAILED", err)
	}

	a.cfg.SetAssociation(entity, assoc)
	if entity == connect.EntitySonde {
		a.cfg.MarkSondeInit(true)
	}
	if err := a.save(); err != nil {
		return a.fail("CONFIGURATION NOT SAVED", err)
	}

	a.printer.PrintSuccess("PAIRED AS "+strings.ToUpper(entity.String()),
		ui.D("Network ID", hex.EncodeToString(assoc.NetworkIDBytes())),
		ui.D("Association ID", fmt.Sprintf("%02x", assoc.AssociationID)),
		ui.D("Request ID", fmt.Sprintf("%02x", assoc.RequestID)),
		ui.D("Saved to", a.cfg.Path()),
	)
	return nil
}

// printReply prints a reply frame rebuilt from its header and decoded body.
func (a *app) printReply(meta protocol.Metadata, body protocol.Body) {
	frame, err := protocol.Encode(meta, body)
	if err != nil {
		a.printer.Println(fmt.Sprint(body))
		return
	}
	a.printer.PrintFrame(meta, frame, body)
	a.printer.Newline()
}

var dateCmd = &cobra.Command{
	Use:   "date",
	Short: "Read the boiler clock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.withSession(cmd, connect.EntityConnect, "BOILER DATE", func(ctx context.Context, s *connect.Session) error {
			meta, date, err := s.Date(ctx)
			if err != nil {
				return err
			}
			a.printReply(meta, date)
			details := []ui.Detail{ui.D("Date", date)}
			if t, err := date.Time(time.Local); err == nil {
				details = append(details, ui.D("Drift", time.Since(t).Round(time.Second)))
			}
			a.printer.PrintSuccess("BOILER DATE", details...)
			return nil
		})
	},
}

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "Read the boiler temperatures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.withSession(cmd, connect.EntityConnect, "BOILER SENSORS", func(ctx context.Context, s *connect.Session) error {
			meta, sensors, err := s.Sensors(ctx)
			if err != nil {
				return err
			}
			a.printReply(meta, sensors)
			var details []ui.Detail
			for _, f := range sensors.Fields() {
				details = append(details, ui.D(f.Name, f.Value))
			}
			a.printer.PrintSuccess("BOILER SENSORS", details...)
			return nil
		})
	},
}

type dataFunc func(*connect.Session, context.Context) (protocol.Metadata, *protocol.DataBody, error)

func newDataCmd(name, short string, read dataFunc) *cobra.Command {
	title := strings.ToUpper(name)
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.withSession(cmd, connect.EntityConnect, title, func(ctx context.Context, s *connect.Session) error {
				meta, data, err := read(s, ctx)
				if err != nil {
					return err
				}
				a.printReply(meta, data)
				a.printer.PrintSuccess(title, ui.D("Length", data.Length), ui.D("Items", hex.EncodeToString(data.Items)))
				return nil
			})
		},
	}
}

var area1Cmd = &cobra.Command{
	Use:   "area1",
	Short: "Write the configured area 1 program",
	Long: `Write the area1 section of the configuration to the boiler.

The boiler clock is read first to resolve the current comfort tier. The
write is retried until the boiler acknowledges it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		program, err := a.cfg.Area1.Program()
		if err != nil {
			return a.fail("INVALID AREA 1 PROGRAM", err)
		}
		return a.withSession(cmd, connect.EntityConnect, "AREA 1 PROGRAM", func(ctx context.Context, s *connect.Session) error {
			body, err := s.WriteArea(ctx, program)
			if err != nil {
				return err
			}
			details := []ui.Detail{ui.D("Mode", program.Mode)}
			for _, f := range body.Fields() {
				details = append(details, ui.D(f.Name, f.Value))
			}
			a.printer.PrintSuccess("AREA 1 PROGRAM ACKNOWLEDGED", details...)
			return nil
		})
	},
}

var sleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Put the bridge radio to sleep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		t, via, err := openTransport(a.cfg)
		if err != nil {
			return a.fail("SLEEP FAILED", err)
		}
		defer t.Close()
		if err := t.Sleep(); err != nil {
			return a.fail("SLEEP FAILED", protocol.NewTransportError("sleep command failed", err))
		}
		a.printer.PrintSuccess("RADIO ASLEEP", ui.D("Transport", via))
		return nil
	},
}

var decodeKind string

var decodeCmd = &cobra.Command{
	Use:   "decode HEX",
	Short: "Decode a captured frame",
	Long: `Decode a frame given in hex as the body kind named by --as.

Kinds: raw, command, ack, association-announce, association-reply, date,
sensors, area, boiler, holiday, data, sonde-init, sonde-init-reply,
sonde-temperature, sonde-temperature-reply.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printer := ui.NewPrinter(cmd.OutOrStdout())
		meta, body, frame, err := decodeFrame(args[0], decodeKind)
		if err != nil {
			printer.PrintError("DECODE FAILED", err)
			return errReported
		}
		printer.PrintFrame(meta, frame, body)
		return nil
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeKind, "as", "raw", "Body kind")
}

// decodeFrame parses a hex frame as the named body kind.
func decodeFrame(hexFrame, kind string) (protocol.Metadata, protocol.Body, []byte, error) {
	frame, err := hex.DecodeString(strings.TrimSpace(hexFrame))
	if err != nil {
		return protocol.Metadata{}, nil, nil, protocol.NewDecodeError("frame is not valid hex", []byte(hexFrame))
	}
	k, err := protocol.ParseKind(kind)
	if err != nil {
		return protocol.Metadata{}, nil, frame, err
	}
	body, err := protocol.NewBody(k)
	if err != nil {
		return protocol.Metadata{}, nil, frame, err
	}
	meta, err := protocol.Decode(frame, body)
	if err != nil {
		return meta, nil, frame, err
	}
	return meta, body, frame, nil
}
