package connect

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/metrics"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"go.uber.org/zap"
)

// Signature tags an in-flight request with the decoder for its reply.
type Signature int

const (
	SigUnknown Signature = iota
	SigDate
	SigSensors
	SigData1
	SigData3
	SigProgram
	SigBoiler
	SigCommand
)

// String returns the textual tag of the signature: the request's command
// bytes in hex, or "17" for an unclassified generic command.
func (s Signature) String() string {
	switch s {
	case SigDate:
		return "a02b0004"
	case SigSensors:
		return "79e0001c"
	case SigData1:
		return "79fc001c"
	case SigData3:
		return "7a34001c"
	case SigProgram:
		return hex.EncodeToString(protocol.SigProgramWrite[:])
	case SigBoiler:
		return hex.EncodeToString(protocol.SigBoilerStatus[:])
	case SigCommand:
		return "17"
	default:
		return "unknown"
	}
}

// Observation is one frame processed by the Sniffer.
type Observation struct {
	Time      time.Time
	Reply     bool
	Meta      protocol.Metadata
	Signature Signature
	// Body is the decoded body, or *protocol.Raw when it is not interpreted.
	Body  protocol.Body
	Frame []byte
	// Err is set when a tracked reply did not decode as its signature says.
	Err error
}

// Direction returns "request" or "reply".
func (o *Observation) Direction() string {
	if o.Reply {
		return "reply"
	}
	return "request"
}

type inflight struct {
	sig     Signature
	payload string
}

// Sniffer passively decodes the traffic of the Connect box.
//
// It keeps only frames to or from the Connect address. An untracked request
// id is recorded as a new request along with a signature derived from its
// body; the next frame carrying the same request id is decoded as its reply
// and the entry is dropped. Decode failures are logged and never stop it.
type Sniffer struct {
	transport rf.Transport
	networkID []byte
	inflight  map[byte]inflight
	now       func() time.Time

	// OnObservation, when set, receives every observation.
	OnObservation func(*Observation)
}

// NewSniffer creates a sniffer listening on networkID.
func NewSniffer(t rf.Transport, networkID []byte) *Sniffer {
	return &Sniffer{
		transport: t,
		networkID: networkID,
		inflight:  make(map[byte]inflight),
		now:       time.Now,
	}
}

// InFlight returns the signature recorded for requestID, if any.
func (s *Sniffer) InFlight(requestID byte) (Signature, bool) {
	e, ok := s.inflight[requestID]
	return e.sig, ok
}

// Pending returns the number of requests waiting for a reply.
func (s *Sniffer) Pending() int {
	return len(s.inflight)
}

// Run receives frames until ctx is done or the transport fails. A closed
// transport (end of a replay) ends the loop without error.
func (s *Sniffer) Run(ctx context.Context) error {
	if err := s.transport.SetNetworkID(s.networkID); err != nil {
		return protocol.NewTransportError("failed to set network id", err)
	}
	logging.Info("Listening for Connect traffic", zap.String("network_id", hex.EncodeToString(s.networkID)))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := s.transport.Recv()
		if errors.Is(err, rf.ErrClosed) {
			return nil
		}
		if err != nil {
			return protocol.NewTransportError("receive failed", err)
		}
		metrics.RecordFrame("recv")
		s.Observe(frame)
	}
}

// Observe processes one frame. It returns nil when the frame was dropped.
func (s *Sniffer) Observe(frame []byte) *Observation {
	meta, err := protocol.DecodeMetadata(frame)
	if err != nil {
		logging.Warn("Dropping frame with undecodable header", zap.Error(err))
		return nil
	}
	if meta.FromAddr != protocol.AddrConnect && meta.ToAddr != protocol.AddrConnect {
		return nil
	}
	logging.LogFrame("recv", meta.String(), frame)

	var obs *Observation
	if entry, tracked := s.inflight[meta.RequestID]; tracked {
		obs = s.reply(meta, frame, entry)
		delete(s.inflight, meta.RequestID)
	} else {
		obs = s.request(meta, frame)
		if obs == nil {
			return nil
		}
		s.inflight[meta.RequestID] = inflight{sig: obs.Signature, payload: hex.EncodeToString(payload(frame))}
	}

	metrics.RecordObservation(obs.Direction(), obs.Signature.String())
	if s.OnObservation != nil {
		s.OnObservation(obs)
	}
	return obs
}

func payload(frame []byte) []byte {
	if len(frame) < protocol.HeaderSize {
		return nil
	}
	return frame[protocol.HeaderSize:]
}

// request classifies a new request. It returns nil when a classified
// command body does not decode.
func (s *Sniffer) request(meta protocol.Metadata, frame []byte) *Observation {
	obs := &Observation{Time: s.now(), Meta: meta, Frame: frame}
	data := payload(frame)

	if meta.MsgType != protocol.MsgTypeCommand {
		switch {
		case protocol.IsDateQuery(data):
			obs.Signature = SigDate
		case protocol.IsSensorsQuery(data):
			obs.Signature = SigSensors
		case protocol.IsData1Query(data):
			obs.Signature = SigData1
		case protocol.IsData3Query(data):
			obs.Signature = SigData3
		default:
			obs.Signature = SigUnknown
		}
		obs.Body = &protocol.Raw{Data: data}
		return obs
	}

	var body protocol.Body
	switch {
	case hasPrefix(data, protocol.SigProgramWrite):
		obs.Signature, body = SigProgram, &protocol.AreaBody{}
	case hasPrefix(data, protocol.SigBoilerStatus):
		obs.Signature, body = SigBoiler, &protocol.BoilerBody{}
	default:
		obs.Signature = SigCommand
		obs.Body = &protocol.Raw{Data: data}
		return obs
	}

	if _, err := protocol.Decode(frame, body); err != nil {
		logging.Warn("Dropping undecodable command",
			zap.Stringer("signature", obs.Signature),
			zap.Error(err),
			logging.Hex("payload", data),
		)
		return nil
	}
	obs.Body = body
	return obs
}

// reply decodes a frame answering a tracked request.
func (s *Sniffer) reply(meta protocol.Metadata, frame []byte, entry inflight) *Observation {
	obs := &Observation{Time: s.now(), Reply: true, Meta: meta, Signature: entry.sig, Frame: frame}
	raw := &protocol.Raw{Data: payload(frame)}

	var body protocol.Body
	switch entry.sig {
	case SigDate:
		body = &protocol.DateBody{}
	case SigSensors:
		body = &protocol.SensorsBody{}
	case SigData1, SigData3:
		body = &protocol.DataBody{}
	case SigProgram, SigBoiler, SigCommand:
		obs.Body = raw
		return obs
	default:
		logging.Warn("Reply to unknown command",
			zap.String("command", entry.payload),
			logging.Hex("payload", raw.Data),
		)
		obs.Body = raw
		obs.Err = fmt.Errorf("unknown command %s", entry.payload)
		return obs
	}

	if _, err := protocol.Decode(frame, body); err != nil {
		logging.Warn("Undecodable reply",
			zap.Stringer("signature", entry.sig),
			zap.Error(err),
		)
		obs.Body = raw
		obs.Err = err
		return obs
	}
	obs.Body = body
	return obs
}

func hasPrefix(data []byte, sig [4]byte) bool {
	return len(data) >= len(sig) && [4]byte(data[:4]) == sig
}
