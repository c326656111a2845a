package connect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/metrics"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"go.uber.org/zap"
)

// Default wait windows
const (
	DefaultProgramTimeout = 5 * time.Second
	DefaultProgramRetries = 3
	DefaultSondeTimeout   = 15 * time.Second
)

// Session runs correlated request/reply exchanges for one paired entity.
//
// A Session owns its transport for the duration of each call and is not safe
// for concurrent use: the request id sequence in the association allows a
// single outstanding request.
type Session struct {
	transport rf.Transport
	assoc     *protocol.Association
	addr      byte

	// ProgramTimeout bounds each program write attempt.
	ProgramTimeout time.Duration
	// ProgramRetries is the number of timed out attempts (request id +1 each)
	// before a fresh canonical request id is drawn.
	ProgramRetries int
	// SondeTimeout bounds the single attempt of probe exchanges.
	SondeTimeout time.Duration
}

// NewSession creates a session speaking as addr (protocol.AddrConnect or
// protocol.AddrSonde) with the given association. The association is
// updated in place as request ids are consumed.
func NewSession(t rf.Transport, addr byte, assoc *protocol.Association) *Session {
	return &Session{
		transport:      t,
		assoc:          assoc,
		addr:           addr,
		ProgramTimeout: DefaultProgramTimeout,
		ProgramRetries: DefaultProgramRetries,
		SondeTimeout:   DefaultSondeTimeout,
	}
}

// Association returns the association the session advances.
func (s *Session) Association() *protocol.Association {
	return s.assoc
}

// begin selects the network and draws the next canonical request id.
func (s *Session) begin() (byte, error) {
	if err := s.transport.SetNetworkID(s.assoc.NetworkIDBytes()); err != nil {
		return 0, protocol.NewTransportError("failed to set network id", err)
	}
	return s.assoc.NextRequestID(), nil
}

func (s *Session) send(requestID, control, msgType byte, body protocol.Body) error {
	err := protocol.SendCmd(s.transport, s.addr, protocol.AddrBoiler, s.assoc.AssociationID, requestID, control, msgType, body)
	if err == nil {
		metrics.RecordFrame("send")
	}
	return err
}

// receiveError wraps a failed receive. A receive failing because the
// transport was closed on cancellation reports the cancellation instead.
func receiveError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return protocol.NewTransportError("receive failed", err)
}

// matches reports whether frame is the boiler's reply to requestID.
func (s *Session) matches(frame []byte, requestID byte) bool {
	return protocol.Filter(frame, protocol.AddrBoiler, s.addr, s.assoc.AssociationID, requestID)
}

// decodeReply decodes a matching frame, logging and discarding it when the
// body does not decode.
func decodeReply(frame []byte, reply protocol.Body) (protocol.Metadata, bool) {
	meta, err := protocol.Decode(frame, reply)
	if err != nil {
		logging.Warn("Discarding undecodable reply",
			zap.String("kind", reply.Kind().String()),
			zap.Error(err),
		)
		return meta, false
	}
	logging.LogFrame("recv", meta.String(), frame)
	return meta, true
}

// query sends one request and blocks on Recv until a matching reply decodes.
// It never gives up on its own; ctx is checked between receives.
func (s *Session) query(ctx context.Context, name string, control, msgType byte, body, reply protocol.Body) (meta protocol.Metadata, err error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(name, err, time.Since(start)) }()

	requestID, err := s.begin()
	if err != nil {
		return meta, err
	}
	if err := s.send(requestID, control, msgType, body); err != nil {
		return meta, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return meta, err
		}
		frame, err := s.transport.Recv()
		if err != nil {
			return meta, receiveError(ctx, err)
		}
		metrics.RecordFrame("recv")
		if !s.matches(frame, requestID) {
			continue
		}
		if meta, ok := decodeReply(frame, reply); ok {
			return meta, nil
		}
	}
}

// Date reads the boiler clock.
func (s *Session) Date(ctx context.Context) (protocol.Metadata, *protocol.DateBody, error) {
	var date protocol.DateBody
	meta, err := s.query(ctx, "date", protocol.ControlRequest, protocol.MsgTypeRead, protocol.DateQuery(), &date)
	if err != nil {
		return meta, nil, err
	}
	return meta, &date, nil
}

// Sensors reads the temperature snapshot.
func (s *Session) Sensors(ctx context.Context) (protocol.Metadata, *protocol.SensorsBody, error) {
	var sensors protocol.SensorsBody
	meta, err := s.query(ctx, "sensors", protocol.ControlRequest, protocol.MsgTypeRead, protocol.SensorsQuery(), &sensors)
	if err != nil {
		return meta, nil, err
	}
	metrics.SetBoilerTemperatures(sensors.Readings())
	return meta, &sensors, nil
}

// Data1 reads the first opaque register dump.
func (s *Session) Data1(ctx context.Context) (protocol.Metadata, *protocol.DataBody, error) {
	return s.data(ctx, "data1", protocol.MsgTypeRead, protocol.Data1Query())
}

// Data3 reads the third opaque register dump.
func (s *Session) Data3(ctx context.Context) (protocol.Metadata, *protocol.DataBody, error) {
	return s.data(ctx, "data3", protocol.MsgTypeRead, protocol.Data3Query())
}

// Data4 sends the data4 command and returns its opaque reply.
func (s *Session) Data4(ctx context.Context) (protocol.Metadata, *protocol.DataBody, error) {
	return s.data(ctx, "data4", protocol.MsgTypeCommand, protocol.Data4Query())
}

func (s *Session) data(ctx context.Context, name string, msgType byte, query *protocol.Command) (protocol.Metadata, *protocol.DataBody, error) {
	var data protocol.DataBody
	meta, err := s.query(ctx, name, protocol.ControlRequest, msgType, query, &data)
	if err != nil {
		return meta, nil, err
	}
	return meta, &data, nil
}

// WriteProgram sends an area program and waits for the boiler's
// acknowledgement.
//
// Each attempt waits ProgramTimeout. A timed out attempt is resent with the
// request id incremented by one; after ProgramRetries timeouts the request id
// is replaced by the next canonical one and the count restarts. Timeouts never
// end the loop: only a reply, a transport failure or ctx does.
func (s *Session) WriteProgram(ctx context.Context, body *protocol.AreaBody) (meta protocol.Metadata, err error) {
	start := time.Now()
	defer func() { metrics.RecordRequest("program", err, time.Since(start)) }()

	requestID, err := s.begin()
	if err != nil {
		return meta, err
	}

	retry := 0
	for {
		if err := ctx.Err(); err != nil {
			return meta, err
		}
		if err := s.send(requestID, protocol.ControlProgramWrite, protocol.MsgTypeCommand, body); err != nil {
			return meta, err
		}

		meta, ok, err := s.awaitWithin(ctx, requestID, s.ProgramTimeout, &protocol.Ack{})
		if err != nil {
			return meta, err
		}
		if ok {
			return meta, nil
		}

		metrics.RecordProgramRetry()
		retry++
		requestID++
		if retry == s.ProgramRetries {
			retry = 0
			requestID = s.assoc.NextRequestID()
		}
		logging.Info("Program write timed out, retrying",
			zap.Int("retry", retry),
			zap.String("request_id", fmt.Sprintf("%02x", requestID)),
		)
	}
}

// awaitWithin waits up to timeout for a decodable reply to requestID.
// Unrelated frames do not extend the window. ok is false when the window
// elapsed.
func (s *Session) awaitWithin(ctx context.Context, requestID byte, timeout time.Duration, reply protocol.Body) (protocol.Metadata, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return protocol.Metadata{}, false, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return protocol.Metadata{}, false, nil
		}
		frame, err := s.transport.RecvTimeout(remaining)
		if errors.Is(err, rf.ErrTimeout) {
			return protocol.Metadata{}, false, nil
		}
		if err != nil {
			return protocol.Metadata{}, false, receiveError(ctx, err)
		}
		metrics.RecordFrame("recv")
		if !s.matches(frame, requestID) {
			continue
		}
		if meta, ok := decodeReply(frame, reply); ok {
			return meta, true, nil
		}
	}
}

// single sends one probe request and waits SondeTimeout for its reply. A
// timeout is returned as an error.
func (s *Session) single(ctx context.Context, name string, msgType byte, body, reply protocol.Body) (meta protocol.Metadata, err error) {
	start := time.Now()
	defer func() { metrics.RecordRequest(name, err, time.Since(start)) }()

	requestID, err := s.begin()
	if err != nil {
		return meta, err
	}
	if err := s.send(requestID, protocol.ControlRequest, msgType, body); err != nil {
		return meta, err
	}

	meta, ok, err := s.awaitWithin(ctx, requestID, s.SondeTimeout, reply)
	if err != nil {
		return meta, err
	}
	if !ok {
		return meta, &protocol.Error{
			Type:    protocol.ErrTypeTimeout,
			Message: fmt.Sprintf("no %s reply within %s (request id %02x)", name, s.SondeTimeout, requestID),
			Err:     rf.ErrTimeout,
		}
	}
	return meta, nil
}

// SondeInit announces a freshly paired probe to the boiler.
func (s *Session) SondeInit(ctx context.Context) (protocol.Metadata, error) {
	return s.single(ctx, "sonde_init", protocol.MsgTypeSondeInit, protocol.NewSondeInit(), &protocol.SondeInitReply{})
}

// SondeTemperature reports the outside temperature; the boiler answers with
// its clock.
func (s *Session) SondeTemperature(ctx context.Context, celsius float64) (protocol.Metadata, *protocol.SondeTemperatureReply, error) {
	body, err := protocol.NewSondeTemperature(celsius)
	if err != nil {
		return protocol.Metadata{}, nil, err
	}
	var reply protocol.SondeTemperatureReply
	meta, err := s.single(ctx, "sonde_temperature", protocol.MsgTypeCommand, body, &reply)
	if err != nil {
		return meta, nil, err
	}
	metrics.SetSondeTemperature(protocol.Celsius(body.Temperature))
	return meta, &reply, nil
}
