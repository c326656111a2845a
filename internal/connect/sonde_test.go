package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf/rftest"
)

// replyToProbe scripts the boiler: every probe request is answered.
func replyToProbe(t *testing.T) func(tr *rftest.Transport, frame []byte) {
	return func(tr *rftest.Transport, frame []byte) {
		meta, err := protocol.DecodeMetadata(frame)
		if err != nil {
			t.Errorf("sent undecodable frame %x", frame)
			return
		}
		reply := protocol.Metadata{
			ToAddr:        meta.FromAddr,
			FromAddr:      meta.ToAddr,
			AssociationID: meta.AssociationID,
			RequestID:     meta.RequestID,
			Control:       meta.Control | protocol.ControlReplyFlag,
			MsgType:       meta.MsgType,
		}
		var body protocol.Body = &protocol.SondeInitReply{}
		if meta.MsgType == protocol.MsgTypeCommand {
			body = &protocol.DateBody{Length: protocol.DateLength, Year: 0x24, Month: 0x01, Day: 0x15, Weekday: 1}
		}
		tr.Push(encodeFrame(t, reply, body))
	}
}

func TestSondeServiceRun(t *testing.T) {
	tr := rftest.New()
	tr.OnSend = replyToProbe(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var inits, reports int
	var reported float64
	svc := NewSondeService(NewSession(tr, protocol.AddrSonde, sondeAssociation(0x00)), FixedTemperature(-2.5), SondeConfig{
		Interval: time.Hour,
		SendInit: true,
		OnInit:   func() error { inits++; return nil },
		OnReport: func(celsius float64, boilerTime *protocol.DateBody) error {
			reports++
			reported = celsius
			if boilerTime.YearOfCentury() != 24 {
				t.Errorf("boiler time = %s", boilerTime)
			}
			cancel()
			return nil
		},
	})

	err := svc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if inits != 1 || reports != 1 {
		t.Errorf("inits = %d, reports = %d; want 1 and 1", inits, reports)
	}
	if reported != -2.5 {
		t.Errorf("reported = %v, want -2.5", reported)
	}
	if len(tr.Sent) != 2 || tr.Sent[0][6] != protocol.MsgTypeSondeInit || tr.Sent[1][6] != protocol.MsgTypeCommand {
		t.Errorf("sent = %v, want init then temperature", tr.SentHex())
	}
}

type failingSource struct{}

func (failingSource) Temperature(context.Context) (float64, error) {
	return 0, errors.New("home assistant unavailable")
}

func TestSondeServiceSourceFailure(t *testing.T) {
	tr := rftest.New()
	svc := NewSondeService(NewSession(tr, protocol.AddrSonde, sondeAssociation(0x00)), failingSource{}, SondeConfig{})

	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want source failure")
	}
	if len(tr.Sent) != 0 {
		t.Errorf("sent %d frames without a temperature", len(tr.Sent))
	}
}

func TestSondeServiceInitTimeout(t *testing.T) {
	tr := rftest.New()
	svc := NewSondeService(NewSession(tr, protocol.AddrSonde, sondeAssociation(0x00)), FixedTemperature(10), SondeConfig{SendInit: true})

	err := svc.Run(context.Background())
	if !protocol.IsTimeout(err) {
		t.Errorf("Run() error = %v, want init timeout", err)
	}
}

func TestSondeServiceInterruptedDuringReply(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := closedOnCancel{Transport: rftest.New(), cancel: cancel}
	svc := NewSondeService(NewSession(tr, protocol.AddrSonde, sondeAssociation(0x00)), FixedTemperature(3), SondeConfig{Interval: time.Hour})

	err := svc.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if protocol.IsType(err, protocol.ErrTypeTransport) {
		t.Errorf("Run() error = %v, reported as a transport failure", err)
	}
}
