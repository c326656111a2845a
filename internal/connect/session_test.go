package connect

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"github.com/muurk/frisquet/internal/rf/rftest"
	"github.com/muurk/frisquet/internal/schedule"
)

var testNetworkID = [4]byte{0x12, 0x34, 0x56, 0x78}

func connectAssociation(requestID byte) *protocol.Association {
	return &protocol.Association{NetworkID: testNetworkID, AssociationID: 0x12, RequestID: requestID}
}

func encodeFrame(t *testing.T, meta protocol.Metadata, body protocol.Body) []byte {
	t.Helper()
	frame, err := protocol.Encode(meta, body)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return frame
}

func TestSessionDate(t *testing.T) {
	tr := rftest.New()
	tr.PushHex("0f7e8012d48103082304051131172803") // stale request id
	tr.PushHex("0f7e2012d88103082304051131172803") // wrong source
	tr.PushHex("0e7e8012d88103082304051131172803") // matching header, bad length
	tr.PushHex("0f7e8012d88103082304051131172803")

	assoc := connectAssociation(0xd4)
	s := NewSession(tr, protocol.AddrConnect, assoc)

	meta, date, err := s.Date(context.Background())
	if err != nil {
		t.Fatalf("Date() error = %v", err)
	}

	if got := tr.SentHex(); len(got) != 1 || got[0] != "0a807e12d80103a02b0004" {
		t.Errorf("sent = %v, want [0a807e12d80103a02b0004]", got)
	}
	if len(tr.NetworkIDs) != 1 || !bytes.Equal(tr.NetworkIDs[0], testNetworkID[:]) {
		t.Errorf("network ids = %x, want [%x]", tr.NetworkIDs, testNetworkID)
	}
	if assoc.RequestID != 0xd8 {
		t.Errorf("request id = 0x%02x, want 0xd8", assoc.RequestID)
	}
	if meta.RequestID != 0xd8 || !meta.IsReply() {
		t.Errorf("reply meta = %s", meta)
	}
	if date.HourOfDay() != 11 || date.MinuteOfHour() != 31 || date.DayOfWeek() != 3 {
		t.Errorf("date = %s, want 11:31 weekday 3", date)
	}
	if len(tr.Events) != 0 {
		t.Errorf("%d events left unread", len(tr.Events))
	}
}

func TestSessionQueryTransportFailure(t *testing.T) {
	tr := rftest.New()
	tr.PushHex("0f7e8012d48103082304051131172803")
	s := NewSession(tr, protocol.AddrConnect, connectAssociation(0xd4))

	_, _, err := s.Sensors(context.Background())
	if !protocol.IsType(err, protocol.ErrTypeTransport) || !errors.Is(err, rf.ErrClosed) {
		t.Errorf("Sensors() error = %v, want transport error wrapping rf.ErrClosed", err)
	}
}

func TestSessionQueryCancelled(t *testing.T) {
	tr := rftest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewSession(tr, protocol.AddrConnect, connectAssociation(0)).Data1(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Data1() error = %v, want context.Canceled", err)
	}
}

// closedOnCancel cancels the command and fails the pending receive, as a
// transport closed on Ctrl-C does.
type closedOnCancel struct {
	*rftest.Transport
	cancel context.CancelFunc
}

func (c closedOnCancel) Recv() ([]byte, error) {
	c.cancel()
	return nil, rf.ErrClosed
}

func (c closedOnCancel) RecvTimeout(time.Duration) ([]byte, error) {
	c.cancel()
	return nil, rf.ErrClosed
}

func TestSessionClosedOnCancel(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, s *Session) error
	}{
		{
			name: "unbounded query",
			call: func(ctx context.Context, s *Session) error {
				_, _, err := s.Date(ctx)
				return err
			},
		},
		{
			name: "sonde window",
			call: func(ctx context.Context, s *Session) error {
				_, _, err := s.SondeTemperature(ctx, 4.5)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			tr := closedOnCancel{Transport: rftest.New(), cancel: cancel}

			err := tt.call(ctx, NewSession(tr, protocol.AddrConnect, connectAssociation(0)))
			if !errors.Is(err, context.Canceled) {
				t.Errorf("error = %v, want context.Canceled", err)
			}
		})
	}
}

func TestSessionDataQueries(t *testing.T) {
	tests := []struct {
		name     string
		call     func(s *Session) (*protocol.DataBody, error)
		wantSent string
	}{
		{
			name: "data1",
			call: func(s *Session) (*protocol.DataBody, error) {
				_, d, err := s.Data1(context.Background())
				return d, err
			},
			wantSent: "0a807e12040103" + "79fc001c",
		},
		{
			name: "data3",
			call: func(s *Session) (*protocol.DataBody, error) {
				_, d, err := s.Data3(context.Background())
				return d, err
			},
			wantSent: "0a807e12040103" + "7a34001c",
		},
		{
			name: "data4",
			call: func(s *Session) (*protocol.DataBody, error) {
				_, d, err := s.Data4(context.Background())
				return d, err
			},
			wantSent: "11807e12040117" + "a0f000159c400001020000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := rftest.New()
			tr.PushHex("097e801204810302aabb")
			s := NewSession(tr, protocol.AddrConnect, connectAssociation(0x00))

			data, err := tt.call(s)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got := tr.SentHex()[0]; got != tt.wantSent {
				t.Errorf("sent %s, want %s", got, tt.wantSent)
			}
			if hex.EncodeToString(data.Items) != "aabb" {
				t.Errorf("items = %x, want aabb", data.Items)
			}
		})
	}
}

func TestWriteProgramRetry(t *testing.T) {
	tr := rftest.New()
	tr.PushTimeout()
	tr.PushTimeout()
	tr.PushTimeout()
	tr.PushHex("077e801218881700")

	assoc := connectAssociation(0x10)
	s := NewSession(tr, protocol.AddrConnect, assoc)

	meta, err := s.WriteProgram(context.Background(), protocol.NewAreaBody())
	if err != nil {
		t.Fatalf("WriteProgram() error = %v", err)
	}
	if meta.RequestID != 0x18 {
		t.Errorf("acknowledged request id = 0x%02x, want 0x18", meta.RequestID)
	}

	var ids []byte
	for _, f := range tr.Sent {
		ids = append(ids, f[4])
		if f[5] != protocol.ControlProgramWrite || f[6] != protocol.MsgTypeCommand {
			t.Errorf("control/type = %02x/%02x, want 08/17", f[5], f[6])
		}
	}
	want := []byte{0x14, 0x15, 0x16, 0x18}
	if !bytes.Equal(ids, want) {
		t.Errorf("attempt request ids = %x, want %x", ids, want)
	}
	if assoc.RequestID != 0x18 {
		t.Errorf("association request id = 0x%02x, want 0x18", assoc.RequestID)
	}
	for _, d := range tr.Timeouts {
		if d <= 0 || d > DefaultProgramTimeout {
			t.Errorf("receive window = %v, want within (0, %v]", d, DefaultProgramTimeout)
		}
	}
}

func TestWriteProgramAckAfterOneRetry(t *testing.T) {
	tr := rftest.New()
	tr.PushTimeout()
	tr.PushHex("077e801214881700") // late reply to the first attempt is ignored
	tr.PushHex("077e801215881700")

	s := NewSession(tr, protocol.AddrConnect, connectAssociation(0x10))
	meta, err := s.WriteProgram(context.Background(), protocol.NewAreaBody())
	if err != nil {
		t.Fatalf("WriteProgram() error = %v", err)
	}
	if meta.RequestID != 0x15 {
		t.Errorf("acknowledged request id = 0x%02x, want 0x15", meta.RequestID)
	}
	if len(tr.Sent) != 2 {
		t.Errorf("sent %d frames, want 2", len(tr.Sent))
	}
}

func TestWriteProgramTransportFailure(t *testing.T) {
	tr := rftest.New()
	tr.PushError(errors.New("serial port closed"))

	_, err := NewSession(tr, protocol.AddrConnect, connectAssociation(0x10)).WriteProgram(context.Background(), protocol.NewAreaBody())
	if !protocol.IsType(err, protocol.ErrTypeTransport) {
		t.Errorf("WriteProgram() error = %v, want transport error", err)
	}
}

func TestWriteArea(t *testing.T) {
	tr := rftest.New()
	// Date reply (Wednesday 11:31), then the program acknowledgement
	tr.PushHex("0f7e8012148103082304051131172803")
	tr.PushHex("077e801218881700")

	var week schedule.Week
	wed, _ := schedule.BuildDay([]schedule.Entry{{Timeframe: "11h00-12h00", Mode: "comfort"}})
	week.Set(time.Wednesday, wed)
	program := &schedule.Program{Mode: protocol.ModeAuto, Comfort: 20, Reduced: 16, Frost: 8, Week: week}

	body, err := NewSession(tr, protocol.AddrConnect, connectAssociation(0x10)).WriteArea(context.Background(), program)
	if err != nil {
		t.Fatalf("WriteArea() error = %v", err)
	}
	if !body.Flags.Comfort {
		t.Error("comfort flag = false inside the scheduled slot")
	}
	if len(tr.Sent) != 2 {
		t.Fatalf("sent %d frames, want 2", len(tr.Sent))
	}
	var sent protocol.AreaBody
	if _, err := protocol.Decode(tr.Sent[1], &sent); err != nil {
		t.Fatalf("sent program does not decode: %v", err)
	}
	if sent != *body {
		t.Errorf("sent program = %s, want %s", &sent, body)
	}
}

func sondeAssociation(requestID byte) *protocol.Association {
	return &protocol.Association{NetworkID: testNetworkID, AssociationID: 0xba, RequestID: requestID}
}

func TestSondeTemperature(t *testing.T) {
	tr := rftest.New()
	tr.PushHex("0f7e80ba408117082304051131172803") // addressed to the Connect box
	tr.PushHex("0f2080ba408117082304051131172803")

	s := NewSession(tr, protocol.AddrSonde, sondeAssociation(0x3c))
	_, reply, err := s.SondeTemperature(context.Background(), 9.2)
	if err != nil {
		t.Fatalf("SondeTemperature() error = %v", err)
	}
	if got := tr.SentHex()[0]; got != "118020ba4001179c540004a029000102005c" {
		t.Errorf("sent %s, want 118020ba4001179c540004a029000102005c", got)
	}
	if reply.YearOfCentury() != 23 || reply.Kind() != protocol.KindSondeTemperatureReply {
		t.Errorf("reply = %s", reply)
	}
	if len(tr.Timeouts) == 0 || tr.Timeouts[0] > DefaultSondeTimeout {
		t.Errorf("receive windows = %v, want at most %v", tr.Timeouts, DefaultSondeTimeout)
	}
}

func TestSondeTemperatureTimeout(t *testing.T) {
	tr := rftest.New()
	tr.PushHex("0f7e80ba408117082304051131172803")
	tr.PushTimeout()

	_, _, err := NewSession(tr, protocol.AddrSonde, sondeAssociation(0x3c)).SondeTemperature(context.Background(), 9.2)
	if !protocol.IsTimeout(err) {
		t.Fatalf("SondeTemperature() error = %v, want timeout", err)
	}
	if len(tr.Sent) != 1 {
		t.Errorf("sent %d frames, want a single attempt", len(tr.Sent))
	}
}

func TestSondeInit(t *testing.T) {
	tr := rftest.New()
	tr.PushHex("06208083008143")

	assoc := &protocol.Association{NetworkID: testNetworkID, AssociationID: 0x83, RequestID: 0xfc}
	if _, err := NewSession(tr, protocol.AddrSonde, assoc).SondeInit(context.Background()); err != nil {
		t.Fatalf("SondeInit() error = %v", err)
	}
	if got := tr.SentHex()[0]; got != "088020830001430000" {
		t.Errorf("sent %s, want 088020830001430000", got)
	}
	if assoc.RequestID != 0x00 {
		t.Errorf("request id = 0x%02x, want wrap to 0x00", assoc.RequestID)
	}
}

func mustDecodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex %q: %v", s, err)
	}
	return b
}
