package connect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muurk/frisquet/internal/logging"
	"github.com/muurk/frisquet/internal/protocol"
	"github.com/muurk/frisquet/internal/rf"
	"go.uber.org/zap"
)

// Entity is a protocol participant this client can pair as.
type Entity int

const (
	EntityConnect Entity = iota
	EntitySonde
	EntitySatelliteZ1
	EntitySatelliteZ2
	EntitySatelliteZ3
)

var entityNames = []string{"connect", "sonde", "satellite-z1", "satellite-z2", "satellite-z3"}

func (e Entity) String() string {
	if int(e) >= 0 && int(e) < len(entityNames) {
		return entityNames[e]
	}
	return fmt.Sprintf("entity(%d)", int(e))
}

// ParseEntity maps a pairing target name to an Entity.
func ParseEntity(s string) (Entity, error) {
	for i, name := range entityNames {
		if strings.EqualFold(s, name) {
			return Entity(i), nil
		}
	}
	return 0, protocol.NewConfigError("unknown pairing target %q (want one of %s)", s, strings.Join(entityNames, ", "))
}

// Addr returns the source address the entity speaks from.
func (e Entity) Addr() byte {
	switch e {
	case EntitySonde:
		return protocol.AddrSonde
	case EntitySatelliteZ1:
		return protocol.AddrSatelliteZ1
	case EntitySatelliteZ2:
		return protocol.AddrSatelliteZ2
	case EntitySatelliteZ3:
		return protocol.AddrSatelliteZ3
	default:
		return protocol.AddrConnect
	}
}

// connectVersion is the firmware version announced by a Connect box.
var connectVersion = [4]byte{0x01, 0x21, 0x01, 0x02}

// Version returns the version body sent when answering an announce. The
// probe answers with an empty body.
func (e Entity) Version() []byte {
	if e == EntitySonde {
		return []byte{}
	}
	return append([]byte(nil), connectVersion[:]...)
}

// State is a step of the association handshake.
type State int

const (
	StateBroadcasting State = iota
	StateAwaitingAnnounce
	StateReplying
	StateCollecting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBroadcasting:
		return "broadcasting"
	case StateAwaitingAnnounce:
		return "awaiting announce"
	case StateReplying:
		return "replying"
	case StateCollecting:
		return "collecting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handshake windows
const (
	DefaultPairWait    = 5 * time.Second
	DefaultPairSilence = 5 * time.Second
)

// PairOptions tunes the association handshake.
type PairOptions struct {
	// Wait bounds the wait for the first announce.
	Wait time.Duration
	// Silence is the quiet period after the last announce that ends the
	// handshake.
	Silence time.Duration
	// OnState, when set, is called on every state change.
	OnState func(State)
}

func (o PairOptions) withDefaults() PairOptions {
	if o.Wait <= 0 {
		o.Wait = DefaultPairWait
	}
	if o.Silence <= 0 {
		o.Silence = DefaultPairSilence
	}
	if o.OnState == nil {
		o.OnState = func(State) {}
	}
	return o
}

// ErrNoAnnounce is returned when no announce arrived during the initial wait.
var ErrNoAnnounce = errors.New("association failed: no announce received")

// Pair runs the association handshake as entity. The boiler must be in
// pairing mode: it broadcasts announces which are each answered with the
// entity version. The handshake ends once the boiler has been silent for
// opts.Silence after at least one announce, and the last announce wins.
//
// Any frame other than an announce is a protocol violation and aborts the
// handshake.
func Pair(ctx context.Context, t rf.Transport, entity Entity, opts PairOptions) (*protocol.Association, error) {
	opts = opts.withDefaults()
	state := func(s State) {
		logging.Debug("Pairing state", zap.Stringer("state", s), zap.Stringer("entity", entity))
		opts.OnState(s)
	}

	state(StateBroadcasting)
	if err := t.SetNetworkID(rf.BroadcastNetworkID); err != nil {
		state(StateFailed)
		return nil, protocol.NewTransportError("failed to select broadcast network", err)
	}

	state(StateAwaitingAnnounce)
	var result *protocol.Association
	window := opts.Wait
	for {
		if err := ctx.Err(); err != nil {
			state(StateFailed)
			return nil, err
		}

		frame, err := t.RecvTimeout(window)
		if errors.Is(err, rf.ErrTimeout) {
			if result == nil {
				state(StateFailed)
				return nil, &protocol.Error{Type: protocol.ErrTypeTimeout, Message: ErrNoAnnounce.Error(), Err: ErrNoAnnounce}
			}
			state(StateDone)
			logging.Info("Pairing complete",
				zap.Stringer("entity", entity),
				zap.Stringer("association", result),
			)
			return result, nil
		}
		if err != nil {
			state(StateFailed)
			return nil, protocol.NewTransportError("receive failed", err)
		}

		assoc, meta, err := acceptAnnounce(frame)
		if err != nil {
			state(StateFailed)
			return nil, err
		}
		result = assoc

		state(StateReplying)
		reply := &protocol.AssociationReply{Version: entity.Version()}
		if err := protocol.SendCmd(t, entity.Addr(), protocol.AddrBoiler, meta.AssociationID, meta.RequestID,
			meta.Control+protocol.ControlReplyFlag, meta.MsgType, reply); err != nil {
			state(StateFailed)
			return nil, err
		}

		state(StateCollecting)
		window = opts.Silence
	}
}

// acceptAnnounce checks that frame is an association announce and captures
// the tentative association from it.
func acceptAnnounce(frame []byte) (*protocol.Association, protocol.Metadata, error) {
	meta, err := protocol.DecodeMetadata(frame)
	if err != nil {
		return nil, meta, err
	}
	if meta.Control != protocol.ControlAnnounce {
		return nil, meta, protocol.NewProtocolViolation(
			fmt.Sprintf("unexpected control 0x%02x while pairing (want 0x%02x)", meta.Control, protocol.ControlAnnounce), frame)
	}
	if meta.MsgType != protocol.MsgTypeAssociation {
		return nil, meta, protocol.NewProtocolViolation(
			fmt.Sprintf("unexpected message type 0x%02x while pairing (want 0x%02x)", meta.MsgType, protocol.MsgTypeAssociation), frame)
	}

	var announce protocol.AssociationAnnounce
	if _, err := protocol.Decode(frame, &announce); err != nil {
		return nil, meta, err
	}
	logging.LogFrame("recv", meta.String(), frame)

	return &protocol.Association{
		NetworkID:     announce.NetworkID,
		AssociationID: meta.AssociationID,
		RequestID:     meta.RequestID,
	}, meta, nil
}
