package protocol

import (
	"encoding/hex"
	"fmt"
)

// RequestIDStep is how far the canonical request id advances per logical request.
const RequestIDStep = 4

// Association is the result of pairing an entity with the boiler.
//
// It is owned and persisted by the caller and passed by pointer into every
// operation: RequestID is the last canonical request id used and is advanced
// by NextRequestID.
type Association struct {
	NetworkID     [4]byte
	AssociationID byte
	RequestID     byte
}

// NextRequestID advances the canonical sequence by 4 (wrapping at 256) and
// returns the new value.
func (a *Association) NextRequestID() byte {
	a.RequestID += RequestIDStep
	return a.RequestID
}

// NetworkIDBytes returns the network id as a slice for rf.Transport.SetNetworkID.
func (a *Association) NetworkIDBytes() []byte {
	return a.NetworkID[:]
}

func (a *Association) String() string {
	return fmt.Sprintf("network_id=%s association_id=%02x request_id=%02x",
		hex.EncodeToString(a.NetworkID[:]), a.AssociationID, a.RequestID)
}
