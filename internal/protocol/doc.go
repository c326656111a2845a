// Package protocol implements the Frisquet Connect radio protocol.
//
// This package handles encoding, decoding and validation of the frames
// exchanged between the heating-control gateway (the "Connect" box), the
// boiler, satellite thermostats and the external temperature probe (sonde).
//
// # Frame Format
//
// Every frame starts with a fixed 7-byte header followed by the body:
//
//	[0]  length          Body length + 6
//	[1]  to              Destination address
//	[2]  from            Source address
//	[3]  association id  Assigned at pairing
//	[4]  request id      Correlates a reply with its request
//	[5]  control         Replies set 0x80
//	[6]  msg type        0x03 read, 0x17 command, 0x41 association, 0x43 sonde init
//	[7+] body
//
// A frame whose length byte disagrees with the number of bytes received is
// a decode error.
//
// # Addresses
//
//   - 0x08, 0x09, 0x0a: satellites for zones 1 to 3
//   - 0x20: external temperature probe
//   - 0x7e: Connect gateway
//   - 0x80: boiler
//
// # Bodies
//
// Bodies are typed values implementing Body. Decode takes the body the
// caller expects, fills it and runs its Validate contract:
//
//	var date protocol.DateBody
//	meta, err := protocol.Decode(frame, &date)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(meta, date.String())
//
// Raw is the fallback for bodies that are not understood yet.
//
// # Sending
//
// SendCmd encodes and transmits a frame over an rf.Transport, and Filter
// selects the reply frames of a request by header:
//
//	err := protocol.SendCmd(t, protocol.AddrConnect, protocol.AddrBoiler,
//	    assoc.AssociationID, assoc.NextRequestID(),
//	    protocol.ControlRequest, protocol.MsgTypeRead, protocol.DateQuery())
//
// # Error Handling
//
// Failures are reported as *Error carrying an ErrorType: transport failures,
// timeouts, decode errors, protocol violations and configuration errors.
// Decode errors always carry the offending payload.
package protocol
