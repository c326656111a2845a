// Package connect implements the exchanges of a Frisquet Connect box with
// the boiler over an rf.Transport.
//
// Session correlates requests with their replies for one paired entity:
// register queries block until the reply arrives, program writes retry on
// a bounded window and probe reports make a single bounded attempt. Pair
// runs the association handshake, Sniffer passively decodes the traffic of
// another Connect box and SondeService emulates an outside temperature
// probe.
//
// Every operation takes the caller's *protocol.Association and advances its
// request id in place; persisting it is left to the caller.
package connect
