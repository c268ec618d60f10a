// Package packet layers atomic, integrity-checked packets over byte
// streams, and manages the lifecycle of the underlying connection.
//
// # Wire format
//
// One packet on the stream:
//
//	┌────────────┬─────────────────────┬──────────────┐
//	│ length: u32│ payload: length B   │ checksum: 8 B│
//	└────────────┴─────────────────────┴──────────────┘
//
// All integers little-endian. The checksum is the 64-bit xxHash of the
// length header plus the payload bytes; a mismatch fails the receive with
// the data_mismatch kind, which higher layers treat as fatal for the
// connection. The hash detects corruption, not tampering — both peers
// simply have to agree on the algorithm and width.
//
// # Stack
//
// Channel is a plain bidirectional byte stream (net.Conn satisfies it).
// A Connector produces fresh channels on demand: TCP, Unix socket, and
// WebSocket connectors are provided. Conn combines a connector with the
// packet protocol and a {disconnected, connecting, connected} state
// machine: Connect is lazy and idempotent, Disconnect closes the channel
// and unblocks any pending receive, and after an error the next Connect
// transparently redials.
//
// Sends are serialized against each other, as are receives; the two
// directions do not block one another.
package packet
