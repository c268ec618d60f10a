// Package protocol implements the binary wire protocol for Strand RPC.
//
// The protocol carries unary request/response traffic plus out-of-band
// cancellation between a client engine and a peer. It is optimized for fast
// encoding/decoding: no reflection, direct byte manipulation.
//
// # Encoding
//
// All multi-byte integers are little-endian. Strings and byte blocks are
// length-prefixed with protobuf-style varints. Nested message sections are
// self-delimited varint length-prefixed blocks, so a decoder can skip a
// section without understanding its contents.
//
// # Messages
//
// Every message starts with a one-byte kind tag and a 32-bit request id:
//
//	┌────────────┬──────────────────┬───────────────────────────┐
//	│ kind: u8   │ request_id: u32  │ kind-specific payload     │
//	└────────────┴──────────────────┴───────────────────────────┘
//
// Kinds:
//
//   - MessageRequest (0x00): block #1 {object name, method name, method
//     signature hash u64, context record}, block #2 {arguments}.
//   - MessageResponse (0x01): trailing bytes are a result: tag=ok followed
//     by the value, or tag=err followed by a portable error class name and
//     a message.
//   - MessageCancelRequest (0x02): no payload beyond the request id.
//
// # Context record
//
// A context marshals as {optional remaining-duration-ms u64, list of
// portable values, cancelled bool}. Each portable value is encoded as its
// portable class name followed by a self-delimited body; the receiving side
// reconstructs values through the registry in value.go. Equality of portable
// class names is the cross-process ABI.
//
// # Method signature hashes
//
// A method's identity on the wire is its name plus a 64-bit hash over the
// ordered portable names of its parameter and result types. Every request
// carries the hash so a peer can compare it with its own view of the
// signature; this package computes and transports it but does not compare
// it, and the bundled echo peer does not check it.
package protocol
