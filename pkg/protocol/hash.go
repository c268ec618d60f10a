package protocol

import (
	"github.com/cespare/xxhash/v2"
)

// SignatureHash computes the 64-bit identity of a method signature from
// its name and the ordered portable names of its parameter and result
// types. Both peers derive the hash from their own type descriptions; a
// mismatch means the binaries disagree about the method's shape.
//
// The hash input is a canonical rendering of the signature,
// "name(p1,p2)->r", so it depends only on the ordered name list and not on
// any language-side reflection mechanism.
func SignatureHash(method string, params []string, result string) uint64 {
	h := xxhash.New()
	h.WriteString(method)
	h.WriteString("(")
	for i, p := range params {
		if i > 0 {
			h.WriteString(",")
		}
		h.WriteString(p)
	}
	h.WriteString(")->")
	h.WriteString(result)
	return h.Sum64()
}
