// Package parse provides cursor helpers for encoding and decoding fixed
// layout frame fields.
//
// Every helper consumes bytes from the front of *b. If *b is too short, the
// helper panics with a short buffer error (see errors.IsShort); decoders
// convert that panic back into a returned error using Recover.
package parse

import (
	"encoding/binary"

	"github.com/joshlf/enc28j60/internal/errors"
)

// GetBytes returns (*b)[:n] and sets *b = (*b)[n:]
func GetBytes(b *[]byte, n int) []byte {
	if len(*b) < n {
		panic(errors.Shortf("need %v bytes; have %v", n, len(*b)))
	}
	ret := (*b)[:n:n]
	*b = (*b)[n:]
	return ret
}

// GetByte is equivalent to GetBytes(b, 1)[0].
func GetByte(b *[]byte) byte {
	return GetBytes(b, 1)[0]
}

// PutByte is equivalent to GetBytes(b, 1)[0] = c.
func PutByte(b *[]byte, c byte) {
	GetBytes(b, 1)[0] = c
}

// GetUint16 calls GetBytes(b, 2) and converts the result to a uint16 using
// big endian encoding.
func GetUint16(b *[]byte) uint16 {
	return binary.BigEndian.Uint16(GetBytes(b, 2))
}

// GetUint16LE is like GetUint16, but uses little endian encoding, which is
// what the controller uses for its own descriptors.
func GetUint16LE(b *[]byte) uint16 {
	return binary.LittleEndian.Uint16(GetBytes(b, 2))
}

// PutUint16 calls GetBytes(b, 2) and encodes n into the result using big endian
// encoding.
func PutUint16(b *[]byte, n uint16) {
	binary.BigEndian.PutUint16(GetBytes(b, 2), n)
}

// Recover converts a short buffer panic raised by one of the helpers into an
// error stored in *err. Any other panic is re-raised. It must be called
// directly by a deferred function:
//
//	defer parse.Recover(&err)
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok && errors.IsShort(e) {
		*err = e
		return
	}
	panic(r)
}
