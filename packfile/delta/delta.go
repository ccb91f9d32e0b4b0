// Package delta implements the Git packfile delta instruction format:
// a sequence of copy and insert operations that regenerate one object
// from another. See http://git.rsbx.net/Documents/Git_Data_Formats.txt
// for details.
package delta

import (
	"errors"

	"github.com/example-labs/gitclone/packfile/base128"
)

// ErrBaseSize is returned by Apply if the base buffer's length does
// not match the size recorded in the delta header.
var ErrBaseSize = errors.New("delta: base size mismatch")

// ErrResultSize is returned by Apply if the number of bytes produced
// does not match the size recorded in the delta header.
var ErrResultSize = errors.New("delta: result size mismatch")

// ErrOpcode is returned by Apply if the delta is truncated, an
// instruction byte is the reserved value 0, or a copy reads past the
// end of the base buffer.
var ErrOpcode = errors.New("delta: invalid instruction")

// Apply reconstructs an object from base, the base object's bytes, and
// delta, the delta data from the packfile: the declared base and result
// sizes followed by the instruction stream. It returns ErrBaseSize or ErrResultSize if the declared
// sizes don't match what was supplied or produced.
func Apply(base, delta []byte) (result []byte, err error) {
	defer func() {
		if e, ok := recover().(error); ok {
			err = e
		}
	}()

	i := 0
	baseLen, n := base128.DecodeLE(delta[i:])
	if n <= 0 {
		return nil, ErrOpcode
	}
	i += n
	if baseLen != uint64(len(base)) {
		return nil, ErrBaseSize
	}

	resultLen, n := base128.DecodeLE(delta[i:])
	if n <= 0 {
		return nil, ErrOpcode
	}
	i += n

	out := make([]byte, resultLen)
	j := 0
	for i < len(delta) {
		cmd := delta[i]
		i++
		switch {
		case cmd&0x80 != 0: // copy
			off, n := readMask(delta[i:], cmd&0x0F)
			if n < 0 {
				return nil, ErrOpcode
			}
			i += n
			size, n := readMask(delta[i:], (cmd>>4)&0x07)
			if n < 0 {
				return nil, ErrOpcode
			}
			i += n
			if size == 0 {
				size = 0x10000
			}
			if off+size > uint64(len(base)) {
				return nil, ErrOpcode
			}
			if uint64(j)+size > resultLen {
				return nil, ErrResultSize
			}
			j += copy(out[j:], base[off:off+size])
		case cmd != 0: // insert
			n := int(cmd)
			if i+n > len(delta) {
				return nil, ErrOpcode
			}
			if uint64(j+n) > resultLen {
				return nil, ErrResultSize
			}
			j += copy(out[j:], delta[i:i+n])
			i += n
		default: // cmd == 0 is reserved and never valid
			return nil, ErrOpcode
		}
	}
	if uint64(j) != resultLen {
		return nil, ErrResultSize
	}
	return out, nil
}

// readMask decodes a "bitmask-compressed" unsigned integer: a
// little-endian integer with zero bytes omitted, present bytes
// signaled by set bits in mask from least to most significant. It
// returns the value and the number of input bytes consumed, or -1 if
// buf is too short.
func readMask(buf []byte, mask byte) (x uint64, n int) {
	for i := uint(0); i < 4; i++ {
		if mask&(1<<i) != 0 {
			if n >= len(buf) {
				return 0, -1
			}
			x |= uint64(buf[n]) << (i * 8)
			n++
		}
	}
	return x, n
}
