// package repr defines how fixed-size values are converted to and from
// their canonical byte arrays.
//
// Serialization is total. Deserialization does not take a byte slice;
// instead the caller supplies a Filler, which is handed a buffer of
// the right size and either fills it or reports an error. This lets a
// decoder read straight out of a larger message, a file or a text
// encoding without first materializing the bytes.
//
// Decoding has three outcomes, and callers must be able to tell them
// apart:
//
//   - err != nil: the Filler failed. err is the Filler's own error,
//     returned as is, and no decoding was attempted.
//   - err == nil, ok == false: the bytes were supplied, but do not
//     represent a valid value of the target type.
//   - err == nil, ok == true: success.
package repr

import (
	"fmt"
	"io"
)

// Array is the set of fixed-size byte layouts in use.
type Array interface {
	[32]byte | [64]byte
}

// Filler populates buf. A nil return means buf was completely
// filled. A non-nil return means it was not, and the contents of buf
// are undefined.
type Filler[B Array] func(buf *B) error

// Codec converts values of type T to and from the fixed-size array B.
type Codec[T any, B Array] interface {
	// ToBytes returns the canonical encoding of v.
	ToBytes(v *T) B
	// FromBytes invokes fill exactly once, on a fresh buffer, and
	// decodes the result.
	FromBytes(fill Filler[B]) (T, bool, error)
}

// Source is the single-method interface equivalent of a Filler, for
// byte sources that are more naturally expressed as a type.
type Source interface {
	// Fill populates all of buf, or returns an error.
	Fill(buf []byte) error
}

// Slice returns the array pointed to by buf as a slice sharing its
// storage.
func Slice[B Array](buf *B) []byte {
	switch p := any(buf).(type) {
	case *[32]byte:
		return p[:]
	case *[64]byte:
		return p[:]
	}
	panic(fmt.Sprintf("repr: unsupported array type %T", buf))
}

// Size returns the number of bytes in B.
func Size[B Array]() int {
	var b B
	return len(Slice(&b))
}

// LengthError is returned by FromSlice when the input has the wrong
// size.
type LengthError struct {
	Want int
	Got  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("unexpected length, expected %d, got %d", e.Want, e.Got)
}

// RejectedError is returned by Decode when the bytes were supplied
// but do not represent a valid value.
type RejectedError struct {
	What string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("invalid %s encoding", e.What)
}

// FromArray fills the buffer with a copy of b.
func FromArray[B Array](b B) Filler[B] {
	return func(buf *B) error {
		*buf = b
		return nil
	}
}

// FromSlice fills the buffer with a copy of b, which must have
// exactly the right size.
func FromSlice[B Array](b []byte) Filler[B] {
	return func(buf *B) error {
		dst := Slice(buf)
		if len(b) != len(dst) {
			return &LengthError{Want: len(dst), Got: len(b)}
		}
		copy(dst, b)
		return nil
	}
}

// FromReader fills the buffer using io.ReadFull. Errors from r are
// returned unchanged; a short read gives io.ErrUnexpectedEOF, and an
// empty one io.EOF.
func FromReader[B Array](r io.Reader) Filler[B] {
	return func(buf *B) error {
		_, err := io.ReadFull(r, Slice(buf))
		return err
	}
}

// FromSource adapts a Source to a Filler.
func FromSource[B Array](s Source) Filler[B] {
	return func(buf *B) error {
		return s.Fill(Slice(buf))
	}
}

// Decode is a convenience wrapper around c.FromBytes for callers that
// need only one failure channel. Filler errors are returned unchanged,
// and a rejected encoding is reported as a *RejectedError naming what.
func Decode[T any, B Array](c Codec[T, B], fill Filler[B], what string) (T, error) {
	v, ok, err := c.FromBytes(fill)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &RejectedError{What: what}
	}
	return v, nil
}
