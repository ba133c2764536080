// package wire reads and writes the fixed-layout binary messages used
// by fx: big-endian integers and raw arrays, no tags or padding, in
// the style of Trunnel, see:
//
//   - https://gitlab.torproject.org/tpo/core/trunnel/-/blob/main/doc/trunnel.md
//
// A Reader never copies the message. Fixed-size fields are decoded
// by handing Fill to a repr codec, which copies the field straight
// into the decoded value.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"fxchg.org/fx-go/pkg/repr"
)

// ShortError reports a field that extends past the end of the message.
type ShortError struct {
	Field  string
	Offset int
	Want   int
	Have   int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("%s: need %d bytes at offset %d, have %d", e.Field, e.Want, e.Offset, e.Have)
}

func (e *ShortError) Unwrap() error {
	return io.ErrUnexpectedEOF
}

type Reader struct {
	msg    []byte
	offset int
}

func NewReader(msg []byte) *Reader {
	return &Reader{msg: msg}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.offset
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.msg) - r.offset
}

// next returns the next n bytes, sharing storage with the message.
func (r *Reader) next(field string, n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, &ShortError{Field: field, Offset: r.offset, Want: n, Have: r.Len()}
	}
	b := r.msg[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

func (r *Reader) Uint32(field string, num *uint32) error {
	b, err := r.next(field, 4)
	if err != nil {
		return err
	}
	*num = binary.BigEndian.Uint32(b)
	return nil
}

func (r *Reader) Uint64(field string, num *uint64) error {
	b, err := r.next(field, 8)
	if err != nil {
		return err
	}
	*num = binary.BigEndian.Uint64(b)
	return nil
}

func (r *Reader) Array(field string, arr []byte) error {
	b, err := r.next(field, len(arr))
	if err != nil {
		return err
	}
	copy(arr, b)
	return nil
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(field string, n uint64) ([]byte, error) {
	if n > uint64(r.Len()) {
		want := math.MaxInt
		if n < math.MaxInt {
			want = int(n)
		}
		return nil, &ShortError{Field: field, Offset: r.offset, Want: want, Have: r.Len()}
	}
	return r.next(field, int(n))
}

// Rest returns all unread bytes without copying, and consumes them.
func (r *Reader) Rest() []byte {
	b := r.msg[r.offset:]
	r.offset = len(r.msg)
	return b
}

// Done fails if there is unread data.
func (r *Reader) Done() error {
	if n := r.Len(); n != 0 {
		return fmt.Errorf("invalid remainder: %d bytes at offset %d", n, r.offset)
	}
	return nil
}

// Fill returns a repr.Filler reading the named field from r. The reader
// advances only if the fill succeeds.
func Fill[B repr.Array](r *Reader, field string) repr.Filler[B] {
	return func(buf *B) error {
		return r.Array(field, repr.Slice(buf))
	}
}

type Writer struct {
	buf []byte
}

func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

func (w *Writer) AddUint32(num uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, num)
}

func (w *Writer) AddUint64(num uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, num)
}

func (w *Writer) AddArray(arr []byte) {
	w.buf = append(w.buf, arr...)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}
