package hex

import (
	"bytes"
	"strings"
	"testing"

	"fxchg.org/fx-go/pkg/repr"
)

func TestSerialize(t *testing.T) {
	for _, table := range []struct {
		desc  string
		input []byte
		want  string
	}{
		{
			desc:  "valid",
			input: []byte{0, 9, 10, 15, 16, 17, 254, 255},
			want:  "00090a0f1011feff",
		},
	} {
		str := Serialize(table.input)
		if got, want := str, table.want; got != want {
			t.Errorf("got %q but wanted %q in test %q", got, want, table.desc)
		}
	}
}

func TestDeserialize(t *testing.T) {
	for _, table := range []struct {
		desc  string
		input string
		want  []byte
		err   bool
	}{
		{
			desc:  "invalid: length is odd",
			input: "0",
			err:   true,
		},
		{
			desc:  "invalid: even index has invalid character",
			input: "A0",
			err:   true,
		},
		{
			desc:  "invalid: odd index has invalid character",
			input: "0A",
			err:   true,
		},
		{
			desc:  "valid",
			input: "00090a0f1011feff",
			want:  []byte{0, 9, 10, 15, 16, 17, 254, 255},
		},
	} {
		buf, err := Deserialize(table.input)
		if got, want := err != nil, table.err; got != want {
			t.Errorf("got error %v but wanted %v in test %q: %v", got, want, table.desc, err)
		}
		if err != nil {
			continue
		}
		if got, want := buf, table.want; !bytes.Equal(got, want) {
			t.Errorf("got %v but wanted %v in test %q", got, want, table.desc)
		}
	}
}

func TestFiller(t *testing.T) {
	want := [32]byte{}
	for i := range want {
		want[i] = byte(0xe0 + i)
	}
	lower := Serialize(want[:])
	for _, table := range []struct {
		desc  string
		input string
		err   bool
	}{
		{desc: "lower case", input: lower},
		{desc: "upper case", input: strings.ToUpper(lower)},
		{desc: "too short", input: lower[:62], err: true},
		{desc: "too long", input: lower + "00", err: true},
		{desc: "odd length", input: lower[:63], err: true},
		{desc: "invalid character", input: "x" + lower[1:], err: true},
		{desc: "prefix", input: "0x" + lower[2:], err: true},
	} {
		var buf [32]byte
		err := Filler[[32]byte](table.input)(&buf)
		if got, want := err != nil, table.err; got != want {
			t.Errorf("got error %v but wanted %v in test %q: %v", got, want, table.desc, err)
		}
		if err != nil {
			continue
		}
		if buf != want {
			t.Errorf("got %x but wanted %x in test %q", buf, want, table.desc)
		}
	}
}

func TestFillerSignatureSize(t *testing.T) {
	var want [64]byte
	want[0], want[63] = 1, 0xff
	got, err := func() ([64]byte, error) {
		var buf [64]byte
		err := Filler[[64]byte](Serialize(want[:]))(&buf)
		return buf, err
	}()
	if err != nil {
		t.Fatalf("filling failed: %v", err)
	}
	if got != want {
		t.Errorf("got %x, wanted %x", got, want)
	}
	if n := repr.Size[[64]byte](); len(Serialize(want[:])) != 2*n {
		t.Errorf("unexpected serialized length for %d bytes", n)
	}
}
