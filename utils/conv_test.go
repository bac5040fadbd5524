package utils

import (
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestPrintableString(t *testing.T) {
	var tests = []struct {
		in  []byte
		out string
	}{
		{[]byte("Hips\x00\x00\x00\x00"), "Hips"},
		{[]byte("Le\x01g\x7fL\x00junk"), "LegL"},
		{[]byte("0123456789abcdef"), "0123456789abcdef"},
		{[]byte{0, 'a'}, ""},
	}
	for _, test := range tests {
		if s := PrintableString(test.in); s != test.out {
			t.Errorf("PrintableString(%q)=%q; expected %q", test.in, s, test.out)
		}
	}
}

func TestDecodeStringShiftJIS(t *testing.T) {
	// "頭" in shift-jis
	in := []byte{0x93, 0xaa, 0, 'x'}
	if s := DecodeString(in, japanese.ShiftJIS); s != "頭" {
		t.Errorf("DecodeString=%q; expected %q", s, "頭")
	}

	// dangling lead byte must not fail
	if s := DecodeString([]byte{'a', 0x93}, japanese.ShiftJIS); len(s) == 0 || s[0] != 'a' {
		t.Errorf("DecodeString with invalid tail=%q", s)
	}
}

func TestStringToBytesBuffer(t *testing.T) {
	b, err := StringToBytesBuffer("root", 16, japanese.ShiftJIS)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 16 || string(b[:4]) != "root" || b[4] != 0 {
		t.Errorf("StringToBytesBuffer=%q", b)
	}
}
