package parse

import (
	"testing"

	"github.com/joshlf/enc28j60/internal/errors"
)

func TestCursor(t *testing.T) {
	b := []byte{0x08, 0x06, 0x34, 0x12, 0xAA, 0xBB, 0xCC}
	if v := GetUint16(&b); v != 0x0806 {
		t.Errorf("unexpected big endian value: got %#x; want %#x", v, 0x0806)
	}
	if v := GetUint16LE(&b); v != 0x1234 {
		t.Errorf("unexpected little endian value: got %#x; want %#x", v, 0x1234)
	}
	if c := GetByte(&b); c != 0xAA {
		t.Errorf("unexpected byte: got %#x; want %#x", c, 0xAA)
	}
	if c := GetByte(&b); c != 0xBB {
		t.Errorf("unexpected byte: got %#x; want %#x", c, 0xBB)
	}
	if len(b) != 1 {
		t.Errorf("unexpected remaining length: got %v; want %v", len(b), 1)
	}
}

func TestPut(t *testing.T) {
	buf := make([]byte, 3)
	b := buf
	PutUint16(&b, 0x0806)
	PutByte(&b, 7)
	if buf[0] != 0x08 || buf[1] != 0x06 || buf[2] != 7 {
		t.Errorf("unexpected encoding: got %v", buf)
	}
}

func decodeTwo(b []byte) (v uint16, err error) {
	defer Recover(&err)
	return GetUint16(&b), nil
}

func TestRecover(t *testing.T) {
	if _, err := decodeTwo([]byte{1}); !errors.IsShort(err) {
		t.Errorf("expected short buffer error; got %v", err)
	}
	v, err := decodeTwo([]byte{1, 2})
	if err != nil || v != 0x0102 {
		t.Errorf("unexpected result: got (%#x, %v); want (0x102, <nil>)", v, err)
	}
}

func TestRecoverRepanics(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("unexpected panic value: got %v; want boom", r)
		}
	}()
	func() (err error) {
		defer Recover(&err)
		panic("boom")
	}()
}
