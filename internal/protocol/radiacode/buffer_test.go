package radiacode

import (
	"errors"
	"testing"
)

func TestReader_Primitives(t *testing.T) {
	// 小端: u8=0x01, u16=0x0302, u32=0x07060504, i32=-1, f32=1.5
	data := []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0xff, 0xff, 0xff, 0xff,
		0x00, 0x00, 0xc0, 0x3f,
	}
	r := NewReader(data)

	if v, err := r.ReadU8(); err != nil || v != 0x01 {
		t.Fatalf("ReadU8 = %v, %v", v, err)
	}
	if v, err := r.ReadU16(); err != nil || v != 0x0302 {
		t.Fatalf("ReadU16 = %#x, %v", v, err)
	}
	if v, err := r.ReadU32(); err != nil || v != 0x07060504 {
		t.Fatalf("ReadU32 = %#x, %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != -1 {
		t.Fatalf("ReadI32 = %d, %v", v, err)
	}
	if v, err := r.ReadF32(); err != nil || v != 1.5 {
		t.Fatalf("ReadF32 = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d, want 0", r.Remaining())
	}
}

func TestReader_Underflow(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadU32(); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expect ErrUnderflow, got %v", err)
	}
	// 失败不应推进游标
	if r.Remaining() != 2 {
		t.Fatalf("Remaining = %d after failed read, want 2", r.Remaining())
	}
	if v, err := r.ReadU16(); err != nil || v != 0x0201 {
		t.Fatalf("ReadU16 = %#x, %v", v, err)
	}
}

func TestReader_ReadString(t *testing.T) {
	// 长度前缀 + 尾部 NUL 填充
	r := NewReader([]byte{0x05, 'a', 'b', 'c', 0x00, 0x00})
	s, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString error: %v", err)
	}
	if s != "abc" {
		t.Fatalf("ReadString = %q, want %q", s, "abc")
	}

	// 声明长度超出剩余
	r = NewReader([]byte{0x08, 'x'})
	if _, err := r.ReadString(); !errors.Is(err, ErrUnderflow) {
		t.Fatalf("expect ErrUnderflow, got %v", err)
	}
}

func TestReader_Rest(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4})
	if _, err := r.ReadU8(); err != nil {
		t.Fatal(err)
	}
	rest := r.Rest()
	if len(rest) != 3 || rest[0] != 2 {
		t.Fatalf("Rest = %v", rest)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d after Rest", r.Remaining())
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteU8(0x7f)
	w.WriteI8(-2)
	w.WriteU16(0xbeef)
	w.WriteI16(-300)
	w.WriteU32(0xdeadbeef)
	w.WriteI32(-123456)
	w.WriteF32(3.25)
	if err := w.WriteString("probe-01"); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())
	if v, _ := r.ReadU8(); v != 0x7f {
		t.Fatalf("u8 = %#x", v)
	}
	if v, _ := r.ReadI8(); v != -2 {
		t.Fatalf("i8 = %d", v)
	}
	if v, _ := r.ReadU16(); v != 0xbeef {
		t.Fatalf("u16 = %#x", v)
	}
	if v, _ := r.ReadI16(); v != -300 {
		t.Fatalf("i16 = %d", v)
	}
	if v, _ := r.ReadU32(); v != 0xdeadbeef {
		t.Fatalf("u32 = %#x", v)
	}
	if v, _ := r.ReadI32(); v != -123456 {
		t.Fatalf("i32 = %d", v)
	}
	if v, _ := r.ReadF32(); v != 3.25 {
		t.Fatalf("f32 = %v", v)
	}
	if s, err := r.ReadString(); err != nil || s != "probe-01" {
		t.Fatalf("string = %q, %v", s, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining = %d", r.Remaining())
	}
}
