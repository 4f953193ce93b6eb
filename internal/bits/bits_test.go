package bits

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct {
		n, lo, hi, want int
	}{
		{5, 0, 10, 5},
		{-5, 0, 10, 0},
		{15, 0, 10, 10},
	}
	for _, c := range cases {
		if got := Clamp(c.n, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%d,%d,%d) = %d, want %d", c.n, c.lo, c.hi, got, c.want)
		}
	}
}

func TestSigned3(t *testing.T) {
	if got := Signed3(-2); got != 0x6 {
		t.Errorf("Signed3(-2) = %#x, want 0x6", got)
	}
	if got := Signed3(3); got != 0x3 {
		t.Errorf("Signed3(3) = %#x, want 0x3", got)
	}
}

func TestSigned16RoundTrip(t *testing.T) {
	for n := 0; n <= 0xFFFF; n += 97 {
		if got := Unsigned16(Signed16(n)); got != n {
			t.Errorf("Unsigned16(Signed16(%d)) = %d, want %d", n, got, n)
		}
	}
}

func TestSigned8RoundTrip(t *testing.T) {
	for n := 0; n <= 0xFF; n++ {
		if got := Unsigned8(Signed8(n)); got != n {
			t.Errorf("Unsigned8(Signed8(%d)) = %d, want %d", n, got, n)
		}
	}
}

func TestWrapROMToMLMAddr(t *testing.T) {
	cases := []struct {
		rom, want int
	}{
		{0x1FFF, 0x1FFF},
		{0x2000, 0x2000},
		{0x2000 + 0x8000, 0x2000},
		{0x2000 + 0x8000 + 5, 0x2005},
	}
	for _, c := range cases {
		if got := WrapROMToMLMAddr(c.rom); got != c.want {
			t.Errorf("WrapROMToMLMAddr(%#x) = %#x, want %#x", c.rom, got, c.want)
		}
	}
}
