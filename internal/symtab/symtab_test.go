package symtab

import "testing"

func TestDefineThenReferenceFixup(t *testing.T) {
	tab := New()
	if err := tab.Define("HEADER", 0x10); err != nil {
		t.Fatalf("Define: %v", err)
	}
	image := make([]byte, 8)
	tab.Reference("HEADER", 2)

	if err := tab.Finalize(image, 0x100); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	want := 0x110
	if got := int(image[2]) | int(image[3])<<8; got != want {
		t.Errorf("patched addr = %#x, want %#x", got, want)
	}
}

func TestReferenceBeforeDefine(t *testing.T) {
	tab := New()
	image := make([]byte, 4)
	tab.Reference("EL:00", 0)
	if err := tab.Define("EL:00", 0x40); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := tab.Finalize(image, 0); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if image[0] != 0x40 || image[1] != 0x00 {
		t.Errorf("image = %v, want [0x40, 0x00]", image[:2])
	}
}

func TestDoubleDefineFails(t *testing.T) {
	tab := New()
	if err := tab.Define("X", 1); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := tab.Define("X", 2); err == nil {
		t.Fatal("expected error on double definition")
	}
}

func TestUnresolvedReferenceFails(t *testing.T) {
	tab := New()
	image := make([]byte, 4)
	tab.Reference("MISSING", 0)
	if err := tab.Finalize(image, 0); err == nil {
		t.Fatal("expected error on unresolved reference")
	}
}

func TestFinalizeWrapsAddress(t *testing.T) {
	tab := New()
	if err := tab.Define("S", 0); err != nil {
		t.Fatalf("Define: %v", err)
	}
	image := make([]byte, 4)
	tab.Reference("S", 0)
	// base offset pushes def+base past the fixed bank, into the
	// switchable window, which should wrap.
	if err := tab.Finalize(image, 0x2000+0x8000); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	got := int(image[0]) | int(image[1])<<8
	if got != 0x2000 {
		t.Errorf("patched addr = %#x, want 0x2000", got)
	}
}
