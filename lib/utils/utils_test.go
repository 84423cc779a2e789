package utils

import (
	"image/color"
	"testing"
	"time"
)

func TestColour(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  color.RGBA
	}{
		{"#102030ff", true, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}},
		{"#FFfe0080", true, color.RGBA{R: 0xff, G: 0xfe, B: 0x00, A: 0x80}},
		{"#102030", false, color.RGBA{}},
		{"102030ff", false, color.RGBA{}},
		{"#102030ffx", false, color.RGBA{}},
		{"red", false, color.RGBA{}},
	}
	for _, tt := range tests {
		if got := ColourValidate(tt.in); got != tt.valid {
			t.Errorf("ColourValidate(%q) = %t", tt.in, got)
		}
		if got := ColourParse(tt.in); got != tt.want {
			t.Errorf("ColourParse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeltaTimer(t *testing.T) {
	now := time.Unix(100, 0)
	d := DeltaTimer{Now: func() time.Time { return now }}

	if dt := d.Next(); dt != 0 {
		t.Errorf("first Next() = %s", dt)
	}
	now = now.Add(40 * time.Millisecond)
	if dt := d.Next(); dt != 40*time.Millisecond {
		t.Errorf("Next() = %s, want 40ms", dt)
	}
	now = now.Add(time.Second)
	d.Reset()
	if dt := d.Next(); dt != 0 {
		t.Errorf("Next() after Reset = %s", dt)
	}
}
