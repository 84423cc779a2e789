package utils

import (
	"image/color"
	"regexp"
	"strconv"
)

var colourRe = regexp.MustCompile(`^#[0-9A-Fa-f]{8}$`)

// ColourValidate accepts #rrggbbaa hex colours.
func ColourValidate(c string) bool {
	return colourRe.MatchString(c)
}

// ColourParse must only be called on a validated colour; anything else
// yields transparent black.
func ColourParse(s string) color.RGBA {
	if !ColourValidate(s) {
		return color.RGBA{}
	}
	v, _ := strconv.ParseUint(s[1:], 16, 32)
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
