package rendering

import (
	"fmt"
)

// DeviceCapabilities describes what the GL implementation can do, as
// far as texture uploads are concerned.
type DeviceCapabilities struct {
	UnpackRowLength bool `json:"unpack_row_length"`
	RedFormat       bool `json:"red_format"`
	Texture16Bit    bool `json:"texture_16bit"`
	NonPowerOfTwo   bool `json:"non_power_of_two"`
	MaxTextureSize  int  `json:"max_texture_size"`
	// CoreProfile contexts have no legacy alpha or luminance textures.
	CoreProfile bool `json:"core_profile"`
}

// FullCapabilities is what any GL 3.0+ context provides.
func FullCapabilities(maxTextureSize int) DeviceCapabilities {
	return DeviceCapabilities{
		UnpackRowLength: true,
		RedFormat:       true,
		Texture16Bit:    true,
		NonPowerOfTwo:   true,
		MaxTextureSize:  maxTextureSize,
	}
}

// CapabilityOverrides allow disabling detected features, mostly to
// exercise fallback paths on capable hardware.
type CapabilityOverrides struct {
	DisableUnpackRowLength bool `yaml:"disable_unpack_row_length"`
	DisableRedFormat       bool `yaml:"disable_red_format"`
	Disable16BitTextures   bool `yaml:"disable_16bit_textures"`
	DisableNPOT            bool `yaml:"disable_npot"`
	MaxTextureSize         int  `yaml:"max_texture_size"`
}

func (o *CapabilityOverrides) Validate() error {
	if o.MaxTextureSize < 0 {
		return fmt.Errorf("max_texture_size must not be negative")
	}
	return nil
}

// CheckOverrides reports overrides the context cannot honour.
// disable_red_format forces the alpha texture fallback, which only
// legacy contexts provide.
func (c DeviceCapabilities) CheckOverrides(o *CapabilityOverrides) error {
	if o != nil && o.DisableRedFormat && c.CoreProfile {
		return fmt.Errorf("disable_red_format needs a compatibility profile context, this one is core")
	}
	return nil
}

func (c DeviceCapabilities) WithOverrides(o *CapabilityOverrides) DeviceCapabilities {
	if o == nil {
		return c
	}
	if o.DisableUnpackRowLength {
		c.UnpackRowLength = false
	}
	if o.DisableRedFormat {
		c.RedFormat = false
	}
	if o.Disable16BitTextures {
		c.Texture16Bit = false
	}
	if o.DisableNPOT {
		c.NonPowerOfTwo = false
	}
	if o.MaxTextureSize > 0 && (c.MaxTextureSize == 0 || o.MaxTextureSize < c.MaxTextureSize) {
		c.MaxTextureSize = o.MaxTextureSize
	}
	return c
}

// capabilitiesForVersion derives the capabilities from a GL version.
// Everything we care about is core since 3.0; older contexts need the
// legacy paths.
func capabilitiesForVersion(major, minor int, maxTextureSize int) DeviceCapabilities {
	if major >= 3 {
		return FullCapabilities(maxTextureSize)
	}
	return DeviceCapabilities{
		UnpackRowLength: true,
		NonPowerOfTwo:   major == 2,
		MaxTextureSize:  maxTextureSize,
	}
}

func (c DeviceCapabilities) String() string {
	return fmt.Sprintf(
		"row_length=%t red=%t 16bit=%t npot=%t max_size=%d",
		c.UnpackRowLength, c.RedFormat, c.Texture16Bit, c.NonPowerOfTwo, c.MaxTextureSize,
	)
}
