package rendering

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Init loads the GL function pointers. It must be called on the thread
// holding the GL context.
func Init() error {
	err := gl.Init()
	if err != nil {
		return fmt.Errorf("could not initialise OpenGL context: %w", err)
	}

	version := gl.GoStr(gl.GetString(gl.VERSION))
	slog.Info(fmt.Sprintf("OpenGL version '%s'", version), slog.String("module", "rendering"))

	return nil
}

// DetectCapabilities queries the current GL context.
func DetectCapabilities() DeviceCapabilities {
	var major, minor, maxSize int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
	if major == 0 {
		// MAJOR_VERSION is unknown to pre-3.0 contexts
		fmt.Sscanf(gl.GoStr(gl.GetString(gl.VERSION)), "%d.%d", &major, &minor)
	}
	caps := capabilitiesForVersion(int(major), int(minor), int(maxSize))
	if major > 3 || (major == 3 && minor >= 2) {
		var mask int32
		gl.GetIntegerv(gl.CONTEXT_PROFILE_MASK, &mask)
		caps.CoreProfile = mask&gl.CONTEXT_CORE_PROFILE_BIT != 0
	}
	return caps
}
