package opengl

import (
	"unsafe"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/spaghettifunk/rainfrog/engine/renderer"
)

var debugSourceLUT = map[uint32]string{
	gl.DEBUG_SOURCE_API:             "API",
	gl.DEBUG_SOURCE_WINDOW_SYSTEM:   "window system",
	gl.DEBUG_SOURCE_SHADER_COMPILER: "shader compiler",
	gl.DEBUG_SOURCE_THIRD_PARTY:     "third party",
	gl.DEBUG_SOURCE_APPLICATION:     "application",
	gl.DEBUG_SOURCE_OTHER:           "other",
}

var debugTypeLUT = map[uint32]string{
	gl.DEBUG_TYPE_ERROR:               "error",
	gl.DEBUG_TYPE_DEPRECATED_BEHAVIOR: "deprecated behavior",
	gl.DEBUG_TYPE_UNDEFINED_BEHAVIOR:  "undefined behavior",
	gl.DEBUG_TYPE_PORTABILITY:         "portability",
	gl.DEBUG_TYPE_PERFORMANCE:         "performance",
	gl.DEBUG_TYPE_MARKER:              "marker",
	gl.DEBUG_TYPE_OTHER:               "other",
}

var debugSeverityLUT = map[uint32]renderer.DebugSeverity{
	gl.DEBUG_SEVERITY_HIGH:         renderer.DebugSeverityHigh,
	gl.DEBUG_SEVERITY_MEDIUM:       renderer.DebugSeverityMedium,
	gl.DEBUG_SEVERITY_LOW:          renderer.DebugSeverityLow,
	gl.DEBUG_SEVERITY_NOTIFICATION: renderer.DebugSeverityNotification,
}

// SetDebugCallback routes KHR_debug output to fn. Output is synchronous so
// messages arrive on the thread that made the failing call.
func (d *Device) SetDebugCallback(fn func(renderer.DebugMessage)) {
	d.debug = fn
	if fn == nil {
		gl.Disable(gl.DEBUG_OUTPUT)
		return
	}
	gl.Enable(gl.DEBUG_OUTPUT)
	gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
	gl.DebugMessageCallback(d.onDebugMessage, nil)
}

func (d *Device) onDebugMessage(source, gltype, id, severity uint32, _ int32, message string, _ unsafe.Pointer) {
	if d.debug == nil {
		return
	}
	d.debug(renderer.DebugMessage{
		Source:   debugSourceLUT[source],
		Type:     debugTypeLUT[gltype],
		ID:       id,
		Severity: debugSeverityLUT[severity],
		Message:  message,
	})
}
