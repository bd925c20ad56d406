// Package gles is a render backend that composites with OpenGL ES 2
// into GBM surfaces through EGL.
package gles

import (
	"errors"

	"deedles.dev/kms/buffer"
)

// ErrUnavailable is returned when the program was built without GLES
// support.
var ErrUnavailable = errors.New("gles unavailable")

const vertexShader = `#version 100
attribute vec2 position;
attribute vec2 uv;
uniform float size_x;
uniform float size_y;
varying vec2 v_uv;
void main() {
	gl_Position = vec4(2.0 * position.x / size_x - 1.0, 1.0 - 2.0 * position.y / size_y, 0.0, 1.0);
	v_uv = uv;
}
`

const fragmentShader = `#version 100
precision mediump float;
varying vec2 v_uv;
uniform sampler2D tex;
uniform bool swap;
uniform bool opaque;
void main() {
	vec4 c = texture2D(tex, v_uv);
	if (swap) {
		c = c.bgra;
	}
	if (opaque) {
		c.a = 1.0;
	}
	gl_FragColor = c;
}
`

// swizzle reports whether pixels of format f must have their red and
// blue channels swapped after an RGBA upload of their bytes.
func swizzle(f buffer.Format) (swap, ok bool) {
	switch f {
	case buffer.ARGB8888, buffer.XRGB8888:
		return true, true
	case buffer.ABGR8888, buffer.XBGR8888:
		return false, true
	}
	return false, false
}
