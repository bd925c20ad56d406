//go:build linux && cgo

package egl

/*
#cgo pkg-config: egl
#include <EGL/egl.h>
#include <EGL/eglext.h>

static EGLDisplay kms_get_display(void *native) {
	PFNEGLGETPLATFORMDISPLAYEXTPROC get = (PFNEGLGETPLATFORMDISPLAYEXTPROC)eglGetProcAddress("eglGetPlatformDisplayEXT");
	if (get) {
		return get(0x31d7, native, NULL);
	}
	return eglGetDisplay((EGLNativeDisplayType)native);
}

static EGLSurface kms_create_window_surface(EGLDisplay disp, EGLConfig conf, void *native) {
	PFNEGLCREATEPLATFORMWINDOWSURFACEEXTPROC create = (PFNEGLCREATEPLATFORMWINDOWSURFACEEXTPROC)eglGetProcAddress("eglCreatePlatformWindowSurfaceEXT");
	if (create) {
		return create(disp, conf, native, NULL);
	}
	return eglCreateWindowSurface(disp, conf, (EGLNativeWindowType)native, NULL);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Display is an initialized EGL display with a chosen config and an
// ES2 context.
type Display struct {
	disp   C.EGLDisplay
	config C.EGLConfig
	ctx    C.EGLContext
}

type Surface struct {
	d    *Display
	surf C.EGLSurface
}

func lastError() error {
	return Error(C.eglGetError())
}

// Open performs the EGL bring-up sequence on a native GBM device. The
// chosen config's native visual is format.
func Open(native unsafe.Pointer, format uint32) (*Display, error) {
	disp := C.kms_get_display(native)
	if disp == 0 {
		return nil, fmt.Errorf("get platform display: %w", lastError())
	}

	var major, minor C.EGLint
	if C.eglInitialize(disp, &major, &minor) == C.EGL_FALSE {
		return nil, fmt.Errorf("initialize: %w", lastError())
	}

	d := Display{disp: disp}
	if err := d.init(format); err != nil {
		C.eglTerminate(disp)
		return nil, err
	}
	return &d, nil
}

func (d *Display) init(format uint32) error {
	if C.eglBindAPI(C.EGL_OPENGL_ES_API) == C.EGL_FALSE {
		return fmt.Errorf("bind api: %w", lastError())
	}

	var n C.EGLint
	if C.eglGetConfigs(d.disp, nil, 0, &n) == C.EGL_FALSE || n < 1 {
		return fmt.Errorf("get configs: %w", lastError())
	}

	configs := make([]C.EGLConfig, n)
	attribs := make([]C.EGLint, len(configAttribs))
	for i, a := range configAttribs {
		attribs[i] = C.EGLint(a)
	}
	if C.eglChooseConfig(d.disp, &attribs[0], &configs[0], n, &n) == C.EGL_FALSE {
		return fmt.Errorf("choose config: %w", lastError())
	}
	configs = configs[:n]

	visuals := make([]int32, len(configs))
	for i, c := range configs {
		var id C.EGLint
		if C.eglGetConfigAttrib(d.disp, c, attrNativeVisual, &id) == C.EGL_FALSE {
			continue
		}
		visuals[i] = int32(id)
	}
	i, err := pickConfig(visuals, format)
	if err != nil {
		return err
	}
	d.config = configs[i]

	ctxAttribs := []C.EGLint{attrClientVersion, 2, attrNone}
	d.ctx = C.eglCreateContext(d.disp, d.config, nil, &ctxAttribs[0])
	if d.ctx == nil {
		return fmt.Errorf("create context: %w", lastError())
	}
	return nil
}

func (d *Display) BindWaylandDisplay() error {
	return ErrNoWaylandDisplay
}

// CreateWindowSurface creates a window surface over a native GBM
// surface.
func (d *Display) CreateWindowSurface(native unsafe.Pointer) (*Surface, error) {
	surf := C.kms_create_window_surface(d.disp, d.config, native)
	if surf == nil {
		return nil, fmt.Errorf("create window surface: %w", lastError())
	}
	return &Surface{d: d, surf: surf}, nil
}

func (s *Surface) MakeCurrent() error {
	if C.eglMakeCurrent(s.d.disp, s.surf, s.surf, s.d.ctx) == C.EGL_FALSE {
		return fmt.Errorf("make current: %w", lastError())
	}
	return nil
}

func (s *Surface) SwapBuffers() error {
	if C.eglSwapBuffers(s.d.disp, s.surf) == C.EGL_FALSE {
		return fmt.Errorf("swap buffers: %w", lastError())
	}
	return nil
}

func (s *Surface) Destroy() {
	if s.surf == nil {
		return
	}
	C.eglMakeCurrent(s.d.disp, nil, nil, nil)
	C.eglDestroySurface(s.d.disp, s.surf)
	s.surf = nil
}

func (d *Display) Terminate() {
	if d.ctx != nil {
		C.eglDestroyContext(d.disp, d.ctx)
		d.ctx = nil
	}
	C.eglTerminate(d.disp)
	C.eglReleaseThread()
}
