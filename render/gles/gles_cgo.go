//go:build linux && cgo

package gles

/*
#cgo pkg-config: glesv2
#include <stdlib.h>
#include <GLES2/gl2.h>

static GLuint kms_compile(GLenum type, const char *src, char *log, int n) {
	GLuint s = glCreateShader(type);
	glShaderSource(s, 1, &src, NULL);
	glCompileShader(s);
	GLint ok = 0;
	glGetShaderiv(s, GL_COMPILE_STATUS, &ok);
	if (!ok) {
		glGetShaderInfoLog(s, n, NULL, log);
		glDeleteShader(s);
		return 0;
	}
	return s;
}

static GLuint kms_link(GLuint vs, GLuint fs, char *log, int n) {
	GLuint p = glCreateProgram();
	glAttachShader(p, vs);
	glAttachShader(p, fs);
	glBindAttribLocation(p, 0, "position");
	glBindAttribLocation(p, 1, "uv");
	glLinkProgram(p);
	glDeleteShader(vs);
	glDeleteShader(fs);
	GLint ok = 0;
	glGetProgramiv(p, GL_LINK_STATUS, &ok);
	if (!ok) {
		glGetProgramInfoLog(p, n, NULL, log);
		glDeleteProgram(p);
		return 0;
	}
	return p;
}

static void kms_begin(GLuint prog, int w, int h, float r, float g, float b) {
	glViewport(0, 0, w, h);
	glClearColor(r, g, b, 1.0f);
	glClear(GL_COLOR_BUFFER_BIT);
	glEnable(GL_BLEND);
	glBlendFunc(GL_ONE, GL_ONE_MINUS_SRC_ALPHA);
	glUseProgram(prog);
	glUniform1f(glGetUniformLocation(prog, "size_x"), (GLfloat)w);
	glUniform1f(glGetUniformLocation(prog, "size_y"), (GLfloat)h);
	glUniform1i(glGetUniformLocation(prog, "tex"), 0);
}

static GLuint kms_upload(GLuint tex, int w, int h, int stride, const void *pix) {
	if (!tex) {
		glGenTextures(1, &tex);
	}
	glBindTexture(GL_TEXTURE_2D, tex);
	glTexParameteri(GL_TEXTURE_2D, GL_TEXTURE_MIN_FILTER, GL_LINEAR);
	glTexParameteri(GL_TEXTURE_2D, GL_TEXTURE_MAG_FILTER, GL_LINEAR);
	glTexParameteri(GL_TEXTURE_2D, GL_TEXTURE_WRAP_S, GL_CLAMP_TO_EDGE);
	glTexParameteri(GL_TEXTURE_2D, GL_TEXTURE_WRAP_T, GL_CLAMP_TO_EDGE);
	glPixelStorei(GL_UNPACK_ALIGNMENT, 4);
	if (stride == w * 4) {
		glTexImage2D(GL_TEXTURE_2D, 0, GL_RGBA, w, h, 0, GL_RGBA, GL_UNSIGNED_BYTE, pix);
		return tex;
	}
	glTexImage2D(GL_TEXTURE_2D, 0, GL_RGBA, w, h, 0, GL_RGBA, GL_UNSIGNED_BYTE, NULL);
	for (int y = 0; y < h; y++) {
		glTexSubImage2D(GL_TEXTURE_2D, 0, 0, y, w, 1, GL_RGBA, GL_UNSIGNED_BYTE, (const char *)pix + y * stride);
	}
	return tex;
}

static void kms_draw(GLuint prog, GLuint tex, int swap, int opaque, float x0, float y0, float x1, float y1) {
	GLfloat v[] = {
		x0, y0, 0, 0,
		x0, y1, 0, 1,
		x1, y0, 1, 0,
		x1, y1, 1, 1,
	};
	GLushort indices[] = {0, 1, 2, 3};

	glUniform1i(glGetUniformLocation(prog, "swap"), swap);
	glUniform1i(glGetUniformLocation(prog, "opaque"), opaque);
	glActiveTexture(GL_TEXTURE0);
	glBindTexture(GL_TEXTURE_2D, tex);
	glBindBuffer(GL_ARRAY_BUFFER, 0);
	glVertexAttribPointer(0, 2, GL_FLOAT, GL_FALSE, 4 * sizeof(GLfloat), v);
	glEnableVertexAttribArray(0);
	glVertexAttribPointer(1, 2, GL_FLOAT, GL_FALSE, 4 * sizeof(GLfloat), v + 2);
	glEnableVertexAttribArray(1);
	glDrawElements(GL_TRIANGLE_STRIP, 4, GL_UNSIGNED_SHORT, indices);
}

static void kms_delete_texture(GLuint tex) {
	glDeleteTextures(1, &tex);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"deedles.dev/kms/buffer"
	"deedles.dev/kms/egl"
	"deedles.dev/kms/fbdev"
	"deedles.dev/kms/gbm"
	"deedles.dev/kms/render"
)

type Backend struct {
	dev  *fbdev.Device
	disp *egl.Display
	gbm  *gbm.Device

	prog    C.GLuint
	current *egl.Surface
}

// New brings up EGL on dev. The shader program is built when the first
// target is made current.
func New(dev *fbdev.Device) (*Backend, error) {
	g, err := dev.GBM()
	if err != nil {
		return nil, err
	}
	disp, err := dev.EGL()
	if err != nil {
		return nil, err
	}
	return &Backend{dev: dev, disp: disp, gbm: g}, nil
}

func (b *Backend) Name() string { return "gles" }

// BindWaylandDisplay lets clients share buffers with the EGL display.
func (b *Backend) BindWaylandDisplay() error {
	return b.disp.BindWaylandDisplay()
}

func (b *Backend) Destroy() {
	if b.prog != 0 {
		C.glDeleteProgram(b.prog)
		b.prog = 0
	}
}

func (b *Backend) makeCurrent(s *egl.Surface) error {
	if b.current == s {
		return nil
	}
	if err := s.MakeCurrent(); err != nil {
		return err
	}
	b.current = s

	if b.prog == 0 {
		return b.compile()
	}
	return nil
}

func (b *Backend) compile() error {
	const logSize = 512
	log := (*C.char)(C.calloc(logSize, 1))
	defer C.free(unsafe.Pointer(log))

	vsrc := C.CString(vertexShader)
	defer C.free(unsafe.Pointer(vsrc))
	fsrc := C.CString(fragmentShader)
	defer C.free(unsafe.Pointer(fsrc))

	vs := C.kms_compile(C.GL_VERTEX_SHADER, vsrc, log, logSize)
	if vs == 0 {
		return fmt.Errorf("compile vertex shader: %v", C.GoString(log))
	}
	fs := C.kms_compile(C.GL_FRAGMENT_SHADER, fsrc, log, logSize)
	if fs == 0 {
		C.glDeleteShader(vs)
		return fmt.Errorf("compile fragment shader: %v", C.GoString(log))
	}
	prog := C.kms_link(vs, fs, log, logSize)
	if prog == 0 {
		return fmt.Errorf("link program: %v", C.GoString(log))
	}
	b.prog = prog
	return nil
}

type texture struct {
	b      *Backend
	id     C.GLuint
	size   image.Point
	swap   bool
	opaque bool
}

func (t *texture) Size() image.Point { return t.size }

func (t *texture) Destroy() {
	if t.id != 0 {
		C.kms_delete_texture(t.id)
		t.id = 0
	}
}

func (b *Backend) Upload(prev render.Texture, buf buffer.Buffer) (render.Texture, error) {
	swap, ok := swizzle(buf.Format())
	if !ok {
		return prev, fmt.Errorf("upload %v: %w", buf.Format(), render.ErrFormat)
	}
	if b.current == nil {
		return prev, errors.New("upload without a current target")
	}

	tex, ok := prev.(*texture)
	if !ok || tex.b != b {
		if prev != nil {
			prev.Destroy()
		}
		tex = &texture{b: b}
	}

	buf.BeginAccess()
	defer buf.EndAccess()

	data := buf.Data()
	if len(data) == 0 {
		return tex, errors.New("buffer data unavailable")
	}

	tex.id = C.kms_upload(tex.id, C.int(buf.Width()), C.int(buf.Height()), C.int(buf.Stride()), unsafe.Pointer(&data[0]))
	tex.size = image.Pt(buf.Width(), buf.Height())
	tex.swap = swap
	tex.opaque = buf.Format().Opaque()
	return tex, nil
}

func (b *Backend) NewTarget(width, height uint32) (gbm.Allocator, render.Output, error) {
	ns, err := b.gbm.CreateSurface(width, height, gbm.FormatXRGB8888, gbm.UseScanout|gbm.UseRendering)
	if err != nil {
		return nil, nil, err
	}

	es, err := b.disp.CreateWindowSurface(ns.Ptr())
	if err != nil {
		ns.Destroy()
		return nil, nil, err
	}

	out := Output{b: b, surf: es, width: int(width), height: int(height)}
	if err := b.makeCurrent(es); err != nil {
		es.Destroy()
		ns.Destroy()
		return nil, nil, err
	}
	return ns, &out, nil
}

type Output struct {
	b             *Backend
	surf          *egl.Surface
	width, height int
}

func (out *Output) Begin() error {
	if err := out.b.makeCurrent(out.surf); err != nil {
		return err
	}

	bg := render.Background
	C.kms_begin(out.b.prog, C.int(out.width), C.int(out.height),
		C.float(float32(bg.R)/255), C.float(float32(bg.G)/255), C.float(float32(bg.B)/255))
	return nil
}

func bool2int(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (out *Output) Draw(tex render.Texture, r image.Rectangle) {
	t, ok := tex.(*texture)
	if !ok || t.id == 0 {
		return
	}
	C.kms_draw(out.b.prog, t.id, bool2int(t.swap), bool2int(t.opaque),
		C.float(r.Min.X), C.float(r.Min.Y), C.float(r.Max.X), C.float(r.Max.Y))
}

func (out *Output) End() error {
	return out.surf.SwapBuffers()
}

func (out *Output) Destroy() {
	if out.b.current == out.surf {
		out.b.current = nil
	}
	out.surf.Destroy()
}
