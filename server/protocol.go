package wl

// Interface names.
const (
	displayInterface      = "wl_display"
	registryInterface     = "wl_registry"
	callbackInterface     = "wl_callback"
	compositorInterface   = "wl_compositor"
	shmPoolInterface      = "wl_shm_pool"
	shmInterface          = "wl_shm"
	bufferInterface       = "wl_buffer"
	shellInterface        = "wl_shell"
	shellSurfaceInterface = "wl_shell_surface"
	surfaceInterface      = "wl_surface"
	seatInterface         = "wl_seat"
	pointerInterface      = "wl_pointer"
	keyboardInterface     = "wl_keyboard"
	outputInterface       = "wl_output"
	regionInterface       = "wl_region"
)

// Versions of the globals that the server advertises.
const (
	compositorVersion = 4
	shmVersion        = 1
	seatVersion       = 5
	outputVersion     = 2
	shellVersion      = 1
)

// wl_display
const (
	displaySync uint16 = iota
	displayGetRegistry
)

const (
	displayError uint16 = iota
	displayDeleteID
)

// wl_display.error codes.
const (
	ErrorInvalidObject uint32 = iota
	ErrorInvalidMethod
	ErrorNoMemory
	ErrorImplementation
)

// wl_registry
const registryBind uint16 = 0

const (
	registryGlobal uint16 = iota
	registryGlobalRemove
)

// wl_callback
const callbackDone uint16 = 0

// wl_compositor
const (
	compositorCreateSurface uint16 = iota
	compositorCreateRegion
)

// wl_shm_pool
const (
	shmPoolCreateBuffer uint16 = iota
	shmPoolDestroy
	shmPoolResize
)

// wl_shm
const (
	shmCreatePool uint16 = iota
	shmRelease
)

const shmFormat uint16 = 0

// wl_shm.error codes.
const (
	shmErrorInvalidFormat uint32 = iota
	shmErrorInvalidStride
	shmErrorInvalidFD
)

// wl_buffer
const bufferDestroy uint16 = 0

const bufferRelease uint16 = 0

// wl_shell
const shellGetShellSurface uint16 = 0

const shellErrorRole uint32 = 0

// wl_shell_surface
const (
	shellSurfacePong uint16 = iota
	shellSurfaceMove
	shellSurfaceResize
	shellSurfaceSetToplevel
	shellSurfaceSetTransient
	shellSurfaceSetFullscreen
	shellSurfaceSetPopup
	shellSurfaceSetMaximized
	shellSurfaceSetTitle
	shellSurfaceSetClass
)

const (
	shellSurfacePing uint16 = iota
	shellSurfaceConfigure
	shellSurfacePopupDone
)

// wl_surface
const (
	surfaceDestroy uint16 = iota
	surfaceAttach
	surfaceDamage
	surfaceFrame
	surfaceSetOpaqueRegion
	surfaceSetInputRegion
	surfaceCommit
	surfaceSetBufferTransform
	surfaceSetBufferScale
	surfaceDamageBuffer
	surfaceOffset
)

// wl_surface.error codes.
const (
	surfaceErrorInvalidScale uint32 = iota
	surfaceErrorInvalidTransform
)

// wl_seat
const (
	seatGetPointer uint16 = iota
	seatGetKeyboard
	seatGetTouch
	seatRelease
)

const (
	seatCapabilities uint16 = iota
	seatName
)

// wl_seat.capability bits.
const (
	seatCapabilityPointer  uint32 = 1
	seatCapabilityKeyboard uint32 = 2
)

const seatErrorMissingCapability uint32 = 0

// wl_pointer
const (
	pointerSetCursor uint16 = iota
	pointerRelease
)

const (
	pointerEnter uint16 = iota
	pointerLeave
	pointerMotion
	pointerButton
)

const pointerErrorRole uint32 = 0

// wl_keyboard
const keyboardRelease uint16 = 0

const (
	keyboardKeymap uint16 = iota
	keyboardEnter
	keyboardLeave
)

const keymapFormatNoKeymap uint32 = 0

// wl_output
const outputRelease uint16 = 0

const (
	outputGeometry uint16 = iota
	outputMode
	outputDone
)

// wl_region
const (
	regionDestroy uint16 = iota
	regionAdd
	regionSubtract
)
