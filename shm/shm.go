// Package shm maps shared memory handed over by clients.
package shm

import (
	"fmt"
	"os"

	"deedles.dev/kms/object"
	"golang.org/x/sys/unix"
)

// Create returns an anonymous, already unlinked shared memory file of
// the given size.
func Create(name string, size int64) (*os.File, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	file := os.NewFile(uintptr(fd), name)

	err = file.Truncate(size)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("truncate: %w", err)
	}
	return file, nil
}

type Mmap []byte

func Map(file *os.File, size int, prot int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	cerr := sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, unix.MAP_SHARED)
		mmap, err = Mmap(m), merr
	})
	if cerr != nil {
		return nil, cerr
	}

	return mmap, err
}

func (mmap Mmap) Unmap() error {
	if mmap == nil {
		return nil
	}
	return unix.Munmap(mmap)
}

var poolType = object.NewType("shm_pool", nil)

// Pool is a client's shared memory pool. Buffers carved out of the
// pool hold a reference to it so that the mapping outlives the
// client's pool object for as long as any buffer needs it. The mapping
// may move on Resize, so readers hold the object's read lock while
// they touch it.
type Pool struct {
	object.Object

	file *os.File
	mmap Mmap
}

// NewPool maps size bytes of file. The pool takes ownership of file.
func NewPool(file *os.File, size int) (*Pool, error) {
	if size <= 0 {
		file.Close()
		return nil, fmt.Errorf("invalid pool size %v: %w", size, unix.EINVAL)
	}

	mmap, err := Map(file, size, unix.PROT_READ)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap pool: %w", err)
	}

	p := Pool{file: file, mmap: mmap}
	p.Init(poolType, &p)
	return &p, nil
}

// Bytes returns the current mapping. Callers hold the read lock.
func (p *Pool) Bytes() []byte { return p.mmap }

func (p *Pool) Size() int {
	p.RLock()
	defer p.RUnlock()
	return len(p.mmap)
}

// Resize grows the mapping. Pools can never shrink.
func (p *Pool) Resize(size int) error {
	p.Lock()
	defer p.Unlock()

	if size < len(p.mmap) {
		return fmt.Errorf("shrink pool from %v to %v: %w", len(p.mmap), size, unix.EINVAL)
	}
	if size == len(p.mmap) {
		return nil
	}

	mmap, err := unix.Mremap(p.mmap, size, unix.MREMAP_MAYMOVE)
	if err != nil {
		return fmt.Errorf("mremap pool: %w", err)
	}
	p.mmap = mmap
	return nil
}

// Deinit unmaps the pool when its last reference is dropped.
func (p *Pool) Deinit() {
	p.Lock()
	defer p.Unlock()

	p.mmap.Unmap()
	p.mmap = nil
	p.file.Close()
}

// File returns the file backing the pool.
func (p *Pool) File() *os.File {
	return p.file
}
