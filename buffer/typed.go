// Package buffer provides GPU buffers holding arrays of fixed-layout values.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrEmptyData is returned when a buffer is created from no elements.
	ErrEmptyData = errors.New("buffer: no elements")

	// ErrNilDevice is returned when a buffer is created without a device.
	ErrNilDevice = errors.New("buffer: device is nil")

	// ErrAllocation is returned when the device fails to allocate the buffer.
	ErrAllocation = errors.New("buffer: allocation failed")

	// ErrUpload is returned when the queue rejects a buffer write.
	ErrUpload = errors.New("buffer: upload failed")

	// ErrDestroyed is returned when a destroyed buffer is read back.
	ErrDestroyed = errors.New("buffer: destroyed")
)

// copyAlignment is the alignment required for buffer sizes and write offsets.
const copyAlignment = 4

// Typed is a GPU buffer holding Len() elements of T.
//
// T must have a fixed size and no implicit padding, so its encoded form is
// identical to its in-memory layout. New panics otherwise.
//
// Typed keeps a CPU-side copy of the uploaded bytes. Partial updates are
// widened to the copy alignment from that copy, which lets element types
// smaller than four bytes be updated at any offset.
type Typed[T any] struct {
	label    string
	buf      hal.Buffer
	usage    gputypes.BufferUsage
	length   int
	elemSize int

	// shadow mirrors the device allocation, including alignment padding.
	shadow []byte
}

// ElemSize returns the encoded size of T in bytes. It panics if T has no
// fixed size or contains padding.
func ElemSize[T any]() int {
	var zero T
	size := binary.Size(zero)
	if size <= 0 || size != int(unsafe.Sizeof(zero)) {
		panic(fmt.Sprintf("buffer: %v is not a fixed-layout type (encoded %d bytes, in memory %d)",
			reflect.TypeOf(zero), size, unsafe.Sizeof(zero)))
	}
	return size
}

// New creates a buffer from data and uploads it through queue.
// CopyDst is always added to usage. The label defaults to the element type
// name.
func New[T any](device hal.Device, queue hal.Queue, label string, data []T, usage gputypes.BufferUsage) (*Typed[T], error) {
	elemSize := ElemSize[T]()
	if device == nil {
		return nil, ErrNilDevice
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if label == "" {
		label = fmt.Sprintf("%v buffer", reflect.TypeOf(data).Elem())
	}

	size := len(data) * elemSize
	padded := alignUp(size)
	usage |= gputypes.BufferUsageCopyDst

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(padded), //nolint:gosec // size is positive
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%d bytes): %w", ErrAllocation, label, padded, err)
	}

	b := &Typed[T]{
		label:    label,
		buf:      buf,
		usage:    usage,
		length:   len(data),
		elemSize: elemSize,
		shadow:   make([]byte, padded),
	}
	encode(b.shadow, data)
	if err := queue.WriteBuffer(buf, 0, b.shadow); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("%w: %s: %w", ErrUpload, label, err)
	}
	return b, nil
}

// Update overwrites elements [offset, offset+len(data)) and uploads them.
// Every call issues a write, even if the contents are unchanged. Bytes
// reflects the new contents even if the write fails.
//
// Update panics if the range falls outside the buffer.
func (b *Typed[T]) Update(queue hal.Queue, data []T, offset int) error {
	if offset < 0 || offset+len(data) > b.length {
		panic(fmt.Sprintf("buffer: %s: update [%d, %d) out of range [0, %d)",
			b.label, offset, offset+len(data), b.length))
	}
	if len(data) == 0 {
		return nil
	}
	if b.buf == nil {
		panic(fmt.Sprintf("buffer: %s: update after destroy", b.label))
	}

	start := offset * b.elemSize
	end := start + len(data)*b.elemSize
	encode(b.shadow[start:end], data)

	lo := start &^ (copyAlignment - 1)
	hi := alignUp(end)
	if err := queue.WriteBuffer(b.buf, uint64(lo), b.shadow[lo:hi]); err != nil { //nolint:gosec // lo is non-negative
		return fmt.Errorf("%w: %s [%d, %d): %w", ErrUpload, b.label, lo, hi, err)
	}
	return nil
}

// Len returns the number of elements.
func (b *Typed[T]) Len() int { return b.length }

// Size returns the logical size in bytes, Len() * sizeof(T).
func (b *Typed[T]) Size() uint64 { return uint64(b.length * b.elemSize) } //nolint:gosec // non-negative

// AllocatedSize returns the device allocation size including alignment padding.
func (b *Typed[T]) AllocatedSize() uint64 { return uint64(len(b.shadow)) }

// Usage returns the usage flags the buffer was created with.
func (b *Typed[T]) Usage() gputypes.BufferUsage { return b.usage }

// Label returns the debug label.
func (b *Typed[T]) Label() string { return b.label }

// Raw returns the underlying HAL buffer, or nil after Destroy.
func (b *Typed[T]) Raw() hal.Buffer { return b.buf }

// Bytes returns a copy of the logical contents as last uploaded.
func (b *Typed[T]) Bytes() []byte {
	out := make([]byte, b.Size())
	copy(out, b.shadow)
	return out
}

// ReadBack maps the device allocation and returns a copy of its logical
// contents. The buffer must be host-visible (MapRead usage, or a backend
// whose allocations are always mappable) and idle on the GPU.
func (b *Typed[T]) ReadBack(device hal.Device) ([]byte, error) {
	if b.buf == nil {
		return nil, fmt.Errorf("%w: %s", ErrDestroyed, b.label)
	}
	size := b.Size()
	m, err := device.MapBuffer(b.buf, 0, size)
	if err != nil {
		return nil, fmt.Errorf("buffer: map %s: %w", b.label, err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	if err := device.UnmapBuffer(b.buf); err != nil {
		return out, fmt.Errorf("buffer: unmap %s: %w", b.label, err)
	}
	return out, nil
}

// Destroy releases the device buffer. Safe to call multiple times.
func (b *Typed[T]) Destroy(device hal.Device) {
	if b.buf == nil || device == nil {
		return
	}
	device.DestroyBuffer(b.buf)
	b.buf = nil
}

// encode writes data into dst in little-endian layout.
func encode[T any](dst []byte, data []T) {
	enc, err := binary.Append(make([]byte, 0, len(dst)), binary.LittleEndian, data)
	if err != nil {
		// ElemSize has already verified the type is encodable.
		panic(fmt.Sprintf("buffer: encode: %v", err))
	}
	copy(dst, enc)
}

func alignUp(n int) int {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}
