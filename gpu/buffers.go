package gpu

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// BufferManager wraps a device with the buffer bookkeeping the simulation
// packages share. Every buffer in the engine is sized once at construction;
// capacity changes mean building a new store, never resizing in place.
type BufferManager struct {
	Device *wgpu.Device
}

func NewBufferManager(device *wgpu.Device) *BufferManager {
	return &BufferManager{Device: device}
}

// CreateZeroed allocates a fixed-size zero-filled buffer. Sized attribute
// stores never resize, so failures here are fatal.
func (m *BufferManager) CreateZeroed(name string, size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	if size%4 != 0 {
		size += 4 - (size % 4)
	}
	buf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            name,
		Size:             size,
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		panic(err)
	}
	return buf
}

func Mat4ToBytes(m [16]float32) []byte {
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func Vec3ToBytesPadded(v [3]float32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	return buf
}

func Vec4ToBytes(v [4]float32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v[3]))
	return buf
}

// Float32SliceToBytes packs a flat f32 slice, 4 bytes per element, no padding.
func Float32SliceToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// PutFloat32 writes one f32 at a byte offset into an existing uniform image.
func PutFloat32(dst []byte, offset int, f float32) {
	binary.LittleEndian.PutUint32(dst[offset:], math.Float32bits(f))
}

// PutUint32 writes one u32 at a byte offset into an existing uniform image.
func PutUint32(dst []byte, offset int, u uint32) {
	binary.LittleEndian.PutUint32(dst[offset:], u)
}
