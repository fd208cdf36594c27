package wgpu

import "github.com/gogpu/wgpu/hal"

// nativeHandle is the accessor the gles backend's concrete Buffer,
// TextureView and Sampler types expose beyond hal's generic Resource
// interface (see hal/gles/resource.go's NativeHandle methods); it is
// what gputypes.BufferBinding/SamplerBinding/TextureViewBinding need
// to address a resource for CreateBindGroup. Not every backend in the
// pinned gogpu/wgpu release implements it (vulkan's concrete Buffer
// only exposes Handle() vk.Buffer, not a uintptr), so these lookups
// fail closed rather than guess: a descHeap bound against such a
// backend simply leaves that entry out of the bind group, and the
// dispatch that needed it fails with a descriptor-table error instead
// of silently binding garbage. See DESIGN.md for which backends this
// covers.
type nativeHandle interface {
	NativeHandle() uintptr
}

func nativeBuffer(b hal.Buffer) (uintptr, bool) {
	n, ok := b.(nativeHandle)
	if !ok {
		return 0, false
	}
	return n.NativeHandle(), true
}

func nativeTextureView(v hal.TextureView) (uintptr, bool) {
	n, ok := v.(nativeHandle)
	if !ok {
		return 0, false
	}
	return n.NativeHandle(), true
}

func nativeSampler(s hal.Sampler) (uintptr, bool) {
	n, ok := s.(nativeHandle)
	if !ok {
		return 0, false
	}
	return n.NativeHandle(), true
}
