package wgpu

import (
	"github.com/gogpu/gputypes"

	"github.com/acescore/render/driver"
)

// toTextureFormat maps driver.PixelFmt onto the wire format gputypes
// names for the hal.Device.CreateTexture call. gputypes has no signed
// 8-bit non-linear RGBA8n equivalent of the Vulkan SNORM formats'
// sibling UNORM/SRGB pair, so RGBA8n/RG8n/R8n fall back to the
// matching Snorm entries, which carry the same bit layout.
func toTextureFormat(f driver.PixelFmt) gputypes.TextureFormat {
	switch f {
	case driver.RGBA8un:
		return gputypes.TextureFormatRGBA8Unorm
	case driver.RGBA8n:
		return gputypes.TextureFormatRGBA8Snorm
	case driver.RGBA8sRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb
	case driver.BGRA8un:
		return gputypes.TextureFormatBGRA8Unorm
	case driver.BGRA8sRGB:
		return gputypes.TextureFormatBGRA8UnormSrgb
	case driver.RG8un:
		return gputypes.TextureFormatRG8Unorm
	case driver.RG8n:
		return gputypes.TextureFormatRG8Snorm
	case driver.R8un:
		return gputypes.TextureFormatR8Unorm
	case driver.R8n:
		return gputypes.TextureFormatR8Snorm
	case driver.RGBA16f:
		return gputypes.TextureFormatRGBA16Float
	case driver.RG16f:
		return gputypes.TextureFormatRG16Float
	case driver.R16f:
		return gputypes.TextureFormatR16Float
	case driver.RGBA32f:
		return gputypes.TextureFormatRGBA32Float
	case driver.RG32f:
		return gputypes.TextureFormatRG32Float
	case driver.R32f:
		return gputypes.TextureFormatR32Float
	case driver.D16un:
		return gputypes.TextureFormatDepth16Unorm
	case driver.D32f:
		return gputypes.TextureFormatDepth32Float
	case driver.S8ui:
		return gputypes.TextureFormatStencil8
	case driver.D24unS8ui:
		return gputypes.TextureFormatDepth24PlusStencil8
	case driver.D32fS8ui:
		return gputypes.TextureFormatDepth32FloatStencil8
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

// toBufferUsage maps a driver.Usage bitmask onto gputypes.BufferUsage.
// Every buffer also gets CopySrc|CopyDst so sched.go's staging-buffer
// readback path (CopyBufToImg/CopyImgToBuf) always has a legal target.
func toBufferUsage(usg driver.Usage, visible bool) gputypes.BufferUsage {
	u := gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if usg&(driver.UShaderRead|driver.UShaderWrite) != 0 {
		u |= gputypes.BufferUsageStorage
	}
	if usg&driver.UShaderConst != 0 {
		u |= gputypes.BufferUsageUniform
	}
	if usg&driver.UVertexData != 0 {
		u |= gputypes.BufferUsageVertex
	}
	if usg&driver.UIndexData != 0 {
		u |= gputypes.BufferUsageIndex
	}
	if visible {
		u |= gputypes.BufferUsageMapRead | gputypes.BufferUsageMapWrite
	}
	return u
}

func toTextureUsage(usg driver.Usage) gputypes.TextureUsage {
	u := gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding
	if usg&driver.UShaderWrite != 0 {
		u |= gputypes.TextureUsageStorageBinding
	}
	if usg&driver.URenderTarget != 0 {
		u |= gputypes.TextureUsageRenderAttachment
	}
	return u
}

func toDescType(t driver.DescType) (buffer, texture, sampler bool) {
	switch t {
	case driver.DBuffer, driver.DConstant:
		return true, false, false
	case driver.DImage, driver.DTexture:
		return false, true, false
	case driver.DSampler:
		return false, false, true
	default:
		return false, false, false
	}
}

func toBufferBindingType(t driver.DescType) gputypes.BufferBindingType {
	if t == driver.DConstant {
		return gputypes.BufferBindingTypeUniform
	}
	return gputypes.BufferBindingTypeStorage
}

func toAddressMode(a driver.AddrMode) gputypes.AddressMode {
	switch a {
	case driver.AWrap:
		return gputypes.AddressModeRepeat
	case driver.AMirror:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func toFilterMode(f driver.Filter) gputypes.FilterMode {
	if f == driver.FLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

func toMipmapFilterMode(f driver.Filter) gputypes.MipmapFilterMode {
	if f == driver.FLinear {
		return gputypes.MipmapFilterModeLinear
	}
	return gputypes.MipmapFilterModeNearest
}

func toShaderStages(s driver.Stage) gputypes.ShaderStages {
	var out gputypes.ShaderStages
	if s&driver.SVertex != 0 {
		out |= gputypes.ShaderStageVertex
	}
	if s&driver.SFragment != 0 {
		out |= gputypes.ShaderStageFragment
	}
	if s&driver.SCompute != 0 {
		out |= gputypes.ShaderStageCompute
	}
	return out
}
