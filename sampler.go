/*
Copyright 2025 The goARRG Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package xrhi

import "goarrg.com/rhi/xrhi/internal/vk"

type SamplerFilter vk.Filter

const (
	SamplerFilterNearest = SamplerFilter(vk.FILTER_NEAREST)
	SamplerFilterLinear  = SamplerFilter(vk.FILTER_LINEAR)
)

type SamplerMipMapMode vk.SamplerMipmapMode

const (
	SamplerMipMapModeNearest = SamplerMipMapMode(vk.SAMPLER_MIPMAP_MODE_NEAREST)
	SamplerMipMapModeLinear  = SamplerMipMapMode(vk.SAMPLER_MIPMAP_MODE_LINEAR)
)

type SamplerAddressMode vk.SamplerAddressMode

const (
	SamplerAddressModeRepeat         = SamplerAddressMode(vk.SAMPLER_ADDRESS_MODE_REPEAT)
	SamplerAddressModeMirroredRepeat = SamplerAddressMode(vk.SAMPLER_ADDRESS_MODE_MIRRORED_REPEAT)
	SamplerAddressModeClampToEdge    = SamplerAddressMode(vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE)
	SamplerAddressModeClampToBorder  = SamplerAddressMode(vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER)
)

type SamplerInfo struct {
	Name       string
	MagFilter  SamplerFilter
	MinFilter  SamplerFilter
	MipMapMode SamplerMipMapMode
	BorderMode SamplerAddressMode
	// Anisotropy <= 1 disables anisotropic filtering.
	Anisotropy float32
}

type Sampler struct {
	handle
	info      SamplerInfo
	vkSampler vk.Sampler
}

func (s *Sampler) Info() SamplerInfo {
	s.check()
	return s.info
}

func (c *Context) CreateSampler(info SamplerInfo) *Sampler {
	b := c.vkb()
	s := &Sampler{info: info}
	vkInfo := vk.SamplerCreateInfo{
		MagFilter:    vk.Filter(info.MagFilter),
		MinFilter:    vk.Filter(info.MinFilter),
		MipmapMode:   vk.SamplerMipmapMode(info.MipMapMode),
		AddressModeU: vk.SamplerAddressMode(info.BorderMode),
		AddressModeV: vk.SamplerAddressMode(info.BorderMode),
		AddressModeW: vk.SamplerAddressMode(info.BorderMode),
		MaxLod:       1000,
	}
	if info.Anisotropy > 1 {
		vkInfo.AnisotropyEnable = true
		vkInfo.MaxAnisotropy = info.Anisotropy
	}
	if !c.vkCheck("vkCreateSampler", b.drv.CreateSampler(&vkInfo, &s.vkSampler)) {
		return nil
	}
	s.handle.init(c, HandleSampler, info.Name)
	return s
}

func (c *Context) DestroySampler(s *Sampler) {
	if s == nil || !s.release(c) {
		return
	}
	c.vkb().drv.DestroySampler(s.vkSampler)
	s.close()
}
