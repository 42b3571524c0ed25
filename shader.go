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

import (
	"encoding/binary"
	"io"
	"strings"

	"goarrg.com/asset"
	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute

	ShaderStageGraphics = ShaderStageVertex | ShaderStageFragment
	ShaderStageAll      = ShaderStageGraphics | ShaderStageCompute
)

func (s ShaderStage) String() string {
	str := ""

	if hasBits(s, ShaderStageVertex) {
		str += "Vertex|"
	}
	if hasBits(s, ShaderStageFragment) {
		str += "Fragment|"
	}
	if hasBits(s, ShaderStageCompute) {
		str += "Compute|"
	}

	return strings.TrimSuffix(str, "|")
}

func (s ShaderStage) vkShaderStageFlags() vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if hasBits(s, ShaderStageVertex) {
		flags |= vk.SHADER_STAGE_VERTEX_BIT
	}
	if hasBits(s, ShaderStageFragment) {
		flags |= vk.SHADER_STAGE_FRAGMENT_BIT
	}
	if hasBits(s, ShaderStageCompute) {
		flags |= vk.SHADER_STAGE_COMPUTE_BIT
	}
	return flags
}

func (s ShaderStage) single() bool {
	return s == ShaderStageVertex || s == ShaderStageFragment || s == ShaderStageCompute
}

const spirvMagic = 0x07230203

// ShaderInfo describes one entry point of an opaque bytecode blob.
type ShaderInfo struct {
	Name       string
	Stage      ShaderStage
	EntryPoint string
	Code       []byte
}

type Shader struct {
	handle
	info     ShaderInfo
	vkModule vk.ShaderModule
}

// Info returns the creation parameters, Code aliases the blob given to CreateShader.
func (s *Shader) Info() ShaderInfo {
	s.check()
	return s.info
}

func (s *Shader) Stage() ShaderStage {
	s.check()
	return s.info.Stage
}

func (s *Shader) vkStageInfo() vk.PipelineShaderStageCreateInfo {
	s.check()
	return vk.PipelineShaderStageCreateInfo{
		Stage:  s.info.Stage.vkShaderStageFlags(),
		Module: s.vkModule,
		Name:   s.info.EntryPoint,
	}
}

func (c *Context) CreateShader(info ShaderInfo) *Shader {
	b := c.vkb()
	if !info.Stage.single() {
		c.abort("[%s] Shader must have exactly one stage, got %q", info.Name, info.Stage)
	}
	if info.EntryPoint == "" {
		info.EntryPoint = "main"
	}
	if len(info.Code) >= 4 && binary.LittleEndian.Uint32(info.Code) != spirvMagic {
		c.logger.WPrintf("[%s] Shader code does not start with the SPIR-V magic number", info.Name)
	}

	s := &Shader{info: info}
	if !c.vkCheck("vkCreateShaderModule", b.drv.CreateShaderModule(&vk.ShaderModuleCreateInfo{Code: info.Code}, &s.vkModule)) {
		return nil
	}
	s.handle.init(c, HandleShader, info.Name)
	c.logger.VPrintf("Created shader %q: stage %s entry point %q size %d", info.Name, info.Stage, info.EntryPoint, len(info.Code))
	return s
}

// DestroyShader may be called as soon as every pipeline using s has been created.
func (c *Context) DestroyShader(s *Shader) {
	if s == nil || !s.release(c) {
		return
	}
	c.vkb().drv.DestroyShaderModule(s.vkModule)
	s.close()
}

/*
LoadShader reads precompiled bytecode from fsys and returns a ShaderInfo ready for CreateShader, the shader is
named after path.
*/
func LoadShader(fsys *asset.FileSystem, path string, stage ShaderStage, entry string) (ShaderInfo, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return ShaderInfo{}, debug.ErrorWrapf(err, "Failed to open shader %q", path)
	}
	a := f.(*asset.File)
	defer a.Close()

	code := make([]byte, int(a.Size()))
	if _, err := io.ReadFull(a, code); err != nil {
		return ShaderInfo{}, debug.ErrorWrapf(err, "Failed to read shader %q", path)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return ShaderInfo{}, debug.Errorf("Shader %q has invalid size %d", path, len(code))
	}

	return ShaderInfo{
		Name:       path,
		Stage:      stage,
		EntryPoint: entry,
		Code:       code,
	}, nil
}
