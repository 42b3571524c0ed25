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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
Backend = "vk"
Driver = "software"
AppName = "demo"
Validation = true
LogLevel = 2

[ResourceSetPool]
SetsPerPool = 64
Ratios = { UniformBuffer = 2.0, combinedtexturesampler = 4.0 }
`))
	require.NoError(t, err)
	assert.Equal(t, BackendVulkan, cfg.Backend)
	assert.Equal(t, DriverSoftware, cfg.Driver)
	assert.Equal(t, "demo", cfg.AppName)
	assert.True(t, cfg.Validation)
	assert.Equal(t, uint32(2), cfg.LogLevel)
	assert.Equal(t, "default", cfg.ResourceSetPool.Name)
	assert.Equal(t, uint32(64), cfg.ResourceSetPool.SetsPerPool)
	assert.Equal(t, map[ResourceKind]float32{
		ResourceUniformBuffer:          2,
		ResourceCombinedTextureSampler: 4,
	}, cfg.ResourceSetPool.Ratios)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"unknown field", `Renderer = "vulkan"`},
		{"unknown backend", `Backend = "d3d12"`},
		{"unknown driver", `Driver = "remote"`},
		{"unknown resource kind", "[ResourceSetPool]\nRatios = { Texture = 1.0 }"},
		{"negative ratio", "[ResourceSetPool]\nRatios = { Sampler = -1.0 }"},
		{"bad syntax", `Backend = `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(tt.toml))
			assert.Error(t, err)
		})
	}
}

func TestConfigMarshalJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = 3
	data, err := cfg.MarshalJSON()
	require.NoError(t, err)
	require.True(t, json.Valid(data), string(data))

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "Vulkan", got["Backend"])
	assert.Equal(t, "Software", got["Driver"])
	assert.Equal(t, float64(3), got["LogLevel"])
}

func TestBackendUnmarshalText(t *testing.T) {
	var b Backend
	require.NoError(t, b.UnmarshalText([]byte("Metal")))
	assert.Equal(t, BackendMetal, b)
	require.NoError(t, b.UnmarshalText([]byte("VULKAN")))
	assert.Equal(t, BackendVulkan, b)
	assert.Error(t, b.UnmarshalText([]byte("gl")))
	assert.Equal(t, "Backend(9)", Backend(9).String())
}
