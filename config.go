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
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"goarrg.com/debug"
	"goarrg.com/gmath"
	"golang.org/x/exp/maps"
)

type Backend uint32

const (
	BackendVulkan Backend = iota
	// BackendMetal is accepted by the config layer but has no implementation, selecting it is fatal.
	BackendMetal
)

func (b Backend) String() string {
	switch b {
	case BackendVulkan:
		return "Vulkan"
	case BackendMetal:
		return "Metal"
	default:
		return fmt.Sprintf("Backend(%d)", uint32(b))
	}
}

func (b *Backend) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "vulkan", "vk":
		*b = BackendVulkan
	case "metal", "mtl":
		*b = BackendMetal
	default:
		return debug.Errorf("Unknown backend: %q", text)
	}
	return nil
}

type DriverKind uint32

const (
	DriverSoftware DriverKind = iota
	// DriverHardware needs the vulkan build tag.
	DriverHardware
)

func (k DriverKind) String() string {
	switch k {
	case DriverSoftware:
		return "Software"
	case DriverHardware:
		return "Hardware"
	default:
		return fmt.Sprintf("DriverKind(%d)", uint32(k))
	}
}

func (k *DriverKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "software", "soft":
		*k = DriverSoftware
	case "hardware", "hw":
		*k = DriverHardware
	default:
		return debug.Errorf("Unknown driver: %q", text)
	}
	return nil
}

const (
	DefaultSetsPerPool = 256
	DefaultAppName     = "xrhi"
)

func DefaultResourceSetRatios() map[ResourceKind]float32 {
	return map[ResourceKind]float32{
		ResourceUniformBuffer:          2,
		ResourceStorageBuffer:          1,
		ResourceSampledTexture:         1,
		ResourceStorageTexture:         1,
		ResourceSampler:                1,
		ResourceCombinedTextureSampler: 4,
	}
}

type Config struct {
	Backend    Backend
	Driver     DriverKind
	AppName    string
	Validation bool
	// LogLevel is passed to Context.SetLogLevel when nonzero, see goarrg.com/debug for values.
	LogLevel uint32
	// ResourceSetPool configures the pool CreateResourceSet uses when given a nil pool.
	ResourceSetPool ResourceSetPoolInfo
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendVulkan,
		Driver:  DriverSoftware,
		AppName: DefaultAppName,
		ResourceSetPool: ResourceSetPoolInfo{
			Name:        "default",
			SetsPerPool: DefaultSetsPerPool,
			Ratios:      DefaultResourceSetRatios(),
		},
	}
}

func (c *Config) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"Backend\": %q,", c.Backend.String()))
	buff.WriteString(fmt.Sprintf("\"Driver\": %q,", c.Driver.String()))
	buff.WriteString(fmt.Sprintf("\"AppName\": %q,", c.AppName))
	buff.WriteString(fmt.Sprintf("\"Validation\": %t,", c.Validation))
	buff.WriteString(fmt.Sprintf("\"LogLevel\": %d,", c.LogLevel))
	buff.WriteString(fmt.Sprintf("\"ResourceSetPool\": %s,", jsonString(&c.ResourceSetPool)))

	buff.Truncate(buff.Len() - 1)
	buff.WriteString("}")
	return buff.Bytes(), nil
}

func (c *Config) validate(a aborter) {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.ResourceSetPool.Name == "" {
		c.ResourceSetPool.Name = "default"
	}
	if c.ResourceSetPool.SetsPerPool == 0 {
		c.ResourceSetPool.SetsPerPool = DefaultSetsPerPool
	}
	if len(c.ResourceSetPool.Ratios) == 0 {
		c.ResourceSetPool.Ratios = DefaultResourceSetRatios()
	} else {
		c.ResourceSetPool.Ratios = maps.Clone(c.ResourceSetPool.Ratios)
	}
	if err := c.ResourceSetPool.validate(); err != nil {
		a.abort("Config.ResourceSetPool is invalid: %v", err)
	}
	if !gmath.InRange(uint32(c.Driver), uint32(DriverSoftware), uint32(DriverHardware)) {
		a.abort("Config.Driver is invalid: %s", c.Driver)
	}
}

type tomlConfig struct {
	Backend         string
	Driver          string
	AppName         string
	Validation      bool
	LogLevel        uint32
	ResourceSetPool struct {
		SetsPerPool uint32
		Ratios      map[string]float32
	}
}

/*
LoadConfig reads a TOML config, fields not present keep their DefaultConfig value. Example:

	Backend = "vulkan"
	Driver = "software"
	AppName = "demo"
	LogLevel = 2

	[ResourceSetPool]
	SetsPerPool = 64
	Ratios = { UniformBuffer = 2.0, CombinedTextureSampler = 4.0 }
*/
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	var t tomlConfig
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&t); err != nil {
		return cfg, debug.ErrorWrapf(err, "Failed to decode config")
	}
	if t.Backend != "" {
		if err := cfg.Backend.UnmarshalText([]byte(t.Backend)); err != nil {
			return cfg, err
		}
	}
	if t.Driver != "" {
		if err := cfg.Driver.UnmarshalText([]byte(t.Driver)); err != nil {
			return cfg, err
		}
	}
	if t.AppName != "" {
		cfg.AppName = t.AppName
	}
	cfg.Validation = t.Validation
	cfg.LogLevel = t.LogLevel
	if t.ResourceSetPool.SetsPerPool != 0 {
		cfg.ResourceSetPool.SetsPerPool = t.ResourceSetPool.SetsPerPool
	}
	if len(t.ResourceSetPool.Ratios) > 0 {
		cfg.ResourceSetPool.Ratios = map[ResourceKind]float32{}
		for k, v := range t.ResourceSetPool.Ratios {
			var kind ResourceKind
			if err := kind.UnmarshalText([]byte(k)); err != nil {
				return cfg, err
			}
			cfg.ResourceSetPool.Ratios[kind] = v
		}
	}
	if err := cfg.ResourceSetPool.validate(); err != nil {
		return cfg, debug.ErrorWrapf(err, "Invalid ResourceSetPool")
	}
	return cfg, nil
}
