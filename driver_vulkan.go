//go:build vulkan
// +build vulkan

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
	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
	"goarrg.com/rhi/xrhi/internal/vk/softvk"
	"goarrg.com/rhi/xrhi/internal/vk/vkgo"
)

func openDriver(cfg Config) (vk.Driver, error) {
	switch cfg.Driver {
	case DriverSoftware:
		return softvk.New(softvk.DefaultConfig()), nil
	case DriverHardware:
		drv, err := vkgo.New(vkgo.Config{AppName: cfg.AppName, Validation: cfg.Validation})
		if err != nil {
			return nil, debug.ErrorWrapf(err, "Failed to open hardware driver")
		}
		return drv, nil
	default:
		return nil, debug.Errorf("Unknown driver: %s", cfg.Driver)
	}
}
