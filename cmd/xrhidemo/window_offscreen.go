//go:build !vulkan
// +build !vulkan

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

package main

import (
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi"
)

// offscreenWindow has a fixed size and never closes.
type offscreenWindow struct {
	extent gmath.Extent2i32
}

func newWindow(cfg xrhi.Config, width, height int32) (demoWindow, error) {
	return &offscreenWindow{extent: gmath.Extent2i32{X: width, Y: height}}, nil
}

func (w *offscreenWindow) Handle() uintptr {
	return 0
}

func (w *offscreenWindow) SurfaceExtent() gmath.Extent2i32 {
	return w.extent
}

func (w *offscreenWindow) poll() bool {
	return true
}

func (w *offscreenWindow) destroy() {}
