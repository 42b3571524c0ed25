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

package main

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"goarrg.com/debug"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi"
)

func init() {
	// glfw calls must come from the main thread.
	runtime.LockOSThread()
}

type glfwWindow struct {
	window *glfw.Window
}

func newWindow(cfg xrhi.Config, width, height int32) (demoWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, debug.ErrorWrapf(err, "Failed to init glfw")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(int(width), int(height), cfg.AppName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, debug.ErrorWrapf(err, "Failed to create window")
	}
	return &glfwWindow{window: w}, nil
}

func (w *glfwWindow) Handle() uintptr {
	return uintptr(w.window.Handle())
}

func (w *glfwWindow) GLFWWindow() *glfw.Window {
	return w.window
}

func (w *glfwWindow) SurfaceExtent() gmath.Extent2i32 {
	width, height := w.window.GetFramebufferSize()
	return gmath.Extent2i32{X: int32(width), Y: int32(height)}
}

func (w *glfwWindow) poll() bool {
	glfw.PollEvents()
	return !w.window.ShouldClose()
}

func (w *glfwWindow) destroy() {
	w.window.Destroy()
	glfw.Terminate()
}
