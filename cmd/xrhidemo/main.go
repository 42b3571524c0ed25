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

/*
xrhidemo opens a context, prints the device properties and clears a swapchain for a number of frames, cycling the
clear color. Without the vulkan build tag it renders to an offscreen window on the software driver.
*/
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi"
	"goarrg.com/rhi/xrhi/internal/util"
	"goarrg.com/rhi/xrhi/managed"
)

var flags flag.FlagSet

// frameData is the per slot uniform, it is read back before the slot is reused.
type frameData struct {
	Frame   uint32
	Image   uint32
	Seconds float32
	_       float32
}

type demoWindow interface {
	xrhi.NativeWindow
	poll() bool
	destroy()
}

func main() {
	debug.SetLevel(debug.LogLevelWarn)

	flags.Usage = help
	flags.Init("", flag.ExitOnError)

	v := flags.Bool("v", false, "Verbose - Print high level tasks")
	vv := flags.Bool("vv", false, "Very Verbose - Print everything")
	configPath := flags.String("config", "", "Loads a TOML config, see xrhi.LoadConfig for the format.")
	frames := flags.Int("frames", 120, "Number of frames to render, 0 renders until the window is closed.")
	width := flags.Int("width", 800, "Window width.")
	height := flags.Int("height", 600, "Window height.")
	depth := flags.Bool("depth", false, "Adds a D32_SFLOAT depth attachment to the swapchain.")

	err := flags.Parse(os.Args[1:])
	if err != nil {
		panic(err)
	}

	if *v {
		debug.SetLevel(debug.LogLevelInfo)
	} else if *vv {
		debug.SetLevel(debug.LogLevelVerbose)
	}

	cfg := xrhi.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			debug.EPrintf("Failed to open config: %v", err)
			os.Exit(2)
		}
		cfg, err = xrhi.LoadConfig(f)
		f.Close()
		if err != nil {
			debug.EPrintf("%v", err)
			os.Exit(2)
		}
	}
	cfg.AppName = "xrhidemo"

	window, err := newWindow(cfg, int32(*width), int32(*height))
	if err != nil {
		debug.EPrintf("Failed to create window: %v", err)
		os.Exit(1)
	}
	defer window.destroy()

	ctx := xrhi.New(nil, cfg)
	defer ctx.Destroy()

	props, err := ctx.Properties().MarshalJSON()
	if err != nil {
		panic(err)
	}
	fmt.Println(string(props))

	info := xrhi.SwapchainInfo{Name: "main", ColorLoad: xrhi.LoadActionClear}
	if *depth {
		info.DepthFormat = xrhi.FormatD32Float
	}
	sc := ctx.CreateSwapchain(window, info)
	if sc == nil {
		debug.EPrintf("Failed to create swapchain")
		os.Exit(1)
	}
	defer ctx.DestroySwapchain(sc)

	r := newRenderer(ctx, sc)
	defer r.destroy()

	start := time.Now()
	for frame := 0; *frames == 0 || frame < *frames; {
		if !window.poll() {
			break
		}
		image := ctx.AcquireNextImage(sc)
		if image == xrhi.NeedsRecreate {
			if !sc.Restore() && sc.State() != xrhi.SwapchainActive {
				time.Sleep(10 * time.Millisecond)
			}
			continue
		}
		r.record(uint32(frame), uint32(image), float32(time.Since(start).Seconds()))
		if !ctx.Submit(sc, sc.CommandBuffer()) {
			debug.EPrintf("Submit failed")
			os.Exit(1)
		}
		ctx.Present(sc)
		frame++
	}
	ctx.WaitForIdle()
	debug.IPrintf("Rendered in %s", time.Since(start))
}

// renderer owns one uniform buffer per frame slot, exposed to shaders through an arrayed slot.
type renderer struct {
	ctx      *xrhi.Context
	sc       *xrhi.Swapchain
	layout   *xrhi.ResourceLayout
	set      *xrhi.ResourceSet
	uniforms []*xrhi.Buffer
	array    *managed.ResourceArrayBuffer
}

func newRenderer(ctx *xrhi.Context, sc *xrhi.Swapchain) *renderer {
	r := &renderer{ctx: ctx, sc: sc}
	count := uint32(sc.MaxFrameCount())
	r.layout = ctx.CreateResourceLayout(xrhi.ResourceLayoutInfo{
		Name: "frame",
		Bindings: []xrhi.ResourceBinding{
			{Slot: 0, Kind: xrhi.ResourceUniformBuffer, Stages: xrhi.ShaderStageFragment, Count: count},
		},
	})
	r.set = ctx.CreateResourceSet(nil, r.layout)
	r.array = managed.NewResourceArrayBuffer(r.set, 0)
	for i := range count {
		b := ctx.CreateBuffer(xrhi.BufferInfo{
			Name:   fmt.Sprintf("frame_%d", i),
			Size:   16,
			Usage:  xrhi.BufferUsageUniform,
			Memory: xrhi.MemoryMapped,
		}, nil)
		r.uniforms = append(r.uniforms, b)
		r.array.Push(xrhi.ResourceBufferInfo{Buffer: b})
	}
	return r
}

func (r *renderer) record(frame, image uint32, seconds float32) {
	b := r.uniforms[r.sc.FrameIndex()]
	if frame >= uint32(len(r.uniforms)) {
		prev := util.HostRead[frameData](b, 0)
		debug.VPrintf("Slot %d last held frame %d on image %d", r.sc.FrameIndex(), prev.Frame, prev.Image)
	}
	util.HostWrite(b, 0, frameData{Frame: frame, Image: image, Seconds: seconds})

	cb := r.sc.CommandBuffer()
	cb.Begin()
	cb.BeginRenderPass(r.sc.RenderPass(), r.sc.CurrentFramebuffer(), xrhi.ClearValues{
		Colors: [][4]float32{clearColor(seconds)},
		Depth:  1,
	})
	cb.EndRenderPass()
	cb.End()
}

func (r *renderer) destroy() {
	for _, b := range r.uniforms {
		r.array.Pop(r.sc, b)
		r.sc.DeferDestroy(xrhi.DestroyerFunc(func() { r.ctx.DestroyBuffer(b) }))
	}
	r.ctx.WaitForIdle()
	r.ctx.DestroyResourceSet(nil, r.set)
	r.ctx.DestroyResourceLayout(r.layout)
}

func clearColor(t float32) [4]float32 {
	s := float64(t)
	return [4]float32{
		float32(0.5 + 0.5*math.Sin(s)),
		float32(0.5 + 0.5*math.Sin(s+2*math.Pi/3)),
		float32(0.5 + 0.5*math.Sin(s+4*math.Pi/3)),
		1,
	}
}

func help() {
	fmt.Fprintf(os.Stderr, "xrhidemo clears a window with a cycling color using xrhi.\n"+
		"\nBuild with -tags vulkan and set Driver = \"hardware\" in the config to render through the system Vulkan driver.\n"+
		"\n")
	flags.VisitAll(func(f *flag.Flag) {
		n, u := flag.UnquoteUsage(f)
		if n != "" {
			n = " " + n
		}
		fmt.Fprintf(os.Stderr, "  -%s%s\n    \t%s\n", f.Name, n, u)
	})
}
