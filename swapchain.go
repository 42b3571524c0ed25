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

	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type SwapchainState uint32

const (
	SwapchainUninitialized SwapchainState = iota
	SwapchainInitialized
	SwapchainActive
	SwapchainSuspended
	SwapchainDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case SwapchainUninitialized:
		return "Uninitialized"
	case SwapchainInitialized:
		return "Initialized"
	case SwapchainActive:
		return "Active"
	case SwapchainSuspended:
		return "Suspended"
	case SwapchainDestroyed:
		return "Destroyed"
	default:
		return fmt.Sprintf("SwapchainState(%d)", uint32(s))
	}
}

type SwapchainInfo struct {
	Name string
	// DepthFormat adds a depth attachment shared by every framebuffer, FormatUndefined for none.
	DepthFormat Format
	// ColorLoad is the load action of the presentable image in the swapchain render pass.
	ColorLoad LoadAction
}

func (info *SwapchainInfo) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")
	buff.WriteString(fmt.Sprintf("\"Name\": %q,", info.Name))
	buff.WriteString(fmt.Sprintf("\"DepthFormat\": %q,", info.DepthFormat))
	buff.WriteString(fmt.Sprintf("\"ColorLoad\": %q", info.ColorLoad))
	buff.WriteString("}")
	return buff.Bytes(), nil
}

/*
Swapchain presents to one window. It owns maxFrameCount frame slots, each with a command buffer, an image
available semaphore and a fence, selected by FrameIndex, and one texture, framebuffer and render finished
semaphore per presentable image, selected by ImageIndex. The two indices are independent.
*/
type Swapchain struct {
	handle
	window  NativeWindow
	info    SwapchainInfo
	state   SwapchainState
	surface vk.SurfaceKHR

	vkSwapchain   vk.SwapchainKHR
	images        []vk.Image
	claimed       int
	format        Format
	extent        vk.Extent2D
	windowExtent  gmath.Extent2i32
	presentMode   vk.PresentModeKHR
	maxFrameCount uint32

	frameIndex    uint32
	curImageIndex uint32
	imageAcquired bool
	// imageDropped is set when an acquired image was given up without being presented, only a rebuild gets it back.
	imageDropped bool

	textures     []*Texture
	depth        *Texture
	renderPass   *RenderPass
	framebuffers []*Framebuffer
	// renderFinished is per image, an image is not acquired again before its last present consumed the wait.
	renderFinished []binarySemaphore
	pool           *CommandPool
	frames         []*frame
}

/*
CreateSwapchain creates the window surface and everything presenting needs. A window with a zero extent gives a
suspended swapchain that is built by the first Restore after the window gets a size.
*/
func (c *Context) CreateSwapchain(window NativeWindow, info SwapchainInfo) *Swapchain {
	b := c.vkb()
	if window == nil {
		c.abort("[%s] CreateSwapchain called with a nil window", info.Name)
	}
	if info.DepthFormat != FormatUndefined && !info.DepthFormat.IsDepth() {
		c.abort("[%s] DepthFormat %s is not a depth format", info.Name, info.DepthFormat)
	}

	sc := &Swapchain{window: window, info: info}
	sc.handle.init(c, HandleSwapchain, info.Name)
	if !c.vkCheck("vkCreateSurfaceKHR", b.drv.CreateSurface(window, &sc.surface)) {
		sc.close()
		return nil
	}
	sc.state = SwapchainInitialized

	if e := windowExtent(window); e.X == 0 || e.Y == 0 {
		c.logger.IPrintf("[%s] Window has no extent, swapchain starts suspended", sc.name)
		sc.state = SwapchainSuspended
		return sc
	}
	if !c.buildSwapchain(sc) {
		c.teardownSwapchain(sc)
		b.drv.DestroySurface(sc.surface)
		sc.close()
		return nil
	}
	sc.state = SwapchainActive
	return sc
}

func (c *Context) buildSwapchain(sc *Swapchain) bool {
	drv := c.vkb().drv

	caps := vk.SurfaceCapabilitiesKHR{}
	if !c.vkCheck("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", drv.GetSurfaceCapabilities(sc.surface, &caps)) {
		return false
	}
	formats, r := drv.GetSurfaceFormats(sc.surface)
	if !c.vkCheck("vkGetPhysicalDeviceSurfaceFormatsKHR", r) {
		return false
	}
	modes, r := drv.GetSurfacePresentModes(sc.surface)
	if !c.vkCheck("vkGetPhysicalDeviceSurfacePresentModesKHR", r) {
		return false
	}

	surfaceFormat := chooseSurfaceFormat(formats)
	sc.format = Format(surfaceFormat.Format)
	sc.presentMode = choosePresentMode(modes)
	sc.windowExtent = windowExtent(sc.window)
	sc.extent = chooseExtent(&caps, sc.window)
	sc.maxFrameCount = maxFrameCount(caps.MinImageCount, caps.MaxImageCount)

	if !c.vkCheck("vkCreateSwapchainKHR", drv.CreateSwapchain(&vk.SwapchainCreateInfoKHR{
		Surface:         sc.surface,
		MinImageCount:   sc.maxFrameCount,
		ImageFormat:     surfaceFormat.Format,
		ImageColorSpace: surfaceFormat.ColorSpace,
		ImageExtent:     sc.extent,
		ImageUsage:      vk.IMAGE_USAGE_COLOR_ATTACHMENT_BIT | vk.IMAGE_USAGE_TRANSFER_DST_BIT,
		PresentMode:     sc.presentMode,
	}, &sc.vkSwapchain)) {
		return false
	}
	if sc.images, r = drv.GetSwapchainImages(sc.vkSwapchain); !c.vkCheck("vkGetSwapchainImagesKHR", r) {
		return false
	}
	sc.claimed = 0

	for i := range sc.images {
		t := c.CreateTexture(TextureInfo{Name: fmt.Sprintf("%s_image_%d", sc.name, i), Swapchain: sc}, nil)
		if t == nil {
			return false
		}
		sc.textures = append(sc.textures, t)
		s, ok := c.createBinarySemaphore(fmt.Sprintf("%s_image_%d_renderFinished", sc.name, i))
		if !ok {
			return false
		}
		sc.renderFinished = append(sc.renderFinished, s)
	}

	rpInfo := RenderPassInfo{
		Name: sc.name + "_renderpass",
		Colors: []ColorAttachment{{
			Format:      sc.format,
			Load:        sc.info.ColorLoad,
			Store:       StoreActionStore,
			FinalLayout: TextureLayoutPresent,
		}},
	}
	if sc.info.ColorLoad == LoadActionLoad {
		rpInfo.Colors[0].InitialLayout = TextureLayoutPresent
	}
	if sc.info.DepthFormat != FormatUndefined {
		sc.depth = c.CreateTexture(TextureInfo{
			Name:   sc.name + "_depth",
			Format: sc.info.DepthFormat,
			Extent: gmath.Extent3i32{X: int32(sc.extent.Width), Y: int32(sc.extent.Height), Z: 1},
			Usage:  TextureUsageDepthStencilAttachment,
		}, nil)
		if sc.depth == nil {
			return false
		}
		rpInfo.Depth = &DepthAttachment{
			Format: sc.info.DepthFormat,
			Load:   LoadActionClear,
			Store:  StoreActionDontCare,
		}
	}
	if sc.renderPass = c.CreateRenderPass(rpInfo); sc.renderPass == nil {
		return false
	}
	for i, t := range sc.textures {
		fb := c.CreateFramebuffer(FramebufferInfo{
			Name:       fmt.Sprintf("%s_framebuffer_%d", sc.name, i),
			RenderPass: sc.renderPass,
			Colors:     []*Texture{t},
			Depth:      sc.depth,
		})
		if fb == nil {
			return false
		}
		sc.framebuffers = append(sc.framebuffers, fb)
	}

	if sc.pool = c.CreateCommandPool(CommandPoolInfo{Name: sc.name + "_pool"}); sc.pool == nil {
		return false
	}
	for i := range int(sc.maxFrameCount) {
		f, ok := c.createFrame(sc, i)
		if !ok {
			return false
		}
		sc.frames = append(sc.frames, f)
	}
	// The first acquire advances to slot 0.
	sc.frameIndex = sc.maxFrameCount - 1
	sc.curImageIndex = 0
	sc.imageAcquired = false
	sc.imageDropped = false

	c.logger.IPrintf("[%s] Swapchain: %dx%d %s %s, %d images, %d frames in flight", sc.name,
		sc.extent.Width, sc.extent.Height, sc.format, sc.presentMode, len(sc.images), sc.maxFrameCount)
	return true
}

// teardownSwapchain releases everything buildSwapchain made, the device must be idle.
func (c *Context) teardownSwapchain(sc *Swapchain) {
	drv := c.vkb().drv
	for _, t := range sc.textures {
		c.DestroyTexture(t)
	}
	sc.textures = nil
	for i := range sc.renderFinished {
		c.destroyBinarySemaphore(&sc.renderFinished[i])
	}
	sc.renderFinished = nil
	if sc.vkSwapchain != vk.NULL_HANDLE {
		drv.DestroySwapchain(sc.vkSwapchain)
		sc.vkSwapchain = vk.NULL_HANDLE
	}
	sc.images = nil
	sc.claimed = 0
	c.DestroyRenderPass(sc.renderPass)
	sc.renderPass = nil
	for _, fb := range sc.framebuffers {
		c.DestroyFramebuffer(fb)
	}
	sc.framebuffers = nil
	c.DestroyTexture(sc.depth)
	sc.depth = nil
	for _, f := range sc.frames {
		c.destroyFrame(sc, f)
	}
	sc.frames = nil
	c.DestroyCommandPool(sc.pool)
	sc.pool = nil
	sc.imageAcquired = false
	sc.imageDropped = false
	sc.windowExtent = gmath.Extent2i32{}
}

// DestroySwapchain waits for idle, runs pending deferred destroys and releases the swapchain and its surface.
func (c *Context) DestroySwapchain(sc *Swapchain) {
	if sc == nil || !sc.release(c) {
		return
	}
	sc.dropImage()
	c.WaitForIdle()
	c.teardownSwapchain(sc)
	c.vkb().drv.DestroySurface(sc.surface)
	sc.surface = vk.NULL_HANDLE
	sc.state = SwapchainDestroyed
	sc.close()
}

func (sc *Swapchain) rebuild() bool {
	c := sc.ctx
	sc.dropImage()
	c.WaitForIdle()
	c.teardownSwapchain(sc)
	if !c.buildSwapchain(sc) {
		c.logger.EPrintf("[%s] Failed to rebuild swapchain", sc.name)
		c.teardownSwapchain(sc)
		sc.state = SwapchainSuspended
		return false
	}
	sc.state = SwapchainActive
	return true
}

/*
Suspend marks the swapchain inactive, AcquireNextImage returns NeedsRecreate until Restore. An image acquired and
not yet presented is dropped, which makes the next Restore rebuild.
*/
func (sc *Swapchain) Suspend() {
	sc.check()
	if sc.state == SwapchainActive {
		sc.dropImage()
		sc.state = SwapchainSuspended
	}
}

/*
dropImage gives up on the acquired image. If nothing was submitted for it, an empty submit consumes the image
available semaphore and signals the slot's fence, so the slot is in the state the next acquire expects.
*/
func (sc *Swapchain) dropImage() {
	if !sc.imageAcquired {
		return
	}
	f := sc.frames[sc.frameIndex]
	if !f.submitted {
		f.signalEmpty(sc.ctx)
		f.submitted = true
	}
	sc.imageAcquired = false
	sc.imageDropped = true
}

/*
Restore reactivates the swapchain, rebuilding it when the window extent changed since the last build or an
acquired image was dropped. It reports whether a rebuild happened, a window without an extent stays suspended.
*/
func (sc *Swapchain) Restore() bool {
	sc.check()
	want := windowExtent(sc.window)
	if want.X == 0 || want.Y == 0 {
		sc.state = SwapchainSuspended
		return false
	}
	// Compared against what the window reported, the built extent may be clamped by the surface.
	if len(sc.frames) > 0 && !sc.imageDropped && sc.windowExtent == want {
		sc.state = SwapchainActive
		return false
	}
	return sc.rebuild()
}

// Recreate rebuilds unconditionally, use it when the surface went stale without the window changing size.
func (sc *Swapchain) Recreate() bool {
	sc.check()
	if e := windowExtent(sc.window); e.X == 0 || e.Y == 0 {
		sc.state = SwapchainSuspended
		return false
	}
	return sc.rebuild()
}

/*
DeferDestroy queues destroyers on the current frame slot. They run the next time the slot's fence is waited on,
which is after the GPU is done with anything recorded this frame, or when the swapchain is torn down.
*/
func (sc *Swapchain) DeferDestroy(destroyers ...Destroyer) {
	sc.check()
	if len(sc.frames) == 0 {
		sc.ctx.WaitForIdle()
		for _, d := range destroyers {
			d.Destroy()
		}
		return
	}
	f := sc.frames[sc.frameIndex]
	f.destroyers = append(f.destroyers, destroyers...)
}

func (sc *Swapchain) requireBuilt(op string) {
	sc.check()
	if len(sc.frames) == 0 {
		sc.ctx.abort("[%s] %s called on a swapchain in state %s that was never built", sc.name, op, sc.state)
	}
}

func (sc *Swapchain) Info() SwapchainInfo {
	sc.check()
	return sc.info
}

func (sc *Swapchain) State() SwapchainState {
	sc.check()
	return sc.state
}

func (sc *Swapchain) Window() NativeWindow {
	sc.check()
	return sc.window
}

// CommandBuffer is the current frame slot's command buffer, AcquireNextImage resets it.
func (sc *Swapchain) CommandBuffer() *CommandBuffer {
	sc.requireBuilt("CommandBuffer")
	return sc.frames[sc.frameIndex].cb
}

func (sc *Swapchain) Texture(i int) *Texture {
	sc.requireBuilt("Texture")
	if i < 0 || i >= len(sc.textures) {
		sc.ctx.abort("[%s] Texture index %d out of range [0, %d)", sc.name, i, len(sc.textures))
	}
	return sc.textures[i]
}

func (sc *Swapchain) Framebuffer(i int) *Framebuffer {
	sc.requireBuilt("Framebuffer")
	if i < 0 || i >= len(sc.framebuffers) {
		sc.ctx.abort("[%s] Framebuffer index %d out of range [0, %d)", sc.name, i, len(sc.framebuffers))
	}
	return sc.framebuffers[i]
}

// CurrentFramebuffer is Framebuffer(ImageIndex()).
func (sc *Swapchain) CurrentFramebuffer() *Framebuffer {
	return sc.Framebuffer(sc.ImageIndex())
}

func (sc *Swapchain) RenderPass() *RenderPass {
	sc.requireBuilt("RenderPass")
	return sc.renderPass
}

func (sc *Swapchain) Extent() gmath.Extent2i32 {
	sc.check()
	return gmath.Extent2i32{X: int32(sc.extent.Width), Y: int32(sc.extent.Height)}
}

func (sc *Swapchain) Format() Format {
	sc.check()
	return sc.format
}

func (sc *Swapchain) FrameIndex() int {
	sc.check()
	return int(sc.frameIndex)
}

func (sc *Swapchain) ImageIndex() int {
	sc.check()
	return int(sc.curImageIndex)
}

func (sc *Swapchain) ImageCount() int {
	sc.check()
	return len(sc.images)
}

func (sc *Swapchain) MaxFrameCount() int {
	sc.check()
	return int(sc.maxFrameCount)
}
