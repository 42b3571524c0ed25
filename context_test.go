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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goarrg.com/gmath"
	"goarrg.com/rhi/xrhi/internal/vk/softvk"
)

type testWindow struct {
	extent gmath.Extent2i32
}

func (w *testWindow) Handle() uintptr {
	return 0
}

func (w *testWindow) SurfaceExtent() gmath.Extent2i32 {
	return w.extent
}

func newTestContextWith(t *testing.T, cfg Config, drvCfg softvk.Config) (*Context, *softvk.Driver) {
	t.Helper()
	drv := softvk.New(drvCfg)
	c := newContext(nil, cfg, drv)
	require.NotNil(t, c)
	return c, drv
}

func newTestContext(t *testing.T) (*Context, *softvk.Driver) {
	t.Helper()
	return newTestContextWith(t, DefaultConfig(), softvk.DefaultConfig())
}

// destroyTestContext tears c down and checks nothing leaked and nothing was misused along the way.
func destroyTestContext(t *testing.T, c *Context, drv *softvk.Driver) {
	t.Helper()
	c.Destroy()
	stats := drv.Stats()
	assert.Zero(t, stats.LiveObjects, "live objects after Destroy")
	assert.Empty(t, drv.ValidationMessages())
}

func TestContextLifecycle(t *testing.T) {
	c, drv := newTestContext(t)
	assert.Equal(t, BackendVulkan, c.Backend())
	assert.Equal(t, DefaultAppName, c.Config().AppName)
	assert.Equal(t, "xrhi software device", c.Properties().Name)
	assert.Equal(t, VendorNone, c.Properties().VendorID)
	assert.Equal(t, "None", c.Properties().VendorID.String())
	destroyTestContext(t, c, drv)

	calls := drv.Calls()
	assert.NotPanics(t, c.Destroy)
	assert.Equal(t, calls, drv.Calls())
}

func TestContextDefaultsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AppName = ""
	cfg.ResourceSetPool = ResourceSetPoolInfo{}
	c, drv := newTestContextWith(t, cfg, softvk.DefaultConfig())
	defer destroyTestContext(t, c, drv)

	got := c.Config()
	assert.Equal(t, DefaultAppName, got.AppName)
	assert.Equal(t, "default", got.ResourceSetPool.Name)
	assert.Equal(t, uint32(DefaultSetsPerPool), got.ResourceSetPool.SetsPerPool)
	assert.Equal(t, DefaultResourceSetRatios(), got.ResourceSetPool.Ratios)
}

func TestContextUnsupportedBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMetal
	drv := softvk.New(softvk.DefaultConfig())
	defer drv.Destroy()
	assert.PanicsWithValue(t, "Fatal Error", func() { newContext(nil, cfg, drv) })
	assert.PanicsWithValue(t, "Fatal Error", func() { New(nil, cfg) })
}

func TestContextInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResourceSetPool.Ratios = map[ResourceKind]float32{ResourceUniformBuffer: -1}
	assert.PanicsWithValue(t, "Fatal Error", func() { New(nil, cfg) })

	cfg = DefaultConfig()
	cfg.Driver = DriverKind(7)
	assert.PanicsWithValue(t, "Fatal Error", func() { New(nil, cfg) })
}

func TestNewSoftwareDriver(t *testing.T) {
	c := New(nil, DefaultConfig())
	require.NotNil(t, c)
	assert.Equal(t, DeviceTypeCPU, c.Properties().DeviceType)
	c.Destroy()
}

func TestUseAfterDestroyAborts(t *testing.T) {
	c, drv := newTestContext(t)
	defer destroyTestContext(t, c, drv)

	b := c.CreateBuffer(BufferInfo{Name: "b", Size: 16, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	require.NotNil(t, b)
	c.DestroyBuffer(b)

	assert.PanicsWithValue(t, "Fatal Error", func() { b.Write(0, []byte{1}) })

	calls := drv.Calls()
	assert.NotPanics(t, func() { c.DestroyBuffer(b) })
	assert.Equal(t, calls, drv.Calls())
}

func TestDestroyThroughOtherContextAborts(t *testing.T) {
	c1, drv1 := newTestContext(t)
	defer destroyTestContext(t, c1, drv1)
	c2, drv2 := newTestContext(t)
	defer destroyTestContext(t, c2, drv2)

	b := c1.CreateBuffer(BufferInfo{Name: "b", Size: 16, Usage: BufferUsageUniform, Memory: MemoryMapped}, nil)
	require.NotNil(t, b)
	assert.PanicsWithValue(t, "Fatal Error", func() { c2.DestroyBuffer(b) })
	c1.DestroyBuffer(b)
}
