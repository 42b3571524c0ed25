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
)

type platform struct{}

func (platform) Abort()                           { panic("Fatal Error") }
func (platform) AbortPopup(f string, args ...any) { panic("Fatal Error") }

func newLogger() *debug.Logger {
	return debug.NewLogger("xrhi")
}

func (c *Context) abort(fmt string, args ...any) {
	c.logger.EPrintf(fmt, args...)
	c.platform.Abort()
}

func (c *Context) abortPopup(fmt string, args ...any) {
	c.logger.EPrintf("[popup] "+fmt, args...)
	c.platform.AbortPopup(fmt, args...)
}

/*
vkCheck logs failed native calls as "<call> failed: <result>" and reports whether the call succeeded.
Positive non success codes are logged as warnings and count as success.
*/
func (c *Context) vkCheck(call string, r vk.Result) bool {
	switch {
	case r == vk.SUCCESS:
		return true
	case r.Failed():
		c.logger.EPrintf("%s", (&vk.Error{Call: call, Result: r}).Error())
		return false
	default:
		c.logger.WPrintf("%s returned %s", call, r)
		return true
	}
}

func (c *Context) SetLogLevel(l uint32) {
	c.logger.SetLevel(l)
}
