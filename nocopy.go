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

import "goarrg.com/debug"

type aborter interface {
	abort(fmt string, args ...any)
}

type noCopy struct {
	addr *noCopy
}

func (n *noCopy) init(a aborter) {
	if n.addr != nil {
		a.abort("init called on non zero value")
	}
	n.addr = n
}

func (n *noCopy) check(a aborter) {
	if n.addr != n {
		a.abort("Illegal copy by value or use of zero/dead value: \n%s", debug.StackTrace(0))
	}
}

// alive is check for destroy paths, a handle that was already destroyed is not fatal there.
func (n *noCopy) alive(a aborter) bool {
	if n.addr == nil {
		return false
	}
	n.check(a)
	return true
}

func (n *noCopy) close() {
	n.addr = nil
}
