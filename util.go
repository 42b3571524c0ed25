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
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"goarrg.com/debug"
	"golang.org/x/exp/constraints"
)

func toHex[N constraints.Unsigned](v N) string {
	return fmt.Sprintf("0x%016X", uint64(v))
}

func jsonString(target any) string {
	bytes, err := json.Marshal(target)
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(bytes))
}

func prettyString(target json.Marshaler) string {
	bytes, err := json.MarshalIndent(target, "", "    ")
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(bytes))
}

func hasBits[N constraints.Unsigned](t, want N) bool {
	return (t & want) == want
}

func alignUp[N constraints.Unsigned](v, a N) N {
	return (v + a - 1) / a * a
}

func mapRunFuncSorted[M ~map[K]V, K cmp.Ordered, V any](m M, f func(K, V) error) error {
	if len(m) == 0 {
		return debug.Errorf("Empty map")
	}

	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		err := f(k, m[k])
		if err != nil {
			return err
		}
	}

	return nil
}
