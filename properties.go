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
	"encoding/hex"
	"fmt"
	"strings"

	"goarrg.com/debug"
	"goarrg.com/rhi/xrhi/internal/vk"
)

type UUID [16]byte

func (uuid *UUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%04X-%012X", uuid[:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:])
}

func (uuid *UUID) UnmarshalText(data []byte) error {
	if len(data) != 36 || data[8] != '-' || data[13] != '-' || data[18] != '-' || data[23] != '-' {
		return debug.Errorf("Invalid UUID format")
	}
	var filteredData []byte
	for i, b := range data {
		switch i {
		case 8, 13, 18, 23:
			continue
		}
		filteredData = append(filteredData, b)
	}
	_, err := hex.Decode(uuid[:], filteredData)
	return err
}

type VendorID uint32

const (
	// VendorNone is reported by devices without a PCI vendor, such as the software driver.
	VendorNone   VendorID = 0
	VendorAMD    VendorID = 0x1002
	VendorNVIDIA VendorID = 0x10de
	VendorIntel  VendorID = 0x8086
	VendorMesa   VendorID = 0x10005
)

func (id VendorID) String() string {
	switch id {
	case VendorNone:
		return "None"
	case VendorAMD:
		return "AMD"
	case VendorNVIDIA:
		return "NVIDIA"
	case VendorIntel:
		return "Intel"
	case VendorMesa:
		return "Mesa"
	default:
		return fmt.Sprintf("Unknown: 0x%04X", uint32(id))
	}
}

type DeviceType uint32

const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeOther:
		return "Other"
	case DeviceTypeIntegratedGPU:
		return "IntegratedGPU"
	case DeviceTypeDiscreteGPU:
		return "DiscreteGPU"
	case DeviceTypeVirtualGPU:
		return "VirtualGPU"
	case DeviceTypeCPU:
		return "CPU"
	default:
		return fmt.Sprintf("DeviceType(%d)", uint32(t))
	}
}

type MemoryType struct {
	Heap          uint32
	HeapSize      uint64
	DeviceLocal   bool
	HostVisible   bool
	HostCoherent  bool
	HostCached    bool
	LazyAllocated bool
}

func (t MemoryType) String() string {
	var flags []string
	if t.DeviceLocal {
		flags = append(flags, "DeviceLocal")
	}
	if t.HostVisible {
		flags = append(flags, "HostVisible")
	}
	if t.HostCoherent {
		flags = append(flags, "HostCoherent")
	}
	if t.HostCached {
		flags = append(flags, "HostCached")
	}
	if t.LazyAllocated {
		flags = append(flags, "LazyAllocated")
	}
	if len(flags) == 0 {
		flags = append(flags, "None")
	}
	return fmt.Sprintf("Heap %d (%d bytes): %s", t.Heap, t.HeapSize, strings.Join(flags, "|"))
}

type Properties struct {
	Name          string
	UUID          UUID
	VendorID      VendorID
	DeviceID      uint32
	DeviceType    DeviceType
	DriverVersion uint32
	API           uint32
	MemoryTypes   []MemoryType
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	buff := bytes.Buffer{}
	buff.WriteString("{")

	buff.WriteString(fmt.Sprintf("\"Name\": %q,", p.Name))
	buff.WriteString(fmt.Sprintf("\"UUID\": %q,", p.UUID.String()))
	buff.WriteString(fmt.Sprintf("\"VendorID\": %q,", p.VendorID.String()))
	buff.WriteString(fmt.Sprintf("\"DeviceID\": %d,", p.DeviceID))
	buff.WriteString(fmt.Sprintf("\"DeviceType\": %q,", p.DeviceType.String()))
	buff.WriteString(fmt.Sprintf("\"DriverVersion\": %d,", p.DriverVersion))
	buff.WriteString(fmt.Sprintf("\"API\": %q,", vkAPI2String(p.API)))
	buff.WriteString("\"MemoryTypes\": [")
	if len(p.MemoryTypes) > 0 {
		for _, t := range p.MemoryTypes {
			buff.WriteString(fmt.Sprintf("%q,", t.String()))
		}
		buff.Truncate(buff.Len() - 1)
	}
	buff.WriteString("]")

	buff.WriteString("}")
	return buff.Bytes(), nil
}

func vkAPI2String(api uint32) string {
	return fmt.Sprintf("%d.%d.%d", ((api >> 22) & 0x7F), ((api >> 12) & 0x3FF), (api & 0xFFF))
}

// Properties describes the device the context was opened on.
func (c *Context) Properties() *Properties {
	b := c.vkb()
	p := &Properties{
		Name:          b.props.DeviceName,
		UUID:          UUID(b.props.PipelineCacheUUID),
		VendorID:      VendorID(b.props.VendorID),
		DeviceID:      b.props.DeviceID,
		DeviceType:    DeviceType(b.props.DeviceType),
		DriverVersion: b.props.DriverVersion,
		API:           b.props.APIVersion,
	}
	for _, t := range b.memProps.MemoryTypes {
		mt := MemoryType{
			Heap:          t.HeapIndex,
			DeviceLocal:   hasBits(t.PropertyFlags, vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT),
			HostVisible:   hasBits(t.PropertyFlags, vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT),
			HostCoherent:  hasBits(t.PropertyFlags, vk.MEMORY_PROPERTY_HOST_COHERENT_BIT),
			HostCached:    hasBits(t.PropertyFlags, vk.MEMORY_PROPERTY_HOST_CACHED_BIT),
			LazyAllocated: hasBits(t.PropertyFlags, vk.MEMORY_PROPERTY_LAZILY_ALLOCATED_BIT),
		}
		if int(t.HeapIndex) < len(b.memProps.MemoryHeaps) {
			mt.HeapSize = b.memProps.MemoryHeaps[t.HeapIndex].Size
		}
		p.MemoryTypes = append(p.MemoryTypes, mt)
	}
	return p
}
