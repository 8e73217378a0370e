// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend
)

// defaultBackend returns the Vulkan HAL backend if it is registered.
func defaultBackend() (Backend, bool) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok || b == nil {
		return nil, false
	}
	return b, true
}
