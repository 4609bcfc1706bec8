//go:build !linux
// +build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"fmt"

	"github.com/hannahherbig/avendesora/api"
)

// NewSelector returns an error for unsupported platforms.
func NewSelector() (Selector, error) {
	return nil, fmt.Errorf("reactor: %w", api.ErrUnsupportedPlatform)
}
