//go:build tools
// +build tools

// Package tools pins the code generators used by go:generate (mockgen) in go.mod.
package room_lab

import (
	_ "go.uber.org/mock/mockgen"
)
