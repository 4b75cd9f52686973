// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build !cgo

package tempconv

// Native reports whether conversions go through the C converter.
const Native = false

// Fahrenheit converts celsius to Fahrenheit.
func Fahrenheit(celsius float64) float64 {
	return (celsius * 9 / 5) + 32
}
