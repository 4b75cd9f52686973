// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build cgo

package tempconv

/*
static double converter(double celsius)
{
	return (celsius * 9 / 5) + 32;
}
*/
import "C"

// Native reports whether conversions go through the C converter.
const Native = true

// Fahrenheit converts celsius through the native converter function.
func Fahrenheit(celsius float64) float64 {
	return float64(C.converter(C.double(celsius)))
}
