// Package geom provides the small vector types stored in state files:
// positions, sizes and colors. Each type marshals to its components
// separated by single spaces, e.g. "0.2 0.4 0.8 1".
package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// Vec2 is a 2-component float vector.
type Vec2 struct {
	X, Y float32
}

// Vec3 is a 3-component float vector.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 is a 4-component float vector, also used for RGBA colors.
type Vec4 struct {
	X, Y, Z, W float32
}

// IVec2 is a 2-component integer vector for pixel and cell coordinates.
type IVec2 struct {
	X, Y int
}

// MarshalText implements encoding.TextMarshaler.
func (v Vec2) MarshalText() ([]byte, error) {
	return formatFloats(v.X, v.Y), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Vec2) UnmarshalText(text []byte) error {
	return parseFloats(text, &v.X, &v.Y)
}

// MarshalText implements encoding.TextMarshaler.
func (v Vec3) MarshalText() ([]byte, error) {
	return formatFloats(v.X, v.Y, v.Z), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Vec3) UnmarshalText(text []byte) error {
	return parseFloats(text, &v.X, &v.Y, &v.Z)
}

// MarshalText implements encoding.TextMarshaler.
func (v Vec4) MarshalText() ([]byte, error) {
	return formatFloats(v.X, v.Y, v.Z, v.W), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Vec4) UnmarshalText(text []byte) error {
	return parseFloats(text, &v.X, &v.Y, &v.Z, &v.W)
}

// MarshalText implements encoding.TextMarshaler.
func (v IVec2) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(v.X) + " " + strconv.Itoa(v.Y)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *IVec2) UnmarshalText(text []byte) error {
	parts := strings.Fields(string(text))
	if len(parts) != 2 {
		return fmt.Errorf("geom: expected 2 components, got %d in %q", len(parts), text)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("geom: %w", err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("geom: %w", err)
	}
	v.X, v.Y = x, y
	return nil
}

// Clamp returns v with every component limited to [lo, hi].
func (v Vec4) Clamp(lo, hi float32) Vec4 {
	return Vec4{clamp(v.X, lo, hi), clamp(v.Y, lo, hi), clamp(v.Z, lo, hi), clamp(v.W, lo, hi)}
}

// Contains reports whether p lies inside the rectangle with corner v and
// size size.
func (v IVec2) Contains(size, p IVec2) bool {
	return p.X >= v.X && p.Y >= v.Y && p.X < v.X+size.X && p.Y < v.Y+size.Y
}

func clamp(f, lo, hi float32) float32 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

func formatFloats(fs ...float32) []byte {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return []byte(strings.Join(parts, " "))
}

func parseFloats(text []byte, dst ...*float32) error {
	parts := strings.Fields(string(text))
	if len(parts) != len(dst) {
		return fmt.Errorf("geom: expected %d components, got %d in %q", len(dst), len(parts), text)
	}
	vals := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return fmt.Errorf("geom: %w", err)
		}
		vals[i] = float32(f)
	}
	for i, d := range dst {
		*d = vals[i]
	}
	return nil
}
