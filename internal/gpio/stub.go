//go:build !linux

package gpio

import "errors"

// RealBank is not available on non-Linux platforms.
type RealBank struct{}

// NewRealBank returns an error on non-Linux platforms.
func NewRealBank(chipName string, pins []int) (*RealBank, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (b *RealBank) Assert(ch int)  {}
func (b *RealBank) ClearAll()      {}
func (b *RealBank) Errors() uint64 { return 0 }
func (b *RealBank) Close() error   { return nil }

// RealEdgeSource is not available on non-Linux platforms.
type RealEdgeSource struct{}

// NewRealEdgeSource returns an error on non-Linux platforms.
func NewRealEdgeSource(chipName string, pin int, handler func()) (*RealEdgeSource, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (s *RealEdgeSource) Close() error { return nil }
