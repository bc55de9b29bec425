// Package signal wraps the chunked engine's arrays with axis calibration
// and exposes the generic per-position mapping operation. Processing stays
// lazy; the signal layer only carries metadata and converts between pixel
// and calibrated coordinates.
package signal

import (
	"fmt"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/process"
	"github.com/pc494/pycrystem/internal/ragged"
)

// Axis is the calibration of one array dimension.
type Axis struct {
	Name   string
	Units  string
	Scale  float64 // calibrated units per pixel
	Offset float64
}

// Vector is a calibrated detector-plane coordinate pair in (x, y) order.
type Vector struct {
	X float64
	Y float64
}

// Signal2D is a lazily evaluated dataset whose two trailing axes are the
// detector plane, with one calibration Axis per dimension.
type Signal2D struct {
	data *lazy.Array
	axes []Axis
}

// New wraps a lazy array of rank >= 2 with unit calibration on every axis.
func New(data *lazy.Array) (*Signal2D, error) {
	if data.Rank() < 2 {
		return nil, fmt.Errorf("signal: rank %d below minimum 2 (shape %v)", data.Rank(), data.Shape())
	}
	axes := make([]Axis, data.Rank())
	for i := range axes {
		axes[i] = Axis{Scale: 1}
	}
	return &Signal2D{data: data, axes: axes}, nil
}

// Data returns the underlying lazy array.
func (s *Signal2D) Data() *lazy.Array { return s.data }

// Axes returns the per-dimension calibration, signal axes last.
func (s *Signal2D) Axes() []Axis { return s.axes }

// SetAxis replaces the calibration of one dimension.
func (s *Signal2D) SetAxis(dim int, axis Axis) error {
	if dim < 0 || dim >= len(s.axes) {
		return fmt.Errorf("signal: axis %d out of range for rank %d", dim, len(s.axes))
	}
	if axis.Scale == 0 {
		return fmt.Errorf("signal: axis %d: zero scale", dim)
	}
	s.axes[dim] = axis
	return nil
}

// SignalAxes returns the calibration of the detector plane in (x, y)
// order: x is the trailing (column) axis, y the row axis.
func (s *Signal2D) SignalAxes() (x, y Axis) {
	return s.axes[len(s.axes)-1], s.axes[len(s.axes)-2]
}

// Center returns the detector-plane centre in pixel coordinates, half the
// signal extent along each axis.
func (s *Signal2D) Center() (cx, cy float64) {
	shape := s.data.Shape()
	h := shape[len(shape)-2]
	w := shape[len(shape)-1]
	return float64(w) / 2, float64(h) / 2
}

// MapFrames applies fn to every detector frame, returning a new Signal2D
// carrying the same calibration.
func (s *Signal2D) MapFrames(op string, fn func(f *nd.Array) *nd.Array) (*Signal2D, error) {
	mapped, err := process.MapFrames(op, s.data, fn)
	if err != nil {
		return nil, err
	}
	return &Signal2D{data: mapped, axes: append([]Axis(nil), s.axes...)}, nil
}

// PixelToCalibrated converts a detector-plane peak to calibrated (x, y)
// coordinates.
func (s *Signal2D) PixelToCalibrated(p frame.Peak) Vector {
	x, y := s.SignalAxes()
	return Vector{
		X: p.Y*x.Scale + x.Offset,
		Y: p.X*y.Scale + y.Offset,
	}
}

// CalibratedToPixel converts a calibrated (x, y) coordinate back to a
// detector-plane peak.
func (s *Signal2D) CalibratedToPixel(v Vector) frame.Peak {
	x, y := s.SignalAxes()
	return frame.Peak{
		X: (v.Y - y.Offset) / y.Scale,
		Y: (v.X - x.Offset) / x.Scale,
	}
}

// CalibratePeaks converts every position's pixel-space peaks to calibrated
// vectors relative to the detector centre, the convention refined
// diffraction vectors are reported in.
func (s *Signal2D) CalibratePeaks(table *ragged.Table[frame.Peak]) *ragged.Table[Vector] {
	x, _ := s.SignalAxes()
	cx, cy := s.Center()
	out := ragged.NewTable[Vector](table.Shape()...)
	for i := 0; i < table.Len(); i++ {
		cell := table.AtFlat(i)
		vecs := make([]Vector, len(cell))
		for k, p := range cell {
			vecs[k] = Vector{
				X: (p.Y - cx) * x.Scale,
				Y: (p.X - cy) * x.Scale,
			}
		}
		out.SetFlat(i, vecs)
	}
	return out
}
