package signal

import (
	"context"
	"math"
	"testing"

	"github.com/pc494/pycrystem/internal/frame"
	"github.com/pc494/pycrystem/internal/lazy"
	"github.com/pc494/pycrystem/internal/nd"
	"github.com/pc494/pycrystem/internal/ragged"
)

func newTestSignal(t *testing.T, shape ...int) *Signal2D {
	t.Helper()
	s, err := New(lazy.FromDense(nd.Full(1, shape...)))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewRejectsRank1(t *testing.T) {
	if _, err := New(lazy.FromDense(nd.Full(1, 4))); err == nil {
		t.Error("rank-1 array accepted")
	}
}

func TestPixelCalibratedRoundTrip(t *testing.T) {
	s := newTestSignal(t, 2, 2, 16, 16)
	if err := s.SetAxis(3, Axis{Name: "kx", Units: "1/nm", Scale: 0.5, Offset: -4}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAxis(2, Axis{Name: "ky", Units: "1/nm", Scale: 0.25, Offset: 1}); err != nil {
		t.Fatal(err)
	}

	p := frame.Peak{X: 8, Y: 6}
	v := s.PixelToCalibrated(p)
	if v.X != 6*0.5-4 || v.Y != 8*0.25+1 {
		t.Errorf("calibrated = %+v, want (-1, 3)", v)
	}
	back := s.CalibratedToPixel(v)
	if math.Abs(back.X-p.X) > 1e-12 || math.Abs(back.Y-p.Y) > 1e-12 {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

func TestSetAxisRejectsZeroScale(t *testing.T) {
	s := newTestSignal(t, 4, 4)
	if err := s.SetAxis(0, Axis{}); err == nil {
		t.Error("zero scale accepted")
	}
	if err := s.SetAxis(5, Axis{Scale: 1}); err == nil {
		t.Error("out-of-range axis accepted")
	}
}

func TestCenter(t *testing.T) {
	s := newTestSignal(t, 2, 2, 32, 16)
	cx, cy := s.Center()
	if cx != 8 || cy != 16 {
		t.Errorf("centre = (%v, %v), want (8, 16)", cx, cy)
	}
}

func TestMapFramesKeepsCalibration(t *testing.T) {
	s := newTestSignal(t, 2, 2, 8, 8)
	if err := s.SetAxis(3, Axis{Scale: 0.1}); err != nil {
		t.Fatal(err)
	}
	mapped, err := s.MapFrames("scale-up", func(f *nd.Array) *nd.Array {
		out := f.Clone()
		out.Scale(3)
		return out
	})
	if err != nil {
		t.Fatal(err)
	}
	if mapped.Axes()[3].Scale != 0.1 {
		t.Error("calibration lost through MapFrames")
	}
	got, err := mapped.Data().Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range got.Data() {
		if v != 3 {
			t.Fatalf("mapped value %v, want 3", v)
		}
	}
}

func TestCalibratePeaks(t *testing.T) {
	s := newTestSignal(t, 1, 16, 16)
	if err := s.SetAxis(2, Axis{Scale: 0.01}); err != nil {
		t.Fatal(err)
	}
	table := ragged.NewTable[frame.Peak](1)
	table.Set([]frame.Peak{{X: 8, Y: 8}, {X: 8, Y: 10}}, 0)

	vecs := s.CalibratePeaks(table)
	got := vecs.At(0)
	if len(got) != 2 {
		t.Fatalf("got %d vectors, want 2", len(got))
	}
	if got[0].X != 0 || got[0].Y != 0 {
		t.Errorf("centre peak = %+v, want origin", got[0])
	}
	if math.Abs(got[1].X-0.02) > 1e-12 || got[1].Y != 0 {
		t.Errorf("offset peak = %+v, want (0.02, 0)", got[1])
	}
}
