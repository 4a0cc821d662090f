package physics

import (
	"math"
	"testing"

	"github.com/matzehuels/forcegraph/pkg/vec"
)

func TestStaticPin(t *testing.T) {
	e := newEngine(t)
	pinned := mustCreate(t, e, NodeSpec{Pos: vec.New(3, 4), Vel: vec.New(7, -2), Static: true})
	free := mustCreate(t, e, NodeSpec{Pos: vec.New(5, 4)})
	if err := e.Update(func(tx *Tx) error { return tx.ConnectMutual(pinned, free, nil) }); err != nil {
		t.Fatal(err)
	}

	for range 20 {
		e.Tick(0.02)
		got := snapshot(t, e, pinned)
		if got.Vel != vec.Zero {
			t.Fatalf("static velocity = %v, want zero", got.Vel)
		}
		if got.Pos != vec.New(3, 4) {
			t.Fatalf("static position moved to %v", got.Pos)
		}
	}
	if got := snapshot(t, e, free); got.Pos == vec.New(5, 4) {
		t.Error("free node should have been pushed by the pinned node")
	}
}

func TestInverseSquareRepulsion(t *testing.T) {
	tests := []struct {
		name string
		a, b vec.Vec
	}{
		{"Horizontal", vec.New(0, 0), vec.New(10, 0)},
		{"Diagonal", vec.New(1, 1), vec.New(4, 5)},
		{"Far", vec.New(-50, 20), vec.New(30, -40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			ha := mustCreate(t, e, NodeSpec{Pos: tt.a, Static: true})
			hb := mustCreate(t, e, NodeSpec{Pos: tt.b, Static: true})
			e.Tick(0.01)

			d := tt.a.Dist(tt.b)
			want := DefaultRepulsion / (d * d)
			fa := snapshot(t, e, ha).Force
			fb := snapshot(t, e, hb).Force

			for _, f := range []vec.Vec{fa, fb} {
				if math.Abs(f.Norm()-want) > 1e-9*want {
					t.Errorf("|F| = %v, want %v", f.Norm(), want)
				}
			}
			// a is pushed away from b.
			away := tt.a.Sub(tt.b)
			if fa.X*away.X+fa.Y*away.Y <= 0 {
				t.Errorf("force on a %v does not point away from b", fa)
			}
			if sum := fa.Add(fb); sum.Norm() > 1e-9*want {
				t.Errorf("forces not opposite: sum %v", sum)
			}
		})
	}
}

func TestMinClosenessClamp(t *testing.T) {
	e := newEngine(t)
	h := mustCreate(t, e, NodeSpec{Static: true})
	mustCreate(t, e, NodeSpec{Pos: vec.New(0.5, 0), Static: true})
	e.Tick(0.01)

	// Below MinCloseness the magnitude is R*d/MinCloseness³.
	want := DefaultRepulsion * 0.5 / math.Pow(DefaultMinCloseness, 3)
	if got := snapshot(t, e, h).Force.Norm(); math.Abs(got-want) > 1e-9 {
		t.Errorf("|F| = %v, want %v", got, want)
	}
}

func TestKickIsMomentumNeutral(t *testing.T) {
	e := newEngine(t)
	a := mustCreate(t, e, NodeSpec{Pos: vec.New(1, 1)})
	b := mustCreate(t, e, NodeSpec{Pos: vec.New(1, 1)})

	e.Tick(0.02)

	na := snapshot(t, e, a)
	nb := snapshot(t, e, b)
	if sum := na.Vel.Add(nb.Vel); sum != vec.Zero {
		t.Errorf("velocity sum = %v, want zero", sum)
	}
	if na.Vel == vec.Zero {
		t.Error("kick did not change velocity")
	}
	if math.Abs(na.Vel.Norm()-nb.Vel.Norm()) > 1e-15 {
		t.Errorf("impulse magnitudes differ: %v vs %v", na.Vel.Norm(), nb.Vel.Norm())
	}
	if d := na.Pos.Dist(nb.Pos); d <= 0 {
		t.Errorf("separation = %v, want > 0", d)
	}
}

func TestSymmetricPairStaysSymmetric(t *testing.T) {
	tests := []struct {
		name   string
		offset vec.Vec
		mutual bool
	}{
		{"Unconnected", vec.New(5, 0), false},
		{"Spring", vec.New(5, 0), true},
		{"Diagonal", vec.New(3, -4), true},
		{"Close", vec.New(0.3, 0.1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			a := mustCreate(t, e, NodeSpec{Pos: tt.offset.Neg()})
			b := mustCreate(t, e, NodeSpec{Pos: tt.offset})
			if tt.mutual {
				if err := e.Update(func(tx *Tx) error { return tx.ConnectMutual(a, b, nil) }); err != nil {
					t.Fatal(err)
				}
			}

			for i := range 200 {
				e.Tick(0.02)
				pa := snapshot(t, e, a).Pos
				pb := snapshot(t, e, b).Pos
				if mid := pa.Add(pb); mid.Norm() > 1e-9 {
					t.Fatalf("tick %d: midpoint drifted to %v", i, mid.Scale(0.5))
				}
			}
		})
	}
}

func TestFreeDecay(t *testing.T) {
	e := newEngine(t)
	v0 := vec.New(3, 4)
	h := mustCreate(t, e, NodeSpec{Vel: v0})

	const (
		dt    = 0.02
		ticks = 25
	)
	for range ticks {
		e.Tick(dt)
	}

	want := v0.Scale(math.Pow(DefaultFriction, dt*ticks))
	got := snapshot(t, e, h).Vel
	if d := got.Sub(want).Norm(); d > 1e-9*want.Norm() {
		t.Errorf("velocity = %v, want %v", got, want)
	}
}

func TestEquilibriumSeparation(t *testing.T) {
	e := newEngine(t)
	a := mustCreate(t, e, NodeSpec{Pos: vec.New(0, 0)})
	b := mustCreate(t, e, NodeSpec{Pos: vec.New(20, 0)})
	if err := e.Update(func(tx *Tx) error { return tx.ConnectMutual(a, b, nil) }); err != nil {
		t.Fatal(err)
	}

	const (
		dt        = 0.02
		threshold = 1e-6
		maxTicks  = 10000
	)
	ticks := 0
	for ; ticks < maxTicks; ticks++ {
		if e.Tick(dt).MaxSpeed < threshold {
			break
		}
	}
	if ticks == maxTicks {
		t.Fatalf("did not settle in %d ticks", maxTicks)
	}

	// A*d = R/d² at rest.
	want := math.Cbrt(DefaultRepulsion / DefaultAttraction)
	got := snapshot(t, e, a).Pos.Dist(snapshot(t, e, b).Pos)
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("separation = %v, want %v", got, want)
	}
	if !e.Settled(threshold) {
		t.Error("Settled() = false after settling")
	}
}

func TestOneWayEdgePullsOnlySource(t *testing.T) {
	p := DefaultParams()
	p.Repulsion = 0
	e := newEngine(t, WithParams(p))
	a := mustCreate(t, e, NodeSpec{})
	b := mustCreate(t, e, NodeSpec{Pos: vec.New(10, 0)})
	if err := e.Connect(a, b, nil); err != nil {
		t.Fatal(err)
	}

	e.Tick(0.01)
	if f := snapshot(t, e, a).Force; f != vec.New(750, 0) {
		t.Errorf("force on source = %v, want (750, 0)", f)
	}
	if f := snapshot(t, e, b).Force; f != vec.Zero {
		t.Errorf("force on target = %v, want zero", f)
	}
}
