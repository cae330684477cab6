package timeval

import "testing"

func TestFromSecondsTicks(t *testing.T) {
	v := FromSeconds(3)
	if v.Ticks() != 3*ticksPerSecond {
		t.Fatalf("Ticks() = %d, want %d", v.Ticks(), 3*ticksPerSecond)
	}
	if v.AsSeconds() != 3 {
		t.Fatalf("AsSeconds() = %d, want 3", v.AsSeconds())
	}
}

func TestFromMillisMicrosNanos(t *testing.T) {
	if FromMillis(1).Ticks() != 10_000 {
		t.Fatalf("FromMillis(1) ticks = %d, want 10000", FromMillis(1).Ticks())
	}
	if FromMicros(1).Ticks() != 10 {
		t.Fatalf("FromMicros(1) ticks = %d, want 10", FromMicros(1).Ticks())
	}
	if FromNanos(250).Ticks() != 2 {
		t.Fatalf("FromNanos(250) ticks = %d, want 2 (truncated)", FromNanos(250).Ticks())
	}
}

func TestAddSubtract(t *testing.T) {
	a := FromSeconds(5)
	b := FromMillis(500)
	sum := a.Add(b)
	if sum.AsMillis() != 5500 {
		t.Fatalf("sum.AsMillis() = %d, want 5500", sum.AsMillis())
	}
	diff := sum.Subtract(b)
	if diff.Ticks() != a.Ticks() {
		t.Fatalf("diff.Ticks() = %d, want %d", diff.Ticks(), a.Ticks())
	}
}

func TestFractionalParts(t *testing.T) {
	v := FromSeconds(1).Add(FromMillis(250))
	if v.MillisPart() != 250 {
		t.Fatalf("MillisPart() = %d, want 250", v.MillisPart())
	}
	if v.AsSeconds() != 1 {
		t.Fatalf("AsSeconds() = %d, want 1", v.AsSeconds())
	}
}

func TestSubsecondsRoundTrip(t *testing.T) {
	// Every whole-tick fractional value must round-trip through
	// Subseconds/FromSubseconds without losing precision below a tick.
	for _, ticks := range []int64{0, 1, 12345, ticksPerSecond - 1} {
		orig := FromTicks(ticks)
		sub := orig.Subseconds()
		back := FromSubseconds(sub)
		if back.Ticks() < ticks {
			t.Fatalf("Subseconds round-trip lost precision: ticks=%d sub=%d back=%d", ticks, sub, back.Ticks())
		}
	}
}

func TestTimeoutDeadline(t *testing.T) {
	now := FromSeconds(100)
	if got := Pend.Deadline(now); got != now {
		t.Fatalf("Pend.Deadline = %v, want now unchanged", got)
	}
	if got := Check.Deadline(now); got != now {
		t.Fatalf("Check.Deadline = %v, want now unchanged", got)
	}
	got := Timeout(1500).Deadline(now)
	if got.AsMillis() != now.AsMillis()+1500 {
		t.Fatalf("Deadline(1500ms) = %dms, want %dms", got.AsMillis(), now.AsMillis()+1500)
	}
}

func TestToTimeFromTimeRoundTrip(t *testing.T) {
	orig := FromSeconds(1_700_000_000).Add(FromMillis(123))
	rt := FromTime(orig.ToTime())
	if rt.AsMillis() != orig.AsMillis() {
		t.Fatalf("round trip via time.Time = %dms, want %dms", rt.AsMillis(), orig.AsMillis())
	}
}
