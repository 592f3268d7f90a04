package dataset

import (
	"testing"
	"time"

	"lollipop-server/internal/modules/lollipop/types"
)

func TestBuiltin(t *testing.T) {
	start := time.Date(2022, 7, 27, 9, 41, 12, 500, time.UTC)
	samples := Builtin(start)

	if len(samples) != 12 {
		t.Fatalf("len(Builtin) = %d; want 12", len(samples))
	}
	for i, s := range samples {
		want := time.Date(2022, 7, 27, 9, 41, 12, 0, time.UTC).Add(time.Duration(i+1) * time.Hour)
		if !s.Time.Equal(want) {
			t.Errorf("sample %d time = %v; want %v", i, s.Time, want)
		}
		if s.Temperature != 18.2 {
			t.Errorf("sample %d temperature = %v; want 18.2", i, s.Temperature)
		}
	}
	if samples[0].Pressure != 1015.0 || samples[0].WindSpeed != 6.1 {
		t.Errorf("first sample = %+v", samples[0])
	}
	if samples[10].WindSpeed != 19.9 {
		t.Errorf("sample 10 wind = %v; want 19.9", samples[10].WindSpeed)
	}
	if samples[11].Pressure != 1018.3 || samples[11].WindSpeed != 7.1 {
		t.Errorf("last sample = %+v", samples[11])
	}
}

func TestNew_sortsAndCopies(t *testing.T) {
	base := time.Date(2022, 7, 27, 0, 0, 0, 0, time.UTC)
	in := []types.Sample{
		{Time: base.Add(2 * time.Hour), WindSpeed: 2},
		{Time: base.Add(time.Hour), WindSpeed: 1},
	}
	d := New(in)
	in[0].WindSpeed = 99

	got := d.Samples()
	if got[0].WindSpeed != 1 || got[1].WindSpeed != 2 {
		t.Fatalf("Samples() = %+v; want sorted copy", got)
	}
	got[0].WindSpeed = 42
	if d.Samples()[0].WindSpeed != 1 {
		t.Fatal("mutating Samples() result changed the dataset")
	}
}

func TestDataset_FirstAndContains(t *testing.T) {
	if _, ok := New(nil).First(); ok {
		t.Fatal("First() on empty dataset ok = true")
	}

	start := time.Date(2022, 7, 27, 9, 0, 0, 0, time.UTC)
	d := New(Builtin(start))
	first, ok := d.First()
	if !ok || !first.Time.Equal(start.Add(time.Hour)) {
		t.Fatalf("First() = %v, %v", first.Time, ok)
	}
	if !d.Contains(types.Sample{Time: start.Add(5 * time.Hour)}) {
		t.Error("Contains(+5h) = false")
	}
	if d.Contains(types.Sample{Time: start.Add(90 * time.Minute)}) {
		t.Error("Contains(+1.5h) = true")
	}
	if d.Len() != Len {
		t.Errorf("Len() = %d; want %d", d.Len(), Len)
	}
}
