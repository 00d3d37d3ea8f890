package types

import (
	"testing"
)

func TestCoordinate_WeatherKey(t *testing.T) {
	tests := []struct {
		in   Coordinate
		want string
	}{
		{Coordinate{12.3456, 80.1234}, "12.35_80.12"},
		{Coordinate{12.3451, 80.1238}, "12.35_80.12"},
		{Coordinate{12.3449, 80.1234}, "12.34_80.12"},
		{Coordinate{-33.8688, 151.2093}, "-33.87_151.21"},
		{Coordinate{0, 0}, "0.00_0.00"},
		{Coordinate{12.125, 80.375}, "12.13_80.38"},
		{Coordinate{-12.125, -0.625}, "-12.13_-0.63"},
	}
	for _, tt := range tests {
		if got := tt.in.WeatherKey(); got != tt.want {
			t.Errorf("WeatherKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCoordinate_String(t *testing.T) {
	if got := (Coordinate{18.9288, 72.8311}).String(); got != "18.929, 72.831" {
		t.Errorf("String() = %q", got)
	}
}

func TestPath_Equal(t *testing.T) {
	a := Path{{1, 2}, {3, 4}}

	if !a.Equal(Path{{1, 2}, {3, 4}}) {
		t.Error("identical paths should be equal")
	}
	if a.Equal(Path{{3, 4}, {1, 2}}) {
		t.Error("order matters")
	}
	if a.Equal(Path{{1, 2}}) {
		t.Error("different lengths are not equal")
	}
	if !(Path{}).Equal(nil) {
		t.Error("empty and nil paths are equal")
	}
}

func TestPath_Clone(t *testing.T) {
	a := Path{{1, 2}, {3, 4}}
	b := a.Clone()
	b[0].Lat = 99

	if a[0].Lat != 1 {
		t.Error("Clone shares the backing array")
	}
	if c := Path(nil).Clone(); c == nil || len(c) != 0 {
		t.Errorf("Clone of nil = %#v, want empty non-nil path", c)
	}
}

func TestPathHistory_CurrentAndHistorical(t *testing.T) {
	var empty PathHistory
	if _, ok := empty.Current(); ok {
		t.Error("empty history has no current path")
	}
	if empty.Historical() != nil {
		t.Error("empty history has no historical paths")
	}

	first := Path{{1, 1}}
	second := Path{{2, 2}}
	third := Path{{3, 3}}
	h := PathHistory{first, second, third}

	cur, ok := h.Current()
	if !ok || !cur.Equal(third) {
		t.Errorf("Current() = %v, %v; want %v, true", cur, ok, third)
	}
	hist := h.Historical()
	if len(hist) != 2 || !hist[0].Equal(first) || !hist[1].Equal(second) {
		t.Errorf("Historical() = %v", hist)
	}

	single := PathHistory{first}
	if len(single.Historical()) != 0 {
		t.Error("a single path has no historical paths")
	}
}

func TestPathHistory_Clone(t *testing.T) {
	h := PathHistory{{{1, 1}, {2, 2}}}
	c := h.Clone()
	c[0][0].Lat = 50
	c = append(c, Path{{9, 9}})

	if h[0][0].Lat != 1 {
		t.Error("Clone shares path storage")
	}
	if len(h) != 1 {
		t.Error("append on clone changed the original")
	}
}

func TestWeatherMap_Clone(t *testing.T) {
	m := WeatherMap{"1.00_2.00": {WindSpeed: 5}}
	c := m.Clone()
	c["3.00_4.00"] = WeatherSample{}

	if len(m) != 1 {
		t.Error("Clone shares the map")
	}
}

func TestSessionState_Busy(t *testing.T) {
	busy := []SessionState{StateCreating, StateRefreshing, StateForcingUpdate, StateDeleting}
	for _, s := range busy {
		if !s.Busy() {
			t.Errorf("%s should be busy", s)
		}
	}
	for _, s := range []SessionState{StateEmpty, StateActive} {
		if s.Busy() {
			t.Errorf("%s should not be busy", s)
		}
	}
}
