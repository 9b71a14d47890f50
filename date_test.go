package fatimg

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input uint16
		want  time.Time
	}{
		{name: "a normal date", input: 20890, want: time.Date(2020, 12, 26, 0, 0, 0, 0, time.UTC)},
		{name: "the first date", input: 0x21, want: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "zero", input: 0, want: time.Time{}},
		{name: "zero day", input: 20928, want: time.Time{}},
		{name: "zero month", input: 20480, want: time.Time{}},
		{name: "month > 12", input: 20922, want: time.Date(2021, 1, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDate(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name  string
		input uint16
		want  time.Time
	}{
		{name: "a normal time", input: 41936, want: time.Date(1, 1, 1, 20, 30, 32, 0, time.UTC)},
		{name: "midnight", input: 0, want: time.Time{}},
		{name: "seconds > 59", input: 41951, want: time.Date(1, 1, 1, 20, 31, 2, 0, time.UTC)},
		{name: "capped", input: 51199, want: time.Date(1, 1, 1, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTime(tt.input); !got.Equal(tt.want) {
				t.Errorf("ParseTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPackDate(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want uint16
	}{
		{name: "placeholder", t: placeholderTime, want: 0x21},
		{name: "a normal date", t: time.Date(2020, 12, 26, 20, 30, 32, 0, time.UTC), want: 20890},
		{name: "last representable year", t: time.Date(2107, 12, 31, 0, 0, 0, 0, time.UTC), want: 0xFF9F},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PackDate(tt.t)
			if got != tt.want {
				t.Errorf("PackDate() = %v, want %v", got, tt.want)
			}
			y, m, d := tt.t.Date()
			if back := ParseDate(got); !back.Equal(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
				t.Errorf("ParseDate(PackDate()) = %v, want %v", back, tt.t)
			}
		})
	}
}

func TestPackTime(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want uint16
	}{
		{name: "placeholder", t: placeholderTime, want: 0},
		{name: "a normal time", t: time.Date(2020, 12, 26, 20, 30, 32, 0, time.UTC), want: 41936},
		{name: "odd seconds are rounded down", t: time.Date(2020, 12, 26, 20, 30, 33, 0, time.UTC), want: 41936},
		{name: "last second", t: time.Date(2020, 12, 26, 23, 59, 59, 0, time.UTC), want: 0xBF7D},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PackTime(tt.t); got != tt.want {
				t.Errorf("PackTime() = %#04x, want %#04x", got, tt.want)
			}
		})
	}
}
