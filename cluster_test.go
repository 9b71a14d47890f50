package fatimg

import (
	"testing"
)

func TestCluster_classification(t *testing.T) {
	type want struct {
		free, reservedTemp, next, reserved, bad, eof bool
	}
	tests := []struct {
		name string
		c    Cluster
		want want
	}{
		{name: "free", c: FreeCluster, want: want{free: true}},
		{name: "temporary reservation", c: 1, want: want{reservedTemp: true}},
		{name: "first data cluster", c: 2, want: want{next: true}},
		{name: "last possible data cluster", c: 0xFFEF, want: want{next: true}},
		{name: "first reserved value", c: 0xFFF0, want: want{reserved: true}},
		{name: "last reserved value", c: 0xFFF6, want: want{reserved: true}},
		{name: "bad cluster", c: BadCluster, want: want{bad: true}},
		{name: "first end of chain value", c: 0xFFF8, want: want{eof: true}},
		{name: "written end of chain", c: EndOfChain, want: want{eof: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := want{
				free:         tt.c.IsFree(),
				reservedTemp: tt.c.IsReservedTemp(),
				next:         tt.c.IsNext(),
				reserved:     tt.c.IsReserved(),
				bad:          tt.c.IsBad(),
				eof:          tt.c.IsEOF(),
			}
			if got != tt.want {
				t.Errorf("Cluster(%#04x) classified as %+v, want %+v", uint16(tt.c), got, tt.want)
			}
		})
	}
}
