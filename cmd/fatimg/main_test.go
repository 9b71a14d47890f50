package main

import (
	"testing"
)

func Test_parseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bytes", input: "512", want: 512},
		{name: "kilobytes", input: "512k", want: 512 * 1024},
		{name: "megabytes", input: "16m", want: 16 * 1024 * 1024},
		{name: "upper case and spaces", input: " 2M ", want: 2 * 1024 * 1024},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-1m", wantErr: true},
		{name: "negative bytes", input: "-512", wantErr: true},
		{name: "overflow", input: "9223372036854775807m", wantErr: true},
		{name: "no number", input: "m", wantErr: true},
		{name: "unknown suffix", input: "1g", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSize() = %v, want %v", got, tt.want)
			}
		})
	}
}
