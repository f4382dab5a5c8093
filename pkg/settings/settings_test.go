package settings

import (
	"testing"
)

func TestNewCliParams(t *testing.T) {
	tests := []struct {
		name string
		want *Run
	}{
		{
			name: "default CLI params",
			want: &Run{
				MinLogLevel: 0,
				Output:      "json",
				Indent:      "  ",
				MaxResults:  1000,
				BatchSize:   1000,
				ExpandDepth: 1,
				IsQuiet:     false,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCliParams()
			if *got != *tt.want {
				t.Errorf("NewCliParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInputFromStdin(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "", want: true},
		{path: "-", want: true},
		{path: "doc.json", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := (Input{Path: tt.path}).FromStdin(); got != tt.want {
				t.Errorf("Input{%q}.FromStdin() = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
