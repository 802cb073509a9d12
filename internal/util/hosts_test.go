package util

import "testing"

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4", "10.0.0.1", "10.0.0.1"},
		{"ipv4 with spaces", "  10.0.0.1\t", "10.0.0.1"},
		{"bracketed ipv6", "[::1]", "::1"},
		{"bare ipv6", "fe80::1", "fe80::1"},
		{"unbalanced bracket", "[::1", "[::1"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHost(tt.input); got != tt.expected {
				t.Errorf("NormalizeHost(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseHostIP(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"192.168.1.10", true},
		{"[2001:db8::1]", true},
		{"2001:db8::1", true},
		{"example.com", false},
		{"256.1.1.1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ip := ParseHostIP(tt.input)
			if (ip != nil) != tt.valid {
				t.Errorf("ParseHostIP(%q) valid = %v, want %v", tt.input, ip != nil, tt.valid)
			}
		})
	}
}
