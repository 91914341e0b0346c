package main

import (
	"testing"
)

func TestParsePort(t *testing.T) {
	tests := []struct {
		input string
		port  uint16
		err   bool
	}{
		{input: "1", port: 1},
		{input: "80", port: 80},
		{input: "65535", port: 65535},

		// error cases
		{input: "0", err: true},
		{input: "-1", err: true},
		{input: "65536", err: true},
		{input: "999999999999999999", err: true},
		{input: "eighty", err: true},
		{input: "", err: true},
	}

	for _, tt := range tests {
		port, err := parsePort(tt.input)
		if (err != nil) != tt.err {
			t.Errorf("parsePort(%s) expected err=%t but was %t", tt.input, tt.err, err != nil)
		}
		if err != nil || tt.err {
			continue
		}
		if port != tt.port {
			t.Errorf("parsePort(%s) = %d but want %d", tt.input, port, tt.port)
		}
	}
}
