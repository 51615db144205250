// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import "testing"

func TestParseContentRange(t *testing.T) {
	cases := []struct {
		name   string
		header string
		start  int64
		end    int64
		total  int64
		ok     bool
	}{
		{"full form", "bytes 400-999/1000", 400, 999, 1000, true},
		{"from zero", "bytes 0-999/1000", 0, 999, 1000, true},
		{"unknown total", "bytes 500-999/*", 500, 999, -1, true},
		{"large values", "bytes 10737418240-21474836479/21474836480", 10737418240, 21474836479, 21474836480, true},
		{"missing unit", "400-999/1000", 0, 0, 0, false},
		{"wrong unit", "items 400-999/1000", 0, 0, 0, false},
		{"missing total", "bytes 400-999", 0, 0, 0, false},
		{"missing span", "bytes 400/1000", 0, 0, 0, false},
		{"garbage start", "bytes abc-999/1000", 0, 0, 0, false},
		{"garbage total", "bytes 400-999/abc", 0, 0, 0, false},
		{"empty", "", 0, 0, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, total, err := parseContentRange(tc.header)
			if tc.ok && err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("Expected an error")
				}
				return
			}
			if start != tc.start || end != tc.end || total != tc.total {
				t.Errorf("Expected %d-%d/%d, got %d-%d/%d", tc.start, tc.end, tc.total, start, end, total)
			}
		})
	}
}
