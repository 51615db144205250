// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"
	"strconv"
	"strings"
)

// parseContentRange parses a Content-Range header value.
// Format: "bytes start-end/total" or "bytes start-end/*".
// total is -1 when the server does not know it.
func parseContentRange(header string) (start, end, total int64, err error) {
	rest, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range %q: missing bytes unit", header)
	}
	span, totalPart, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range %q: missing total", header)
	}

	startPart, endPart, ok := strings.Cut(span, "-")
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range %q: missing span", header)
	}
	start, err = strconv.ParseInt(startPart, 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range start: %w", err)
	}
	end, err = strconv.ParseInt(endPart, 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid Content-Range end: %w", err)
	}

	if totalPart == "*" {
		total = -1
	} else {
		total, err = strconv.ParseInt(totalPart, 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid Content-Range total: %w", err)
		}
	}
	return start, end, total, nil
}
