// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package console

// History keeps the most recent lines of the event log.
// When full, pushing a line evicts the oldest one.
type History struct {
	lines  []string
	start  int
	length int
}

// NewHistory creates a history holding at most size lines.
// A size below 1 is treated as 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{lines: make([]string, size)}
}

// Cap gets the most lines the history will hold.
func (h *History) Cap() int {
	return len(h.lines)
}

// Len gets the number of lines in the history.
func (h *History) Len() int {
	return h.length
}

// Push adds lines, oldest first.
func (h *History) Push(lines ...string) {
	for _, line := range lines {
		if h.length == len(h.lines) {
			h.lines[h.start] = line
			h.start = (h.start + 1) % len(h.lines)
			continue
		}
		h.lines[(h.start+h.length)%len(h.lines)] = line
		h.length++
	}
}

// Last gets up to n of the newest lines, oldest first.
func (h *History) Last(n int) []string {
	if n > h.length {
		n = h.length
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, n)
	first := h.start + h.length - n
	for i := range out {
		out[i] = h.lines[(first+i)%len(h.lines)]
	}
	return out
}

// Lines gets every line, oldest first.
func (h *History) Lines() []string {
	return h.Last(h.length)
}
