// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

// StreamReader consumes the line-delimited JSON chat stream.
type StreamReader struct {
	scanner *bufio.Scanner
	stats   StreamStats
}

// StreamStats summarizes one completed stream.
type StreamStats struct {
	StartedAt    time.Time
	FirstTokenAt time.Time
	FinishedAt   time.Time
	EvalCount    int
	DoneReason   string
}

// TimeToFirstToken is the latency before the first content fragment.
func (s StreamStats) TimeToFirstToken() time.Duration {
	if s.FirstTokenAt.IsZero() {
		return 0
	}
	return s.FirstTokenAt.Sub(s.StartedAt)
}

// TokensPerSecond is the generation rate over the whole stream.
func (s StreamStats) TokensPerSecond() float64 {
	if s.EvalCount == 0 || s.FinishedAt.IsZero() {
		return 0
	}
	elapsed := s.FinishedAt.Sub(s.StartedAt).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.EvalCount) / elapsed
}

// NewStreamReader wraps a response body. The buffer is sized generously
// because a single delta line can carry a large content fragment.
func NewStreamReader(r io.Reader) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &StreamReader{scanner: scanner}
}

// Process reads delta lines until the daemon signals done, invoking
// onDelta for each non-empty content fragment. Context cancellation is
// checked between lines so an interrupt lands promptly.
func (r *StreamReader) Process(ctx context.Context, onDelta func(string)) error {
	r.stats.StartedAt = time.Now()

	for r.scanner.Scan() {
		select {
		case <-ctx.Done():
			return newError(ErrTypeStream, "stream cancelled", ctx.Err())
		default:
		}

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return newError(ErrTypeStream, "decode stream line", err)
		}

		if chunk.Message.Content != "" {
			if r.stats.FirstTokenAt.IsZero() {
				r.stats.FirstTokenAt = time.Now()
			}
			if onDelta != nil {
				onDelta(chunk.Message.Content)
			}
		}
		if chunk.Done {
			r.stats.FinishedAt = time.Now()
			r.stats.EvalCount = chunk.EvalCount
			r.stats.DoneReason = chunk.DoneReason
			return nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) {
			return newError(ErrTypeStream, "stream cancelled", err)
		}
		return newError(ErrTypeStream, "read stream", err)
	}
	return newError(ErrTypeStream, "stream ended without done marker", nil)
}

// Stats returns the collected stream statistics.
func (r *StreamReader) Stats() StreamStats {
	return r.stats
}

// StreamAccumulator collects delta fragments into the full reply.
type StreamAccumulator struct {
	b strings.Builder
}

// Add appends one fragment.
func (a *StreamAccumulator) Add(delta string) {
	a.b.WriteString(delta)
}

// Content returns everything accumulated so far.
func (a *StreamAccumulator) Content() string {
	return a.b.String()
}

// Len returns the accumulated length in bytes.
func (a *StreamAccumulator) Len() int {
	return a.b.Len()
}
