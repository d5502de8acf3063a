package openrouter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mandalnilabja/chatrelay/internal/types"
)

const (
	// initialLineBuffer and maxLineSize bound one SSE line.
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

var (
	dataField  = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// StreamError is an in-band failure reported by the upstream after the stream started.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return "upstream stream error: " + e.Message
}

// DeltaReader turns an OpenRouter SSE body into a sequence of text deltas.
// It reads lazily, is finite, and cannot be restarted.
type DeltaReader struct {
	scanner      *bufio.Scanner
	done         bool
	err          error
	model        string
	finishReason string
	usage        *types.Usage
	chunks       int
}

// NewDeltaReader wraps an upstream response body.
func NewDeltaReader(r io.Reader) *DeltaReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)
	return &DeltaReader{scanner: scanner}
}

// Next returns the next non-empty text delta.
// It returns io.EOF once the stream has ended normally, and keeps returning
// the same terminal error on later calls.
func (d *DeltaReader) Next() (string, error) {
	if d.done {
		return "", d.err
	}

	for d.scanner.Scan() {
		delta, stop, err := d.processLine(d.scanner.Bytes())
		if err != nil {
			return "", d.finish(err)
		}
		if stop {
			return "", d.finish(io.EOF)
		}
		if delta != "" {
			return delta, nil
		}
	}

	if err := d.scanner.Err(); err != nil {
		return "", d.finish(fmt.Errorf("read upstream stream: %w", err))
	}
	// Upstream closed without [DONE]; treat as a normal end.
	return "", d.finish(io.EOF)
}

func (d *DeltaReader) finish(err error) error {
	d.done = true
	d.err = err
	return err
}

// processLine handles one SSE line. stop reports the [DONE] marker.
func (d *DeltaReader) processLine(line []byte) (delta string, stop bool, err error) {
	// Blank lines separate events; ':' lines are comments (OpenRouter keep-alives).
	if len(line) == 0 || line[0] == ':' {
		return "", false, nil
	}

	// event:, id: and retry: carry nothing we relay.
	if !bytes.HasPrefix(line, dataField) {
		return "", false, nil
	}

	data := bytes.TrimPrefix(line, dataField)
	data = bytes.TrimPrefix(data, []byte(" "))
	data = bytes.TrimRight(data, "\r")

	if bytes.Equal(data, doneMarker) {
		return "", true, nil
	}

	var chunk types.ChatCompletionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return "", false, nil // Skip malformed chunks
	}
	d.chunks++

	if chunk.Error != nil {
		return "", false, &StreamError{Message: chunk.Error.Message}
	}

	if d.model == "" && chunk.Model != "" {
		d.model = chunk.Model
	}
	if chunk.Usage != nil {
		d.usage = chunk.Usage
	}
	if len(chunk.Choices) == 0 {
		return "", false, nil
	}

	choice := chunk.Choices[0]
	if choice.FinishReason != nil && *choice.FinishReason != "" {
		d.finishReason = *choice.FinishReason
	}
	return choice.Delta.Content, false, nil
}

// Model returns the model reported by the upstream, if any.
func (d *DeltaReader) Model() string {
	return d.model
}

// FinishReason returns the last finish reason seen.
func (d *DeltaReader) FinishReason() string {
	return d.finishReason
}

// Usage returns the upstream usage block, or nil.
func (d *DeltaReader) Usage() *types.Usage {
	return d.usage
}

// Chunks returns the number of JSON chunks decoded so far.
func (d *DeltaReader) Chunks() int {
	return d.chunks
}
