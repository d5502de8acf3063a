package openrouter

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

// readAll drains a DeltaReader, returning the deltas and the terminal error.
func readAll(d *DeltaReader) ([]string, error) {
	var deltas []string
	for {
		delta, err := d.Next()
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func contentChunk(content string) string {
	return `data: {"id":"gen-1","model":"openai/gpt-4o","choices":[{"index":0,"delta":{"content":` +
		quote(content) + `},"finish_reason":null}]}` + "\n\n"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func TestDeltaReader(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		want    []string
		wantErr error
	}{
		{
			name:    "content chunks then done",
			stream:  contentChunk("Hel") + contentChunk("lo") + contentChunk(", world") + "data: [DONE]\n\n",
			want:    []string{"Hel", "lo", ", world"},
			wantErr: io.EOF,
		},
		{
			name: "keep-alive comments and blank lines skipped",
			stream: ": OPENROUTER PROCESSING\n\n" + contentChunk("a") +
				": OPENROUTER PROCESSING\n\n\n" + contentChunk("b") + "data: [DONE]\n",
			want:    []string{"a", "b"},
			wantErr: io.EOF,
		},
		{
			name:    "data without space",
			stream:  `data:{"choices":[{"delta":{"content":"x"}}]}` + "\n" + "data:[DONE]\n",
			want:    []string{"x"},
			wantErr: io.EOF,
		},
		{
			name: "role-only and empty deltas produce nothing",
			stream: `data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n\n" +
				contentChunk("") + contentChunk("hi") + "data: [DONE]\n\n",
			want:    []string{"hi"},
			wantErr: io.EOF,
		},
		{
			name:    "malformed json skipped",
			stream:  "data: {not json\n\n" + contentChunk("ok") + "data: [DONE]\n\n",
			want:    []string{"ok"},
			wantErr: io.EOF,
		},
		{
			name:    "event and id fields ignored",
			stream:  "event: message\nid: 7\nretry: 100\n" + contentChunk("z") + "data: [DONE]\n\n",
			want:    []string{"z"},
			wantErr: io.EOF,
		},
		{
			name:    "crlf line endings",
			stream:  strings.ReplaceAll(contentChunk("crlf")+"data: [DONE]\n\n", "\n", "\r\n"),
			want:    []string{"crlf"},
			wantErr: io.EOF,
		},
		{
			name:    "eof without done marker",
			stream:  contentChunk("a") + `data: {"choices":[{"delta":{"content":"b"}}]}`,
			want:    []string{"a", "b"},
			wantErr: io.EOF,
		},
		{
			name:    "nothing after done is read",
			stream:  contentChunk("a") + "data: [DONE]\n\n" + contentChunk("late"),
			want:    []string{"a"},
			wantErr: io.EOF,
		},
		{
			name:    "empty stream",
			stream:  "",
			want:    nil,
			wantErr: io.EOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readAll(NewDeltaReader(strings.NewReader(tt.stream)))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("expected deltas %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeltaReader_PartialReads(t *testing.T) {
	stream := contentChunk("spl") + contentChunk("it ") + contentChunk("lines") + "data: [DONE]\n\n"

	// OneByteReader forces every line to arrive across many reads
	d := NewDeltaReader(iotest.OneByteReader(strings.NewReader(stream)))
	got, err := readAll(d)
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if strings.Join(got, "") != "split lines" {
		t.Errorf("expected %q, got %q", "split lines", strings.Join(got, ""))
	}
}

func TestDeltaReader_InBandError(t *testing.T) {
	stream := contentChunk("partial") +
		`data: {"error":{"message":"provider disconnected","code":502}}` + "\n\n" +
		contentChunk("never")

	d := NewDeltaReader(strings.NewReader(stream))
	got, err := readAll(d)

	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if streamErr.Message != "provider disconnected" {
		t.Errorf("unexpected message %q", streamErr.Message)
	}
	if len(got) != 1 || got[0] != "partial" {
		t.Errorf("expected only the partial delta, got %q", got)
	}

	// Terminal error is sticky
	if _, again := d.Next(); again != err {
		t.Errorf("expected same terminal error, got %v", again)
	}
}

func TestDeltaReader_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader(contentChunk("a")), iotest.ErrReader(boom))

	got, err := readAll(NewDeltaReader(r))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	if len(got) != 1 || got[0] != "a" {
		t.Errorf("expected deltas before the failure, got %q", got)
	}
}

func TestDeltaReader_Metadata(t *testing.T) {
	stream := contentChunk("a") +
		`data: {"model":"openai/gpt-4o","choices":[{"delta":{},"finish_reason":"stop"}]}` + "\n\n" +
		`data: {"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}` + "\n\n" +
		"data: [DONE]\n\n"

	d := NewDeltaReader(strings.NewReader(stream))
	if _, err := readAll(d); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	if d.Model() != "openai/gpt-4o" {
		t.Errorf("expected model, got %q", d.Model())
	}
	if d.FinishReason() != "stop" {
		t.Errorf("expected finish reason stop, got %q", d.FinishReason())
	}
	if d.Usage() == nil || d.Usage().TotalTokens != 15 {
		t.Errorf("expected usage with 15 total tokens, got %+v", d.Usage())
	}
	if d.Chunks() != 3 {
		t.Errorf("expected 3 chunks, got %d", d.Chunks())
	}
}
