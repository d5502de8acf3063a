package types

import (
	"encoding/json"
	"testing"
)

func TestNewUpstreamRequest(t *testing.T) {
	var req ChatRequest
	body := `{"chatSettings":{"model":"anthropic/claude-3.5-sonnet","temperature":0.7,"includeProfileContext":true},"messages":[{"role":"user","content":"a"},{"role":"user","content":"b"}]}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}

	up := NewUpstreamRequest(&req)
	if !up.Stream {
		t.Error("expected stream enabled")
	}
	if up.Model != "anthropic/claude-3.5-sonnet" {
		t.Errorf("unexpected model %q", up.Model)
	}
	if up.Temperature == nil || *up.Temperature != 0.7 {
		t.Errorf("unexpected temperature %v", up.Temperature)
	}
	if len(up.Messages) != 2 || string(up.Messages[1]) != `{"role":"user","content":"b"}` {
		t.Errorf("messages not forwarded verbatim: %s", up.Messages)
	}
}

func TestNewUpstreamRequest_Defaults(t *testing.T) {
	up := NewUpstreamRequest(&ChatRequest{})

	out, err := json.Marshal(up)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"model":"","messages":[],"stream":true}`
	if string(out) != want {
		t.Errorf("expected %s, got %s", want, out)
	}
}
