package format

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestWriteJSONEnvelope(t *testing.T) {
	var buf bytes.Buffer
	env := Envelope{Data: []string{"a"}, Text: func(w io.Writer) error {
		_, err := io.WriteString(w, "text form\n")
		return err
	}}
	if err := Write(&buf, env, "json", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if _, ok := got["data"]; !ok {
		t.Fatalf("expected data key, got %v", got)
	}
	if _, ok := got["meta"]; ok {
		t.Fatalf("empty meta must be omitted, got %v", got)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	env := Envelope{Data: 1, Text: func(w io.Writer) error {
		_, err := io.WriteString(w, "text form\n")
		return err
	}}
	if err := Write(&buf, env, "text", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != "text form\n" {
		t.Fatalf("unexpected text output %q", buf.String())
	}
}

func TestWriteTextFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 1}, "text", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"n": 1`) {
		t.Fatalf("expected pretty json, got %q", buf.String())
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(io.Discard, 1, "edn", false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTableContainsCells(t *testing.T) {
	out := Table([]string{"ID", "TITLE"}, [][]string{{"1", "Intro"}, {"2", "Deep dive"}})
	for _, want := range []string{"ID", "TITLE", "Intro", "Deep dive"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestFieldsAlign(t *testing.T) {
	out := Fields([][2]string{{"id", "1"}, {"status", "pending"}})
	want := "id:      1\nstatus:  pending\n"
	if out != want {
		t.Fatalf("got %q want %q", out, want)
	}
}
