package logging

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.With(String("mode", "network")).Warn(context.Background(), "switch rejected", Int("pending", 2))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	for _, want := range []string{`"msg":"switch rejected"`, `"mode":"network"`, `"pending":2`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestTextFormatDefault(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).Error(context.Background(), "boom", Err(errors.New("bad")))
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "error=bad") {
		t.Errorf("unexpected text output %q", buf.String())
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msgviz.log")
	log, closer, err := Open(Config{File: path})
	if err != nil {
		t.Fatal(err)
	}
	log.Info(context.Background(), "hello")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("unexpected file contents %q", data)
	}
}

func TestContextLogger(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected noop logger")
	}
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), New(Config{Output: &buf}))
	FromContext(ctx).Info(ctx, "ctx")
	if !strings.Contains(buf.String(), "msg=ctx") {
		t.Errorf("expected context logger to be used, got %q", buf.String())
	}
}
