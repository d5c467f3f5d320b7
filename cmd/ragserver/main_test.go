package main

import (
	"context"
	"strings"
	"testing"

	"github.com/bookmydarshan/ragserver/internal/embeddings"
)

func TestBuildRootCmd(t *testing.T) {
	root := buildRootCmd()

	want := map[string]bool{"serve": false, "migrate": false, "process": false}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	if flag := root.PersistentFlags().Lookup("config"); flag == nil {
		t.Error("missing --config flag")
	}
}

type fixedDimProvider struct {
	dimension int
}

func (p *fixedDimProvider) Name() string   { return "fixed" }
func (p *fixedDimProvider) Dimension() int { return p.dimension }

func (p *fixedDimProvider) Embed(ctx context.Context, texts []string, task embeddings.Task) ([][]float32, error) {
	return nil, embeddings.ErrUnavailable
}

func (p *fixedDimProvider) Healthy(ctx context.Context) bool { return false }

func TestVerifyEmbedderDimension(t *testing.T) {
	if err := verifyEmbedderDimension(&fixedDimProvider{dimension: 768}, 768); err != nil {
		t.Fatalf("matching dimensions should pass: %v", err)
	}

	err := verifyEmbedderDimension(&fixedDimProvider{dimension: 1536}, 768)
	if err == nil {
		t.Fatal("expected a mismatch error for 1536 vs 768")
	}
	for _, want := range []string{"fixed", "1536", "768"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}
