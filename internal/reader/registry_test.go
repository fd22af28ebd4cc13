package reader

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xtxerr/seriesmux/internal/archive/segment"
)

func TestDetectKind(t *testing.T) {
	nodeDir := t.TempDir()
	if err := segment.SaveMeta(nodeDir, &segment.Meta{StepSeconds: 10}); err != nil {
		t.Fatalf("save meta: %v", err)
	}

	tests := []struct {
		path string
		want Kind
		ok   bool
	}{
		{"servers/web1/cpu.fsa", KindFixedStep, true},
		{"servers/web1/cpu.fsa.gz", KindGzipped, true},
		{"net/eth0.rrd", KindRoundRobin, true},
		{nodeDir, KindSegmented, true},
		{"servers/web1/cpu.txt", "", false},
		{filepath.Join(t.TempDir(), "empty-dir"), "", false},
	}

	for _, tt := range tests {
		kind, ok := DetectKind(tt.path)
		if ok != tt.ok || kind != tt.want {
			t.Errorf("DetectKind(%q) = (%q, %v), want (%q, %v)", tt.path, kind, ok, tt.want, tt.ok)
		}
	}
}

func TestRegistryOpen(t *testing.T) {
	reg := NewRegistry()
	reg.Register(KindFixedStep, func(path, metric string) (Reader, error) {
		return NewFixedStep(path, metric, nil), nil
	})

	r, err := reg.Open("servers/web1/cpu.fsa", "servers.web1.cpu")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.(*FixedStep); !ok {
		t.Errorf("expected a *FixedStep, got %T", r)
	}
}

func TestRegistryUnregisteredKind(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Open("net/eth0.rrd", "net.eth0")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistryUnrecognizedPath(t *testing.T) {
	reg := NewRegistry()
	reg.Register(KindFixedStep, func(path, metric string) (Reader, error) {
		return NewFixedStep(path, metric, nil), nil
	})

	_, err := reg.Open("servers/web1/cpu.txt", "servers.web1.cpu")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistrySupportedAndKinds(t *testing.T) {
	reg := NewRegistry()
	reg.Register(KindGzipped, func(path, metric string) (Reader, error) {
		return NewGzippedFixedStep(path), nil
	})
	reg.Register(KindFixedStep, func(path, metric string) (Reader, error) {
		return NewFixedStep(path, metric, nil), nil
	})

	if !reg.Supported(KindFixedStep) || !reg.Supported(KindGzipped) {
		t.Error("expected registered kinds to be supported")
	}
	if reg.Supported(KindRoundRobin) {
		t.Error("expected round-robin to be unsupported without a backend")
	}

	kinds := reg.Kinds()
	want := []Kind{KindFixedStep, KindGzipped}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kind %d: expected %q, got %q", i, want[i], kinds[i])
		}
	}
}
