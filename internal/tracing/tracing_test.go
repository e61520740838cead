package tracing

import (
	"context"
	"testing"
)

func TestInit_DisabledIsNoop(t *testing.T) {
	closer, err := Init(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := closer(context.Background()); err != nil {
		t.Fatalf("closer: %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	// The gRPC exporter connects lazily, so no collector is needed here.
	closer, err := Init(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "lifeband-test",
		OTLPEndpoint: "127.0.0.1:4317",
		SampleRatio:  1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Shutdown with a cancelled context may report the flush error; it must not hang.
	_ = closer(ctx)
}
