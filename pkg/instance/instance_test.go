package instance

import "testing"

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("STOREFRONT_INSTANCE_ID", "worker-7")
	if got := ID(); got != "web.1" {
		t.Fatalf("expected DYNO, got %q", got)
	}
}

func TestIDFallsBackToConfiguredID(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("STOREFRONT_INSTANCE_ID", "worker-7")
	if got := ID(); got != "worker-7" {
		t.Fatalf("expected configured id, got %q", got)
	}
}

func TestIDNeverEmpty(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("STOREFRONT_INSTANCE_ID", "")
	if ID() == "" {
		t.Fatal("expected a non-empty instance id")
	}
}

func TestIDIgnoresBlankDyno(t *testing.T) {
	t.Setenv("DYNO", "  ")
	t.Setenv("STOREFRONT_INSTANCE_ID", "worker-7")
	if got := ID(); got != "worker-7" {
		t.Fatalf("expected configured id, got %q", got)
	}
}
