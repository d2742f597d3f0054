package memory

import (
	"context"
	"testing"
)

func TestPublisherStoresRunIDs(t *testing.T) {
	t.Parallel()

	pub := New()
	if err := pub.Publish(context.Background(), "run-1"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := pub.Publish(context.Background(), "run-2"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	ids := pub.Published()
	if len(ids) != 2 || ids[0] != "run-1" || ids[1] != "run-2" {
		t.Fatalf("run IDs not recorded correctly: %v", ids)
	}

	ids[0] = "modified"
	if pub.Published()[0] == "modified" {
		t.Fatal("expected Published() to return a copy")
	}

	if pub.Closed() {
		t.Fatal("publisher should not report closed before Close")
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !pub.Closed() {
		t.Fatal("expected Closed() after Close")
	}
}
