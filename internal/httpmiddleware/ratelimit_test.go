package httpmiddleware

import (
	"context"
	"testing"
)

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewTokenBucket(3, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d denied inside capacity", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Error("request over capacity allowed")
	}
	// A different client has its own bucket.
	if !l.Allow(ctx, "5.6.7.8") {
		t.Error("separate key denied")
	}
}
