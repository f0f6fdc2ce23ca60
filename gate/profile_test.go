package gate_test

import (
	"context"
	"testing"

	"github.com/mahaoyang/nuxtcom/gate"
)

func TestStaticProfile_HasPermission(t *testing.T) {
	profile := gate.NewStaticProfile(1, "commenter", "view_content", "create_comment")

	if !profile.HasPermission("create_comment") {
		t.Error("should have create_comment permission")
	}
	if profile.HasPermission("create_post") {
		t.Error("should not have create_post permission")
	}
}

func TestBypassProfile(t *testing.T) {
	profile := gate.NewBypassProfile(1, "superadmin")

	if !profile.Bypass() {
		t.Error("expected Bypass() to be true")
	}
	// Bypass is a gate-level decision; the profile itself still reports an
	// empty permission set.
	if profile.HasPermission("view_content") {
		t.Error("bypass profile should not claim individual codes")
	}
	if len(profile.Permissions()) != 0 {
		t.Errorf("expected empty permission set, got %v", profile.Permissions())
	}
}

func TestStaticResolver(t *testing.T) {
	resolver := gate.NewStaticResolver[uint]()
	profile := gate.NewStaticProfile(1, "viewer", "view_content")
	resolver.Set(1, profile)

	resolved, err := resolver.Resolve(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == nil {
		t.Fatal("expected profile, got nil")
	}
	if resolved.Name() != "viewer" {
		t.Errorf("expected 'viewer', got '%s'", resolved.Name())
	}

	// Unknown user returns nil
	unknown, err := resolver.Resolve(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unknown != nil {
		t.Error("expected nil for unknown user")
	}
}
