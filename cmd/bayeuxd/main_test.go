package main

import "testing"

func TestAppBuildsWithSharedSecretPolicy(t *testing.T) {
	t.Setenv("BAYEUX_SHARED_SECRET", "hunter2")
	t.Setenv("GO_ENV", "test")

	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}
}
