package session

import "testing"

func TestBrowserGroupAllowUnlimited(t *testing.T) {
	g := NewBrowserGroup("b1")
	if !g.Allow(-1) {
		t.Error("Allow(-1) should always be true")
	}
}

func TestBrowserGroupAllowCapsAtMax(t *testing.T) {
	g := NewBrowserGroup("b1")
	g.HoldConnect()
	if g.Allow(1) {
		t.Error("Allow(1) should be false once one connect is already held")
	}
	if !g.Allow(2) {
		t.Error("Allow(2) should be true with one connect held")
	}
}

func TestBrowserGroupAddRemove(t *testing.T) {
	g := NewBrowserGroup("b1")
	s, _ := New("b1")
	g.Add(s)
	if g.Empty() {
		t.Fatal("group should not be empty after Add")
	}
	if g.Size() != 1 {
		t.Errorf("Size() = %d, want 1", g.Size())
	}
	g.Remove(s.ID())
	if !g.Empty() {
		t.Error("group should be empty after Remove")
	}
}

func TestBrowserGroupMultipleClients(t *testing.T) {
	g := NewBrowserGroup("b1")
	g.HoldConnect()
	if g.MultipleClients() {
		t.Error("MultipleClients should be false with only one held connect")
	}
	g.HoldConnect()
	if !g.MultipleClients() {
		t.Error("MultipleClients should be true with two held connects")
	}
	g.ReleaseConnect()
	if g.MultipleClients() {
		t.Error("MultipleClients should be false after releasing back to one")
	}
}

func TestBrowserGroupsGetOrCreateIsStable(t *testing.T) {
	groups := NewBrowserGroups()
	a := groups.GetOrCreate("b1")
	b := groups.GetOrCreate("b1")
	if a != b {
		t.Error("GetOrCreate should return the same group for the same id")
	}
}

func TestBrowserGroupsPruneRemovesOnlyEmpty(t *testing.T) {
	groups := NewBrowserGroups()
	g := groups.GetOrCreate("b1")
	s, _ := New("b1")
	g.Add(s)

	groups.Prune("b1")
	if groups.GetOrCreate("b1") != g {
		t.Error("Prune should not remove a non-empty group")
	}

	g.Remove(s.ID())
	groups.Prune("b1")
	if groups.GetOrCreate("b1") == g {
		t.Error("Prune should have removed the now-empty group")
	}
}
