package registry

import (
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnInstanceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := table.Insert("pump")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "pump" {
		t.Fatalf("Expected 'pump', got %v", val)
	}

	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "pump" {
		t.Fatalf("Expected 'pump', got %v", val)
	}

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Get after Remove should fail")
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert("ball")
	if len(obs.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(obs.events))
	}
	if obs.events[0].Type != EventCreated {
		t.Fatal("Expected EventCreated")
	}
	if obs.events[0].Handle != h {
		t.Fatal("Wrong handle in event")
	}

	table.Remove(h)
	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if obs.events[1].Type != EventFreed {
		t.Fatal("Expected EventFreed")
	}

	table.Unsubscribe(obs)
	table.Insert("other")
	if len(obs.events) != 2 {
		t.Fatal("Unsubscribed observer still notified")
	}
}

func TestTable_HandleReuse(t *testing.T) {
	table := NewTable()

	h1 := table.Insert("a")
	h2 := table.Insert("b")
	if h1 == h2 {
		t.Fatal("handles must be distinct")
	}

	table.Remove(h1)
	h3 := table.Insert("c")
	if h3 != h1 {
		t.Fatalf("expected freed handle %d to be reused, got %d", h1, h3)
	}
	if v, _ := table.Get(h3); v != "c" {
		t.Fatalf("reused handle returned %v", v)
	}
}

func TestTable_CloseWithLiveEntries(t *testing.T) {
	table := NewTable()
	h := table.Insert("pump")

	if err := table.Close(); err != ErrLiveEntries {
		t.Fatalf("Close with live entries = %v, want ErrLiveEntries", err)
	}

	table.Remove(h)
	if err := table.Close(); err != nil {
		t.Fatalf("Close after dispose failed: %v", err)
	}

	if h := table.Insert("late"); h != 0 {
		t.Fatal("Insert after Close should return 0")
	}
}

func TestTable_InvalidHandles(t *testing.T) {
	table := NewTable()

	if _, ok := table.Get(0); ok {
		t.Fatal("handle 0 must be invalid")
	}
	if _, ok := table.Get(99); ok {
		t.Fatal("out-of-range handle must be invalid")
	}
	if _, ok := table.Remove(0); ok {
		t.Fatal("Remove of handle 0 must fail")
	}
}

func TestTable_Live(t *testing.T) {
	table := NewTable()
	table.Insert("a")
	h := table.Insert("b")
	table.Insert("c")
	table.Remove(h)

	live := table.Live()
	if len(live) != 2 || live[0] != "a" || live[1] != "c" {
		t.Fatalf("Live() = %v", live)
	}
}
