package state

import "testing"

func TestMemoryStoreLifecycle(t *testing.T) {
	st := NewMemoryStore()

	if st.InProgress(1) {
		t.Fatal("fresh store should have no session")
	}
	if _, ok := st.Get(1); ok {
		t.Fatal("Get on empty store should report no session")
	}

	st.Put(1, Session{Step: "first_name"})
	if !st.InProgress(1) {
		t.Fatal("session should be in progress after Put")
	}

	s, ok := st.Get(1)
	if !ok || s.Step != "first_name" {
		t.Fatalf("unexpected session: %+v ok=%v", s, ok)
	}

	st.Put(1, s.WithValue("Alice"))
	s, _ = st.Get(1)
	if len(s.Values) != 1 || s.Values[0] != "Alice" {
		t.Fatalf("expected collected value, got %+v", s.Values)
	}

	if st.InProgress(2) {
		t.Fatal("sessions must be keyed per chat")
	}

	st.Clear(1)
	if st.InProgress(1) {
		t.Fatal("Clear should discard the session")
	}
}

func TestMemoryStorePutIdleClears(t *testing.T) {
	st := NewMemoryStore()
	st.Put(7, Session{Step: "email"})
	st.Put(7, Session{Step: StepIdle})
	if st.InProgress(7) {
		t.Fatal("putting an idle session should clear it")
	}
}

func TestWithValueCopies(t *testing.T) {
	base := Session{Step: "end_date", Values: []string{"vacation", "2030-01-01"}}
	next := base.WithValue("2030-01-05")
	if len(base.Values) != 2 {
		t.Fatalf("base session mutated: %+v", base.Values)
	}
	if len(next.Values) != 3 || next.Values[2] != "2030-01-05" {
		t.Fatalf("unexpected values: %+v", next.Values)
	}
}
