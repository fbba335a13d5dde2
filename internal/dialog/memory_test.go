package dialog

import (
	"context"
	"testing"
)

func TestMemoryGetMissing(t *testing.T) {
	s := NewMemory()
	st, err := s.Get(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st != nil {
		t.Fatal("missing state must return nil")
	}
}

func TestMemorySetGetDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if err := s.Set(ctx, State{UserID: 1, ChatID: 2, Scenario: "create_region", Step: "short_name", Data: Data{"a": "b"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	st, err := s.Get(ctx, 1, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st == nil || st.Scenario != "create_region" || st.Step != "short_name" {
		t.Fatalf("unexpected state: %+v", st)
	}
	if v, _ := GetString(st.Data, "a"); v != "b" {
		t.Fatalf("data lost: %+v", st.Data)
	}

	// изменения копии не протекают в хранилище
	st.Data["a"] = "mutated"
	again, _ := s.Get(ctx, 1, 2)
	if v, _ := GetString(again.Data, "a"); v != "b" {
		t.Fatal("Get must return a copy of data")
	}

	if err := s.Delete(ctx, 1, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	st, _ = s.Get(ctx, 1, 2)
	if st != nil {
		t.Fatal("state must be gone after delete")
	}
}

func TestMemorySetOverwrites(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_ = s.Set(ctx, State{UserID: 7, ChatID: 7, Scenario: "a", Step: "s1", Data: Data{"x": 1}})
	_ = s.Set(ctx, State{UserID: 7, ChatID: 7, Scenario: "b", Step: "s1", Data: Data{}})

	st, _ := s.Get(ctx, 7, 7)
	if st.Scenario != "b" {
		t.Fatalf("scenario = %s, want b", st.Scenario)
	}
	if len(st.Data) != 0 {
		t.Fatalf("old data survived overwrite: %+v", st.Data)
	}
}

func TestDataHelpers(t *testing.T) {
	d := Data{"s": "str", "f": float64(3), "i": 5, "list": []any{"a", "b"}}

	if v, ok := GetString(d, "s"); !ok || v != "str" {
		t.Errorf("GetString = %q, %v", v, ok)
	}
	if _, ok := GetString(d, "f"); ok {
		t.Error("GetString must fail on non-string")
	}
	if v, ok := GetFloat(d, "f"); !ok || v != 3 {
		t.Errorf("GetFloat(f) = %v, %v", v, ok)
	}
	if v, ok := GetFloat(d, "i"); !ok || v != 5 {
		t.Errorf("GetFloat(i) = %v, %v", v, ok)
	}
	if got := GetStrings(d, "list"); len(got) != 2 || got[0] != "a" {
		t.Errorf("GetStrings = %v", got)
	}
}
