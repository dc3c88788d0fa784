package entities

import (
	"encoding/json"
	"errors"
	"testing"
)

func recordWith(ids ...string) *UserRecord {
	rec := NewUserRecord("42")
	for _, id := range ids {
		rec.Tasks = append(rec.Tasks, Task{ID: id, Content: "task " + id, Priority: DefaultPriority, Tags: []string{}})
	}
	return rec
}

func TestResolveWithoutIndexUsesStoragePositions(t *testing.T) {
	rec := recordWith("a", "b", "c")

	for n, want := range map[int]int{1: 0, 2: 1, 3: 2} {
		got, err := rec.Resolve(n)
		if err != nil || got != want {
			t.Fatalf("Resolve(%d) = (%d, %v), want %d", n, got, err, want)
		}
	}

	for _, n := range []int{0, -1, 4} {
		if _, err := rec.Resolve(n); !errors.Is(err, ErrInvalidTaskNumber) {
			t.Fatalf("Resolve(%d) error = %v, want ErrInvalidTaskNumber", n, err)
		}
	}
}

func TestResolveThroughBuiltIndex(t *testing.T) {
	rec := recordWith("a", "b", "c")
	rendered := []Task{rec.Tasks[2], rec.Tasks[0]}
	rec.IndexMap = BuildDisplayIndex(rendered, rec.PositionOf)

	task, pos, err := rec.TaskAt(1)
	if err != nil || pos != 2 || task.ID != "c" {
		t.Fatalf("TaskAt(1) = (%v, %d, %v), want task c at 2", task, pos, err)
	}
	task, pos, err = rec.TaskAt(2)
	if err != nil || pos != 0 || task.ID != "a" {
		t.Fatalf("TaskAt(2) = (%v, %d, %v), want task a at 0", task, pos, err)
	}
	if _, _, err := rec.TaskAt(3); !errors.Is(err, ErrInvalidTaskNumber) {
		t.Fatalf("TaskAt(3) error = %v, want ErrInvalidTaskNumber", err)
	}
}

func TestInvalidatedIndexRejectsEveryNumber(t *testing.T) {
	rec := recordWith("a", "b")
	rec.Invalidate()

	for _, n := range []int{1, 2} {
		if _, err := rec.Resolve(n); !errors.Is(err, ErrInvalidTaskNumber) {
			t.Fatalf("Resolve(%d) after invalidation error = %v, want ErrInvalidTaskNumber", n, err)
		}
	}
}

func TestStaleIndexOutOfRangeIsRejected(t *testing.T) {
	rec := recordWith("a", "b", "c")
	rec.IndexMap = DisplayIndex{1: 2}
	rec.Tasks = rec.Tasks[:2]

	if _, err := rec.Resolve(1); !errors.Is(err, ErrInvalidTaskNumber) {
		t.Fatalf("Resolve on stale entry error = %v, want ErrInvalidTaskNumber", err)
	}
}

func TestDisplayIndexSurvivesJSON(t *testing.T) {
	tests := []struct {
		name  string
		index DisplayIndex
	}{
		{"never listed", nil},
		{"invalidated", DisplayIndex{}},
		{"listed", DisplayIndex{1: 1, 2: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordWith("a", "b")
			rec.IndexMap = tt.index

			data, err := json.Marshal(rec)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var back UserRecord
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if (back.IndexMap == nil) != (tt.index == nil) {
				t.Fatalf("nil-ness changed: got %v, want %v", back.IndexMap, tt.index)
			}
			if len(back.IndexMap) != len(tt.index) {
				t.Fatalf("got %v, want %v", back.IndexMap, tt.index)
			}
			for k, v := range tt.index {
				if back.IndexMap[k] != v {
					t.Fatalf("entry %d = %d, want %d", k, back.IndexMap[k], v)
				}
			}
		})
	}
}
