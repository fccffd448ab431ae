package graphstore

import (
	"testing"

	"github.com/antigravity-dev/codegraph/internal/model"
)

// TestCriticalPath covers a plan with a completed prerequisite: t1 is done,
// so the critical path of remaining work is just t2 -> t3, not t1 -> t2 -> t3.
func TestCriticalPath(t *testing.T) {
	s := newTestStore(t)

	must(t, s.PutTask(model.Task{ID: "t1", PlanID: "p1", Title: "one", Status: model.TaskCompleted}))
	must(t, s.PutTask(model.Task{ID: "t2", PlanID: "p1", Title: "two", Status: model.TaskPending, DependsOn: []string{"t1"}}))
	must(t, s.PutTask(model.Task{ID: "t3", PlanID: "p1", Title: "three", Status: model.TaskPending, DependsOn: []string{"t2"}}))

	path, err := s.GetCriticalPath("p1")
	if err != nil {
		t.Fatalf("GetCriticalPath failed: %v", err)
	}
	if len(path) != 2 || path[0] != "t2" || path[1] != "t3" {
		t.Fatalf("expected critical path [t2 t3] excluding the completed t1, got %v", path)
	}
}

// TestCriticalPathAllUncompleted is scenario S4: every task in the chain is
// uncompleted, so the full dependency chain is the critical path.
func TestCriticalPathAllUncompleted(t *testing.T) {
	s := newTestStore(t)

	must(t, s.PutTask(model.Task{ID: "t1", PlanID: "p1", Title: "one", Status: model.TaskPending}))
	must(t, s.PutTask(model.Task{ID: "t2", PlanID: "p1", Title: "two", Status: model.TaskPending, DependsOn: []string{"t1"}}))
	must(t, s.PutTask(model.Task{ID: "t3", PlanID: "p1", Title: "three", Status: model.TaskInProgress, DependsOn: []string{"t2"}}))

	path, err := s.GetCriticalPath("p1")
	if err != nil {
		t.Fatalf("GetCriticalPath failed: %v", err)
	}
	if len(path) != 3 || path[len(path)-1] != "t3" {
		t.Fatalf("expected critical path [t1 t2 t3], got %v", path)
	}
}

func TestNextAvailableTask(t *testing.T) {
	s := newTestStore(t)

	must(t, s.PutTask(model.Task{ID: "t1", PlanID: "p1", Title: "blocked", Status: model.TaskPending, DependsOn: []string{"t0"}}))
	must(t, s.PutTask(model.Task{ID: "t0", PlanID: "p1", Title: "prereq", Status: model.TaskInProgress}))
	must(t, s.PutTask(model.Task{ID: "t2", PlanID: "p1", Title: "ready", Status: model.TaskPending, Priority: 5}))

	next, err := s.GetNextAvailableTask("p1")
	if err != nil {
		t.Fatalf("GetNextAvailableTask failed: %v", err)
	}
	if next == nil || next.ID != "t2" {
		t.Fatalf("expected t2 to be next available, got %+v", next)
	}
}

func TestReconcileFiles(t *testing.T) {
	s := newTestStore(t)

	must(t, s.UpsertFile(model.File{ProjectID: "p1", Path: "a.go"}))
	must(t, s.UpsertFile(model.File{ProjectID: "p1", Path: "b.go"}))

	n, err := s.ReconcileFiles("p1", map[string]bool{"a.go": true})
	if err != nil {
		t.Fatalf("ReconcileFiles failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 stale file removed, got %d", n)
	}

	deps, err := s.FindDependentFiles("p1", "b.go", 1)
	if err != nil {
		t.Fatalf("FindDependentFiles failed: %v", err)
	}
	if len(deps) != 0 {
		t.Fatalf("expected no edges for deleted file, got %v", deps)
	}
}
