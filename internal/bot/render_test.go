package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/Spok95/montage-bot/internal/access"
	"github.com/Spok95/montage-bot/internal/domain/objects"
)

func TestParseIDArg(t *testing.T) {
	if _, ok := parseIDArg(nil, 0); ok {
		t.Error("empty args must not parse")
	}
	if _, ok := parseIDArg([]string{"x"}, 0); ok {
		t.Error("non-numeric must not parse")
	}
	if _, ok := parseIDArg([]string{"0"}, 0); ok {
		t.Error("ids start at 1")
	}
	v, ok := parseIDArg([]string{"7", "42"}, 1)
	if !ok || v != 42 {
		t.Fatalf("got %d, %v", v, ok)
	}
}

func TestRenderProblems(t *testing.T) {
	if got := renderProblems(nil); !strings.Contains(got, "нет") {
		t.Fatalf("empty list: %s", got)
	}
	list := []objects.Problem{
		{ID: 3, Description: "Не работает домофон", CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	got := renderProblems(list)
	for _, want := range []string{"№3", "01.08.2026", "Не работает домофон", "/resolve_problem"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderMaintenance(t *testing.T) {
	if got := renderMaintenance(nil); !strings.Contains(got, "нет") {
		t.Fatalf("empty list: %s", got)
	}
	list := []objects.Maintenance{
		{ID: 1, Title: "Чистка камер", DueDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)},
	}
	got := renderMaintenance(list)
	if !strings.Contains(got, "15.09.2026") || !strings.Contains(got, "Чистка камер") {
		t.Fatalf("got:\n%s", got)
	}
}

func TestRenderRoles(t *testing.T) {
	if got := renderRoles(nil); !strings.Contains(got, "не назначены") {
		t.Fatalf("empty map: %s", got)
	}
	roles := map[int64]access.Role{
		200: access.RoleService,
		100: access.RoleAdmin,
	}
	got := renderRoles(roles)
	// сортировка по id, роль рядом с пользователем
	if strings.Index(got, "100") > strings.Index(got, "200") {
		t.Fatalf("ids must be sorted:\n%s", got)
	}
	if !strings.Contains(got, "100 — admin") || !strings.Contains(got, "200 — service") {
		t.Fatalf("got:\n%s", got)
	}
}
