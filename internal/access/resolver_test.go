package access

import (
	"context"
	"testing"
)

type memStore struct {
	roles   map[int64]Role
	entries map[string]PermissionEntry
}

func entryKey(role Role, command string, scope ChatScope) string {
	return string(role) + "|" + command + "|" + string(scope)
}

func (m *memStore) RoleByUser(_ context.Context, userID int64) (Role, error) {
	if r, ok := m.roles[userID]; ok {
		return r, nil
	}
	return RoleNone, nil
}

func (m *memStore) Entry(_ context.Context, role Role, command string, scope ChatScope) (*PermissionEntry, error) {
	if e, ok := m.entries[entryKey(role, command, scope)]; ok {
		return &e, nil
	}
	return nil, nil
}

func newMemStore() *memStore {
	return &memStore{roles: map[int64]Role{}, entries: map[string]PermissionEntry{}}
}

func TestMainAdminBypass(t *testing.T) {
	st := newMemStore()
	st.roles[1] = RoleMainAdmin
	// даже явный запрет не действует на главного админа
	st.entries[entryKey(RoleMainAdmin, "allocate", ScopeAny)] = PermissionEntry{
		Role: RoleMainAdmin, Command: "allocate", Scope: ScopeAny, Enabled: false,
	}
	r := NewResolver(st)

	for _, cmd := range []string{"start", "allocate", "assign_role", "unknown_cmd"} {
		for _, scope := range []ChatScope{ScopePrivate, ScopeGroup, ScopeAny} {
			d, err := r.Resolve(context.Background(), 1, cmd, scope)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !d.Allowed {
				t.Errorf("main_admin denied %s in %s: %s", cmd, scope, d.Reason)
			}
		}
	}
}

func TestExplicitEntryOverridesDefaults(t *testing.T) {
	st := newMemStore()
	st.roles[2] = RoleService
	// balance по умолчанию разрешён любой назначенной роли; явная запись запрещает
	st.entries[entryKey(RoleService, "balance", ScopePrivate)] = PermissionEntry{
		Role: RoleService, Command: "balance", Scope: ScopePrivate, Enabled: false,
	}
	r := NewResolver(st)

	d, err := r.Resolve(context.Background(), 2, "balance", ScopePrivate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if d.Allowed {
		t.Fatal("explicit disabled entry must win over default allow")
	}

	// в группе записи нет — работает дефолт
	d, err = r.Resolve(context.Background(), 2, "balance", ScopeGroup)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("no entry for group scope, default must allow: %s", d.Reason)
	}
}

func TestScopeAnyFallback(t *testing.T) {
	st := newMemStore()
	st.roles[3] = RoleInstallation
	// запись со scope=any действует и для private, и для group
	st.entries[entryKey(RoleInstallation, "allocate", ScopeAny)] = PermissionEntry{
		Role: RoleInstallation, Command: "allocate", Scope: ScopeAny, Enabled: true,
	}
	r := NewResolver(st)

	for _, scope := range []ChatScope{ScopePrivate, ScopeGroup} {
		d, err := r.Resolve(context.Background(), 3, "allocate", scope)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if !d.Allowed {
			t.Errorf("scope=any entry must apply in %s: %s", scope, d.Reason)
		}
	}
}

func TestDefaultsByCategory(t *testing.T) {
	st := newMemStore()
	st.roles[4] = RoleService
	st.roles[5] = RoleAdmin
	r := NewResolver(st)
	ctx := context.Background()

	// админская команда закрыта для service
	d, _ := r.Resolve(ctx, 4, "assign_role", ScopePrivate)
	if d.Allowed {
		t.Fatal("service must not pass admin-only command by default")
	}
	// и открыта для admin
	d, _ = r.Resolve(ctx, 5, "assign_role", ScopePrivate)
	if !d.Allowed {
		t.Fatalf("admin must pass admin-only command: %s", d.Reason)
	}
	// общая команда открыта любой назначенной роли
	d, _ = r.Resolve(ctx, 4, "progress", ScopeGroup)
	if !d.Allowed {
		t.Fatalf("assigned role must pass general command: %s", d.Reason)
	}

	// правка объёма и список ролей — админская категория
	for _, cmd := range []string{"set_quantity", "roles"} {
		d, _ = r.Resolve(ctx, 4, cmd, ScopePrivate)
		if d.Allowed {
			t.Errorf("service must not pass %s by default", cmd)
		}
		d, _ = r.Resolve(ctx, 5, cmd, ScopePrivate)
		if !d.Allowed {
			t.Errorf("admin must pass %s: %s", cmd, d.Reason)
		}
	}
	// просмотр проблем, ТО и документов открыт любой назначенной роли
	for _, cmd := range []string{"problems", "maintenance", "docs", "resolve_problem"} {
		d, _ = r.Resolve(ctx, 4, cmd, ScopeGroup)
		if !d.Allowed {
			t.Errorf("assigned role must pass %s: %s", cmd, d.Reason)
		}
	}
}

func TestUnassignedUser(t *testing.T) {
	st := newMemStore()
	r := NewResolver(st)
	ctx := context.Background()

	// публичные команды доступны без роли
	for _, cmd := range []string{"start", "help", "cancel"} {
		d, _ := r.Resolve(ctx, 99, cmd, ScopePrivate)
		if !d.Allowed {
			t.Errorf("public command %s denied for unassigned user: %s", cmd, d.Reason)
		}
	}
	// всё остальное — нет
	for _, cmd := range []string{"balance", "allocate", "progress"} {
		d, _ := r.Resolve(ctx, 99, cmd, ScopePrivate)
		if d.Allowed {
			t.Errorf("gated command %s allowed for unassigned user", cmd)
		}
	}
}

func TestIsAdminOrHigher(t *testing.T) {
	cases := map[Role]bool{
		RoleMainAdmin:    true,
		RoleAdmin:        true,
		RoleService:      false,
		RoleInstallation: false,
		RoleNone:         false,
	}
	for role, want := range cases {
		if got := IsAdminOrHigher(role); got != want {
			t.Errorf("IsAdminOrHigher(%s) = %v, want %v", role, got, want)
		}
	}
}
