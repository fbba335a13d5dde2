package access

import "context"

// Store — источник ролей и явных настроек доступа.
type Store interface {
	// RoleByUser возвращает RoleNone, если роль не назначена.
	RoleByUser(ctx context.Context, userID int64) (Role, error)
	// Entry возвращает nil, nil при отсутствии записи.
	Entry(ctx context.Context, role Role, command string, scope ChatScope) (*PermissionEntry, error)
}

// adminCommands — команды, по умолчанию доступные только админам.
var adminCommands = map[string]bool{
	"new_region":   true,
	"new_object":   true,
	"del_object":   true,
	"add_material": true,
	"add_section":  true,
	"set_quantity": true,
	"allocate":     true,
	"import_plan":  true,
	"assign_role":  true,
	"revoke_role":  true,
	"permission":   true,
	"roles":        true,
	"add_project":  true,
}

// publicCommands доступны всем, включая пользователей без роли.
var publicCommands = map[string]bool{
	"start":  true,
	"help":   true,
	"cancel": true,
}

type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver { return &Resolver{store: store} }

// Resolve решает, может ли пользователь выполнить команду в данном типе чата.
// Порядок: main_admin — всегда можно; затем явная запись (точный scope,
// потом any); затем статические дефолты по категории команды.
func (r *Resolver) Resolve(ctx context.Context, userID int64, command string, scope ChatScope) (Decision, error) {
	role, err := r.store.RoleByUser(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if role == RoleMainAdmin {
		return Allowed(), nil
	}

	entry, err := r.store.Entry(ctx, role, command, scope)
	if err != nil {
		return Decision{}, err
	}
	if entry == nil && scope != ScopeAny {
		entry, err = r.store.Entry(ctx, role, command, ScopeAny)
		if err != nil {
			return Decision{}, err
		}
	}
	if entry != nil {
		if entry.Enabled {
			return Allowed(), nil
		}
		return Denied("команда отключена для вашей роли"), nil
	}

	if publicCommands[command] {
		return Allowed(), nil
	}
	if role == RoleNone {
		return Denied("доступ появится после назначения роли"), nil
	}
	if adminCommands[command] && !IsAdminOrHigher(role) {
		return Denied("команда доступна только администраторам"), nil
	}
	return Allowed(), nil
}

// IsAdminCommand сообщает, относится ли команда к админской категории.
func IsAdminCommand(command string) bool { return adminCommands[command] }
