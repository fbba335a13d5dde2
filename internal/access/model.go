package access

type Role string

const (
	RoleMainAdmin    Role = "main_admin"
	RoleAdmin        Role = "admin"
	RoleService      Role = "service"
	RoleInstallation Role = "installation"
	RoleNone         Role = "none"
)

// ParseRole возвращает роль по строке, RoleNone для неизвестных значений.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleMainAdmin, RoleAdmin, RoleService, RoleInstallation:
		return Role(s)
	}
	return RoleNone
}

// IsAdminOrHigher: main_admin > admin > {service, installation}.
// Сервис и монтаж — одноуровневые роли, ни одна не «выше» другой.
func IsAdminOrHigher(r Role) bool {
	return r == RoleAdmin || r == RoleMainAdmin
}

type ChatScope string

const (
	ScopePrivate ChatScope = "private"
	ScopeGroup   ChatScope = "group"
	ScopeAny     ChatScope = "any"
)

// PermissionEntry — явная настройка доступа. Для (role, command, scope)
// существует не более одной записи; её отсутствие означает дефолт.
type PermissionEntry struct {
	Role    Role
	Command string
	Scope   ChatScope
	Enabled bool
}

type Decision struct {
	Allowed bool
	Reason  string
}

func Allowed() Decision { return Decision{Allowed: true} }

func Denied(reason string) Decision { return Decision{Allowed: false, Reason: reason} }
