package domain

// Roles globales del sistema. La emisión de credenciales es externa; el core
// solo recibe actor_id y actor_role y confía en ellos.
const (
	RoleOperator   = "operator"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// roleHierarchy jerarquía de roles: un rol superior incluye a los inferiores.
var roleHierarchy = map[string]int{
	RoleOperator:   0,
	RoleSupervisor: 1,
	RoleAdmin:      2,
}

// RoleAtLeast indica si role alcanza el nivel de required.
// Roles desconocidos nunca alcanzan ningún nivel.
func RoleAtLeast(role, required string) bool {
	current, ok := roleHierarchy[role]
	if !ok {
		return false
	}
	min, ok := roleHierarchy[required]
	if !ok {
		return false
	}
	return current >= min
}
