package auth

const (
	RoleSuperAdmin     = "super_admin"
	RoleDealerAdmin    = "dealer_admin"
	RoleServiceManager = "service_manager"
	RoleTechnician     = "technician"
)

// AdminRoles may approve requisitions and change stock.
var AdminRoles = []string{RoleSuperAdmin, RoleDealerAdmin, RoleServiceManager}

// WorkshopRoles may read workshop data and raise requisitions.
var WorkshopRoles = []string{RoleSuperAdmin, RoleDealerAdmin, RoleServiceManager, RoleTechnician}

func HasRole(role string, allowed ...string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
