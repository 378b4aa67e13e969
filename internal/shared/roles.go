package shared

// Profile roles stored in profiles.role.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Landing paths per role.
const (
	PathAdminDashboard    = "/admin"
	PathCustomerDashboard = "/dashboard"
	PathLogin             = "/auth/login"
)

// HomePathForRole returns the dashboard a signed-in profile lands on.
func HomePathForRole(role string) string {
	if role == RoleAdmin {
		return PathAdminDashboard
	}
	return PathCustomerDashboard
}
