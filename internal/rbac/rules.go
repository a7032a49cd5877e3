package rbac

const (
	RoleGuest = "guest" // unregistered, created by POST /auth/guest
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Default policy. Guests may practice and keep stats but cannot change a
// password they do not have.
var RolePermissions = map[string][]string{
	RoleGuest: {
		"exam:view",
		"stats:record",
		"stats:view-own",
	},
	RoleUser: {
		"exam:view",
		"stats:record",
		"stats:view-own",
		"user:change_password",
	},
	RoleAdmin: {
		"*", // everything, including exam:import, exam:hide, exam:view-hidden, stats:reset, users:create, image:upload, events:view
	},
}

// RoleFor maps the stored user flags to a policy role.
func RoleFor(admin, registered bool) string {
	switch {
	case admin:
		return RoleAdmin
	case registered:
		return RoleUser
	}
	return RoleGuest
}
