package enums

// ActorRole identifies who is acting on an order or listening for events.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleStaff    ActorRole = "staff"
	RoleAdmin    ActorRole = "admin"
)

// String implements fmt.Stringer.
func (a ActorRole) String() string {
	return string(a)
}

// IsStaff reports whether the role may operate staff endpoints and sees all events.
func (a ActorRole) IsStaff() bool {
	return a == RoleStaff || a == RoleAdmin
}
