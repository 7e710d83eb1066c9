package application

// CanAct reports whether the principal may act on a resource owned by
// ownerID. It is the single authorization rule for every owner-scoped
// operation: the owner itself or an administrator.
//
// Callers must confirm the target resource exists before consulting CanAct
// so that not-found and unauthorized outcomes stay distinguishable.
func CanAct(principal Principal, ownerID string) bool {
	if principal.Role == RoleAdmin {
		return true
	}
	return principal.UserID != "" && principal.UserID == ownerID
}
