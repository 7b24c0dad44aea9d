package store

// RequireOwner is the only ownership check used by mutating operations.
func RequireOwner(actor, owner uint) error {
	if actor == 0 || actor != owner {
		return ForbiddenError("not the owner of this resource")
	}
	return nil
}
