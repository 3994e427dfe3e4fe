package validation

// ValidateUserID requires a non empty id of at most 128 characters out of [A-Za-z0-9_-].
func ValidateUserID(id string) []string {
	return collect("userId", validate.Var(id, "required,max=128,fitrank_id"))
}
