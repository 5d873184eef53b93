package domain

// Actor identifies the authenticated caller of an operation. Identity and
// role come from the bearer token; profile data stays with the remote
// directory service.
type Actor struct {
	UserID int64
	Admin  bool
}

// Is reports whether the actor is the given user.
func (a Actor) Is(userID int64) bool {
	return a.UserID == userID
}
