package admin

// Principal is the authenticated identity attached to a request, set by the
// auth middleware. Immutable snapshot; never persisted.
type Principal struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
	Staff     bool   `json:"staff"`
	Superuser bool   `json:"superuser"`
}
