package domain

import "strconv"

// Principal identifies the authenticated requester of an operation. It is
// passed explicitly into every coordinator call instead of being pulled
// from ambient request state.
type Principal struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// Guest is the principal used for unauthenticated customer requests.
func Guest() Principal {
	return Principal{Role: "guest"}
}

// Actor renders the principal for audit rows.
func (p Principal) Actor() string {
	if p.UserID == 0 {
		if p.Role == "" {
			return "guest"
		}
		return p.Role
	}
	return p.Role + ":" + strconv.FormatInt(p.UserID, 10)
}
