package model

// User is the authenticated principal as returned by the identity API.
// ID is the durable identity; every other field is display data and may
// be stale relative to the backend.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
	City      string `json:"city"`
	Birthdate string `json:"birthdate"`
}

// UserPatch carries the profile fields a user may edit. Nil fields are
// left untouched. The id is deliberately not patchable.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	City      *string
	Birthdate *string
}

// Apply copies the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.Birthdate != nil {
		u.Birthdate = *p.Birthdate
	}
}
