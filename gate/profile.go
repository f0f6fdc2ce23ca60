package gate

import "context"

// Profile represents a role with a set of permission codes.
type Profile interface {
	ID() uint
	Name() string
	// Bypass reports whether this profile grants every permission without
	// a set lookup (the "superadmin" case).
	Bypass() bool
	HasPermission(code Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a user to their profile.
// U is the user type (e.g., uint for userID, *Claims for token claims).
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticProfile is a simple in-memory profile implementation.
// Useful for testing or static configuration.
type StaticProfile struct {
	id          uint
	name        string
	bypass      bool
	permissions map[Permission]bool
}

// NewStaticProfile creates a profile with the given permission codes.
func NewStaticProfile(id uint, name string, codes ...Permission) *StaticProfile {
	p := &StaticProfile{
		id:          id,
		name:        name,
		permissions: make(map[Permission]bool),
	}
	for _, code := range codes {
		p.permissions[code] = true
	}
	return p
}

// NewBypassProfile creates a profile that is authorized for everything.
func NewBypassProfile(id uint, name string) *StaticProfile {
	return &StaticProfile{id: id, name: name, bypass: true, permissions: make(map[Permission]bool)}
}

func (p *StaticProfile) ID() uint     { return p.id }
func (p *StaticProfile) Name() string { return p.name }
func (p *StaticProfile) Bypass() bool { return p.bypass }

// HasPermission checks if the profile carries the requested code.
func (p *StaticProfile) HasPermission(code Permission) bool {
	return p.permissions[code]
}

// Permissions returns all permission codes in this profile.
func (p *StaticProfile) Permissions() []Permission {
	codes := make([]Permission, 0, len(p.permissions))
	for code := range p.permissions {
		codes = append(codes, code)
	}
	return codes
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

// NewStaticResolver creates a resolver with predefined user-profile mappings.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.profiles[user] = profile
}

// Resolve returns the profile for the given user.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	if profile, ok := r.profiles[user]; ok {
		return profile, nil
	}
	return nil, nil
}
