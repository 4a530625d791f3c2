// Package chat contains the core concepts of the messaging system.
// Types here carry no runtime, storage or network logic.
package chat

// Identity is the opaque, stable identifier of a user.
type Identity string

func (i Identity) String() string { return string(i) }

// Profile is the display identity of a user as resolved by the directory.
type Profile struct {
	ID          Identity
	DisplayName string
	Avatar      string
	Affiliation string
}
