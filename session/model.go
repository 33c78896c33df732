package session

// Snapshot is the persisted form of the last identity the provider pushed.
// Method carries the numeric sign-in method of the root package; this
// package does not interpret it.
type Snapshot struct {
	UserID        string
	DisplayName   string
	Email         string
	PhoneNumber   string
	AvatarURL     string
	EmailVerified bool
	Method        uint8
	Provider      string

	// UpdatedAt is the unix time the snapshot was written.
	UpdatedAt int64
}
