package services

// Caller is the authenticated identity behind a request. Operations that accept
// optional authentication take a *Caller, where nil means anonymous.
type Caller struct {
	UserID uint
}

// NewCaller returns a caller for userID, or nil for the zero id.
func NewCaller(userID uint) *Caller {
	if userID == 0 {
		return nil
	}
	return &Caller{UserID: userID}
}
