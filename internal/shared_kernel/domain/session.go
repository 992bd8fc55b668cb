package domain

// TokenPair holds the bearer credentials of a signed-in user.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (p TokenPair) IsComplete() bool {
	return p.Access != "" && p.Refresh != ""
}

// Resource is any server-owned record addressable by id.
type Resource interface {
	ResourceID() ID
}
