package usecase

// Caller is the identity every use case runs on behalf of. It is resolved
// once at the transport edge and passed explicitly.
type Caller struct {
	ID              string
	IsAuthenticated bool
}

func NewCaller(id string) Caller {
	return Caller{ID: id, IsAuthenticated: id != ""}
}

func (c Caller) require() error {
	if !c.IsAuthenticated || c.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// canView reports whether a row with the given owner is visible: curated rows
// (no owner) are visible to everyone.
func (c Caller) canView(owner *string) bool {
	return owner == nil || *owner == c.ID
}

func (c Caller) owns(owner *string) bool {
	return owner != nil && *owner == c.ID
}

func (c Caller) ownerRef() *string {
	id := c.ID
	return &id
}
