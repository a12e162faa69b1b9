package scene

import "github.com/google/uuid"

// Resource identifies the document a SoundContext was instantiated from.
type Resource struct {
	Path string    `yaml:"path"`
	ID   uuid.UUID `yaml:"id"`
}

// NewResource returns a resource for path with a fresh identity.
func NewResource(path string) *Resource {
	return &Resource{Path: path, ID: uuid.New()}
}
