package mixer

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Status is the playback state of a sound source.
type Status uint8

const (
	// Stopped sources are silent and rewound to the start.
	Stopped Status = iota
	// Playing sources advance every render pass.
	Playing
	// Paused sources are silent and keep their position.
	Paused
)

var statusNames = [...]string{"stopped", "playing", "paused"}

// String returns the lower-case name of the status.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownStatus, text)
}

// DistanceModel selects how distance attenuates a source.
type DistanceModel uint8

const (
	// DistanceNone disables attenuation.
	DistanceNone DistanceModel = iota
	// DistanceInverse is the clamped inverse distance model.
	DistanceInverse
	// DistanceLinear is the clamped linear distance model.
	DistanceLinear
	// DistanceExponent is the clamped exponential distance model.
	DistanceExponent
)

var distanceModelNames = [...]string{"none", "inverse", "linear", "exponent"}

func (m DistanceModel) String() string {
	if int(m) < len(distanceModelNames) {
		return distanceModelNames[m]
	}
	return fmt.Sprintf("DistanceModel(%d)", m)
}

// ParseDistanceModel converts a name such as "inverse" to a DistanceModel.
func ParseDistanceModel(name string) (DistanceModel, error) {
	var m DistanceModel
	err := m.UnmarshalText([]byte(name))
	return m, err
}

// MarshalText implements encoding.TextMarshaler.
func (m DistanceModel) MarshalText() ([]byte, error) {
	if int(m) >= len(distanceModelNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDistanceModel, m)
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DistanceModel) UnmarshalText(text []byte) error {
	for i, name := range distanceModelNames {
		if name == string(text) {
			*m = DistanceModel(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownDistanceModel, text)
}

// Renderer selects how the dry signal is placed in the stereo field.
type Renderer uint8

const (
	// RendererDefault pans by panning and spatial blend.
	RendererDefault Renderer = iota
	// RendererMono sums each source to mono and plays it centered.
	RendererMono
)

var rendererNames = [...]string{"default", "mono"}

func (r Renderer) String() string {
	if int(r) < len(rendererNames) {
		return rendererNames[r]
	}
	return fmt.Sprintf("Renderer(%d)", r)
}

// ParseRenderer converts a name such as "mono" to a Renderer.
func ParseRenderer(name string) (Renderer, error) {
	var r Renderer
	err := r.UnmarshalText([]byte(name))
	return r, err
}

// MarshalText implements encoding.TextMarshaler.
func (r Renderer) MarshalText() ([]byte, error) {
	if int(r) >= len(rendererNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRenderer, r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Renderer) UnmarshalText(text []byte) error {
	for i, name := range rendererNames {
		if name == string(text) {
			*r = Renderer(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownRenderer, text)
}

// Vec3 is a position or direction in world space.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Len returns the Euclidean length.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Listener is the point of view sources are attenuated and panned against.
type Listener struct {
	Position Vec3
	Look     Vec3
	Up       Vec3
}

// DefaultListener sits at the origin looking down -Z with +Y up.
func DefaultListener() Listener {
	return Listener{Look: Vec3{Z: -1}, Up: Vec3{Y: 1}}
}

// EarAxis returns the unit vector pointing to the listener's right ear.
func (l *Listener) EarAxis() Vec3 {
	return l.Look.Cross(l.Up).Normalize()
}
