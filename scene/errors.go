package scene

import "errors"

// Persistence errors.
var (
	// ErrUnsupportedVersion indicates a document from a newer format.
	ErrUnsupportedVersion = errors.New("unsupported document version")

	// ErrUnknownEffectKind indicates an effect entry whose kind has no variant.
	ErrUnknownEffectKind = errors.New("unknown effect kind")

	// ErrDuplicateEffectName indicates two effects sharing a name.
	ErrDuplicateEffectName = errors.New("duplicate effect name")
)
