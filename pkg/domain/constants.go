package domain

const (
	// DefaultDelimiter is used by the outer surfaces when the host does not supply one.
	DefaultDelimiter = "|"

	// DefaultKey is the selector key used when the host does not supply one.
	DefaultKey = "default"

	// DirectionForward and DirectionBackward are the two ping-pong travel directions.
	DirectionForward  = 1
	DirectionBackward = -1
)

// DefaultBehavior is applied when a request leaves the behavior empty.
const DefaultBehavior = BehaviorFix
