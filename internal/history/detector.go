package history

import "context"

// Detector is a single-property change rule. Implementations are stateless:
// both snapshots are passed explicitly and no comparison state survives the
// call, so one detector instance can be shared freely.
type Detector interface {
	// Detect reports whether the property it watches differs between the
	// two snapshots, and if so describes the change.
	Detect(ctx context.Context, prev, curr Snapshot) (Change, bool)
}

// OperatorResolver resolves operator ids to display names for change
// descriptions. It is consulted only while rendering, never for detection.
type OperatorResolver interface {
	OperatorName(ctx context.Context, id string) string
}
