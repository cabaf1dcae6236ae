package history

import "context"

type committerKey struct{}

// ContextWithCommitter stores the acting committer on the request context.
func ContextWithCommitter(ctx context.Context, c Committer) context.Context {
	return context.WithValue(ctx, committerKey{}, c)
}

// CommitterFromContext returns the acting committer. When no committer was
// attached the zero value is returned with the guest role, which is the
// least-privileged attribution.
func CommitterFromContext(ctx context.Context) Committer {
	if c, ok := ctx.Value(committerKey{}).(Committer); ok {
		return c
	}
	return Committer{Role: RoleGuest}
}

// ParseRole validates a role name; unknown names degrade to guest.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleGuest, RoleAdmin, RoleOperator, RoleSchedule:
		return Role(s)
	default:
		return RoleGuest
	}
}
