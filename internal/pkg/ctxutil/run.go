package ctxutil

import "context"

type runDataKey struct{}

// RunData identifies one CLI invocation or import run across the logs and
// spans it produces.
type RunData struct {
	RunID   string
	Command string
}

func WithRunData(ctx context.Context, rd *RunData) context.Context {
	return context.WithValue(Default(ctx), runDataKey{}, rd)
}

func GetRunData(ctx context.Context) *RunData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(runDataKey{}).(*RunData); ok {
		return rd
	}
	return nil
}

// RunID returns the run id carried by ctx, or "".
func RunID(ctx context.Context) string {
	if rd := GetRunData(ctx); rd != nil {
		return rd.RunID
	}
	return ""
}
