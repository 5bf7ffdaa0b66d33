package ctxutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunData(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	assert.Nil(t, GetRunData(nil))

	ctx := WithRunData(context.Background(), &RunData{RunID: "r-1", Command: "import"})
	assert.Equal(t, "r-1", RunID(ctx))
	assert.Equal(t, "import", GetRunData(ctx).Command)
}
