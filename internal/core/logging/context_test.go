package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithIssue(t *testing.T) {
	ctx := WithIssue(context.Background(), 42)

	n, ok := GetIssue(ctx)
	assert.True(t, ok)
	assert.Equal(t, 42, n)
}

func TestWithMilestone(t *testing.T) {
	ctx := WithMilestone(context.Background(), "release-1")
	assert.Equal(t, "release-1", GetMilestone(ctx))
}

func TestGetters_NotPresent(t *testing.T) {
	ctx := context.Background()

	_, ok := GetIssue(ctx)
	assert.False(t, ok)
	assert.Empty(t, GetMilestone(ctx))
}
