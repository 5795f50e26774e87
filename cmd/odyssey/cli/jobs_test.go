package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerRejectsUnknownJob(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewJobsCLI(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Trigger(context.Background(), "analytics:warmup", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported job")
}

func TestNilCLIIsNotConfigured(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "drafts:purge", 0)
	assert.EqualError(t, err, "jobs cli: client not configured")

	_, err = c.InspectQueue(context.Background())
	assert.EqualError(t, err, "jobs cli: inspector not configured")
}
