//go:build integration

package revocation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paperflow/internal/auth/revocation"
	"paperflow/pkg/testutil/containers"
)

func TestRedisRevocation(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	list := revocation.NewRedis(rc.Client)
	ctx := t.Context()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	// TTL expiry clears the key.
	require.NoError(t, list.Revoke(ctx, "jti-2", 100*time.Millisecond))
	require.Eventually(t, func() bool {
		revoked, err := list.IsRevoked(ctx, "jti-2")
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)

	// Empty jti is a no-op, never a key.
	require.NoError(t, list.Revoke(ctx, "", time.Hour))
	revoked, err = list.IsRevoked(ctx, "")
	require.NoError(t, err)
	require.False(t, revoked)
}
