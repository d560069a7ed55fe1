// ABOUTME: Tests for principal context propagation
// ABOUTME: Covers WithPrincipal/FromContext/MustFromContext behavior

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_RoundTrip(t *testing.T) {
	p := &Principal{UserID: "alice", Username: "Alice"}
	ctx := WithPrincipal(context.Background(), p)

	got := FromContext(ctx)
	require.NotNil(t, got)
	assert.Equal(t, p, got)
}

func TestFromContext_Absent(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}

func TestMustFromContext_PanicsWhenAbsent(t *testing.T) {
	assert.Panics(t, func() {
		MustFromContext(context.Background())
	})
}
