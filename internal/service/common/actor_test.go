//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectOperator ensures user and hostname are detected and non-empty.
func TestDetectOperator(t *testing.T) {
	t.Parallel()

	operator, err := DetectOperator()
	require.NoError(t, err)

	username, hostname, ok := strings.Cut(operator, "@")
	require.True(t, ok)
	require.NotEmpty(t, username)
	require.NotEmpty(t, hostname)
}
