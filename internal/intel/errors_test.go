package intel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsDegradable(t *testing.T) {
	t.Parallel()

	require.True(t, IsDegradable(ErrRemoteUnavailable))
	require.True(t, IsDegradable(fmt.Errorf("fetch volumes: %w", ErrRemoteUnavailable)))
	require.True(t, IsDegradable(&RemoteError{Code: 40501, Message: "invalid location"}))
	require.True(t, IsDegradable(&TransportError{Err: errors.New("dial tcp: timeout")}))
	require.True(t, IsDegradable(&MalformedResponseError{Missing: "tasks[0].result"}))
	require.False(t, IsDegradable(nil))
	require.False(t, IsDegradable(errors.New("domain is required")))
}

func TestLocaleName(t *testing.T) {
	t.Parallel()

	loc := Locale{City: "Gilbert", Region: "Arizona", Country: "United States"}
	require.Equal(t, "Gilbert,Arizona,United States", loc.Name())

	require.Equal(t, "Smalltown", Locale{City: "Smalltown"}.Name())
	require.Equal(t, "Gilbert,Arizona,United States", Locale{City: "Gilbert", Region: "Arizona"}.Name())
}
