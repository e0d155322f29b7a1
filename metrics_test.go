package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-session"
)

func TestMetrics_RecordSplitsEventType(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	m := auth.NewMetrics(reg)
	ctx := context.Background()

	for _, et := range []auth.ActivityEventType{
		auth.ActivityEventLoginFailure,
		auth.ActivityEventLoginFailure,
		auth.ActivityEventLoginSuccess,
		auth.ActivityEventLogout,
	} {
		require.NoError(t, m.Record(ctx, auth.ActivityEvent{EventType: et}))
	}

	count, err := testutil.GatherAndCount(reg, "auth_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *auth.Metrics
	assert.NoError(t, m.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLogout}))
}

func TestMetrics_NilRegistererSkipsRegistration(t *testing.T) {
	assert.NotPanics(t, func() {
		auth.NewMetrics(nil)
		auth.NewMetrics(nil)
	})
}

func TestMetrics_IssuerCountsTokensAndOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := auth.NewMetrics(reg)
	recorder := &activityRecorder{}
	issuer, _ := newTestIssuer(t, testConfig(), auth.WithIssuerMetrics(metrics), auth.WithActivitySink(recorder))
	ctx := context.Background()

	_, pair, err := issuer.Register(ctx, auth.Credentials{Email: "a@b.com", Password: "Passw0rd"})
	require.NoError(t, err)
	_, _, err = issuer.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, _, err = issuer.Login(ctx, auth.Credentials{Email: "a@b.com", Password: "Wrong0000"})
	require.Error(t, err)

	expected := `
# HELP auth_tokens_issued_total Session tokens signed, by kind.
# TYPE auth_tokens_issued_total counter
auth_tokens_issued_total{kind="access"} 2
auth_tokens_issued_total{kind="refresh"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "auth_tokens_issued_total"))

	expected = `
# HELP auth_operations_total Session operations, by operation and result.
# TYPE auth_operations_total counter
auth_operations_total{op="login",result="failure"} 1
auth_operations_total{op="refresh",result="success"} 1
auth_operations_total{op="register",result="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "auth_operations_total"))

	// the configured sink still sees every event
	assert.Equal(t, []auth.ActivityEventType{
		auth.ActivityEventRegisterSuccess,
		auth.ActivityEventRefreshSuccess,
		auth.ActivityEventLoginFailure,
	}, recorder.Types())
}
