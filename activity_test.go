package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-auth-session"
)

func TestMultiActivitySink(t *testing.T) {
	first := &activityRecorder{}
	second := &activityRecorder{}
	boom := errors.New("sink down")

	sink := auth.MultiActivitySink{
		first,
		nil,
		auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error { return boom }),
		second,
	}

	err := sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLogout})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventLogout}, first.Types())
	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventLogout}, second.Types())
}

func TestSessionIssuer_SinkFailureDoesNotFailOperation(t *testing.T) {
	logger := quietLogger()
	sink := auth.ActivitySinkFunc(func(context.Context, auth.ActivityEvent) error {
		return errors.New("sink down")
	})

	issuer, err := auth.NewSessionIssuer(testConfig(), auth.NewMemoryUserStore(),
		auth.WithIssuerLogger(logger),
		auth.WithActivitySink(sink),
	)
	require.NoError(t, err)

	_, _, err = issuer.Register(context.Background(), auth.Credentials{Email: "a@b.com", Password: "Passw0rd"})
	require.NoError(t, err)
	logger.AssertCalled(t, "Warn", "activity sink record failed", mock.Anything)
}
