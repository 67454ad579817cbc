package mtc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRotatesToken(t *testing.T) {
	stub := newMTCStub(t)
	c := stub.client(t)

	assert.False(t, c.Authenticated())

	err := c.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, stubRotatedToken, c.csrfToken)
	assert.NotEqual(t, bootstrapCSRFToken, c.csrfToken)
	assert.Equal(t, "mv-test-1", c.moduleVersion)
	assert.True(t, c.Authenticated())
}

func TestLoginBadCredentialsKeepsBootstrapToken(t *testing.T) {
	stub := newMTCStub(t)
	stub.loginOK = false
	c := stub.client(t)

	err := c.Login(context.Background())
	require.ErrorIs(t, err, ErrAuthentication)
	assert.Contains(t, err.Error(), "Invalid credentials")

	assert.Equal(t, bootstrapCSRFToken, c.csrfToken)
	assert.False(t, c.Authenticated())
}

func TestEstablishSessionMissingCookies(t *testing.T) {
	stub := newMTCStub(t)
	stub.setCookies = false
	c := stub.client(t)

	err := c.EstablishSession(context.Background())
	require.ErrorIs(t, err, ErrSession)
}

func TestEstablishSessionMissingVersionToken(t *testing.T) {
	stub := newMTCStub(t)
	stub.versionToken = ""
	c := stub.client(t)

	err := c.EstablishSession(context.Background())
	require.ErrorIs(t, err, ErrSession)
}

func TestEstablishSessionPrimesCookiesAndVersion(t *testing.T) {
	stub := newMTCStub(t)
	c := stub.client(t)

	err := c.EstablishSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "visit-1", c.cookie("osVisit"))
	assert.Equal(t, "visitor-1", c.cookie("osVisitor"))
	assert.Equal(t, "mv-test-1", c.moduleVersion)
	// Still only session-primed, not authenticated.
	assert.False(t, c.Authenticated())
}
