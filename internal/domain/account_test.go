package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccountValidation(t *testing.T) {
	_, err := NewAccount("", "proxy.test", 5060)
	assert.ErrorIs(t, err, ErrAccountEmpty)

	_, err = NewAccount(strings.Repeat("x", MaxAccountLen+1), "proxy.test", 5060)
	assert.ErrorIs(t, err, ErrAccountTooLong)

	a, err := NewAccount("7001", "proxy.test", 5060)
	require.NoError(t, err)
	assert.Equal(t, "7001", a.Username)
	assert.Equal(t, "7001", a.Secret)
	assert.Equal(t, "Test 7001", a.DisplayName)
}

func TestAccountURIs(t *testing.T) {
	a, err := NewAccount("7001", "proxy.test", 5060)
	require.NoError(t, err)
	assert.Equal(t, "sip:7001@proxy.test", a.URI())
	assert.Equal(t, "sip:proxy.test:5060", a.ProxyURI())
}

func TestDialURI(t *testing.T) {
	a, err := NewAccount("7001", "proxy.test", 5060)
	require.NoError(t, err)
	assert.Equal(t, "sip:7002@proxy.test:5060", a.DialURI("7002"))
	assert.Equal(t, "sip:bob@elsewhere.example", a.DialURI("sip:bob@elsewhere.example"))
}
