package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_TenantSeesOwnAndGlobal(t *testing.T) {
	scope := TenantScope("acme")

	assert.True(t, scope.Allows(&Document{TenantID: "acme"}))
	assert.True(t, scope.Allows(&Document{TenantID: ""}))
	assert.False(t, scope.Allows(&Document{TenantID: "globex"}))
}

func TestScope_GlobalSeesOnlyGlobal(t *testing.T) {
	scope := GlobalScope()

	assert.True(t, scope.IsGlobal())
	assert.True(t, scope.Allows(&Document{TenantID: ""}))
	assert.False(t, scope.Allows(&Document{TenantID: "acme"}))
}

func TestScopeOf(t *testing.T) {
	assert.True(t, ScopeOf(&Document{}).IsGlobal())
	assert.Equal(t, "acme", ScopeOf(&Document{TenantID: "acme"}).TenantID)
}

func TestScope_String(t *testing.T) {
	assert.Equal(t, "global", GlobalScope().String())
	assert.Equal(t, "tenant:acme", TenantScope("acme").String())
}
