package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTenant_Defaults(t *testing.T) {
	tenant := NewTenant(1337)

	assert.Equal(t, int64(1337), tenant.ID)
	assert.Equal(t, "1337", tenant.Name)
	assert.Equal(t, NoMaintenanceReason, tenant.MaintenanceReasonID)
	assert.Equal(t, UnlimitedQuota, tenant.QuotaMaxBytes)
	assert.Empty(t, tenant.LoginAliases)
}

func TestAddLoginAlias_ExcludesCanonicalID(t *testing.T) {
	tenant := NewTenant(42)

	tenant.AddLoginAlias("acme")
	tenant.AddLoginAlias("42") // canonical id string from a legacy row
	tenant.AddLoginAlias("acme.example")

	assert.Equal(t, []string{"acme", "acme.example"}, tenant.LoginAliases)
}

func TestAddLoginAlias_Deduplicates(t *testing.T) {
	tenant := NewTenant(42)

	tenant.AddLoginAlias("acme")
	tenant.AddLoginAlias("acme")
	tenant.AddLoginAlias("")

	assert.Equal(t, []string{"acme"}, tenant.LoginAliases)
}

func TestSetAttribute(t *testing.T) {
	tenant := NewTenant(42)

	tenant.SetAttribute("ui", "theme", "dark")
	tenant.SetAttribute("ui", "lang", "de")
	tenant.SetAttribute("billing", "plan", "pro")

	assert.Equal(t, "dark", tenant.Attributes["ui"]["theme"])
	assert.Equal(t, "de", tenant.Attributes["ui"]["lang"])
	assert.Equal(t, "pro", tenant.Attributes["billing"]["plan"])
}

func TestParseAttributeName(t *testing.T) {
	namespace, key, err := ParseAttributeName("ui/theme")

	assert.NoError(t, err)
	assert.Equal(t, "ui", namespace)
	assert.Equal(t, "theme", key)
}

func TestParseAttributeName_Malformed(t *testing.T) {
	_, _, err := ParseAttributeName("theme")

	var malformed *MalformedAttributeNameError
	assert.ErrorAs(t, err, &malformed)
	assert.Equal(t, "theme", malformed.Name)
}

func TestIsDynamicAttributeName(t *testing.T) {
	assert.True(t, IsDynamicAttributeName("ui/theme"))
	assert.True(t, IsDynamicAttributeName("a/b/c"))
	assert.False(t, IsDynamicAttributeName("theme"))
}
