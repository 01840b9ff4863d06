package model

import "strconv"

// NoMaintenanceReason is the sentinel for a tenant without a maintenance reason
const NoMaintenanceReason int64 = -1

// UnlimitedQuota is the sentinel for a tenant without a quota ceiling
const UnlimitedQuota int64 = -1

// Tenant represents one multi-tenancy context with its directory metadata,
// shard assignment, aliases, quota usage and namespaced attributes.
// Instances are built up by the load pipeline and treated as immutable
// snapshots once a pipeline run returns them.
type Tenant struct {
	ID                  int64
	Name                string
	Enabled             bool
	MaintenanceReasonID int64
	FilestoreID         int64
	FilestoreName       string
	QuotaMaxBytes       int64
	QuotaUsedBytes      int64
	ReadShard           SchemaRef
	WriteShard          SchemaRef
	LoginAliases        []string
	Attributes          map[string]map[string]string
}

// NewTenant creates an empty tenant record for the given id.
// The display name defaults to the stringified id until the directory
// provides one.
func NewTenant(id int64) *Tenant {
	return &Tenant{
		ID:                  id,
		Name:                strconv.FormatInt(id, 10),
		MaintenanceReasonID: NoMaintenanceReason,
		QuotaMaxBytes:       UnlimitedQuota,
	}
}

// CanonicalName returns the tenant id rendered as its canonical login string.
func (t *Tenant) CanonicalName() string {
	return strconv.FormatInt(t.ID, 10)
}

// AddLoginAlias attaches a login alias to the tenant. The tenant's own
// canonical id string is never stored as an alias even if the directory
// returned such a row; legacy data contains them.
func (t *Tenant) AddLoginAlias(alias string) {
	if alias == "" || alias == t.CanonicalName() {
		return
	}
	for _, existing := range t.LoginAliases {
		if existing == alias {
			return
		}
	}
	t.LoginAliases = append(t.LoginAliases, alias)
}

// SetAttribute stores a namespaced attribute value on the tenant.
func (t *Tenant) SetAttribute(namespace, key, value string) {
	if t.Attributes == nil {
		t.Attributes = make(map[string]map[string]string)
	}
	ns, ok := t.Attributes[namespace]
	if !ok {
		ns = make(map[string]string)
		t.Attributes[namespace] = ns
	}
	ns[key] = value
}
