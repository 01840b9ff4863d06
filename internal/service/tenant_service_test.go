package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/shardkeeper/shardkeeper/internal/model"
	"github.com/shardkeeper/shardkeeper/internal/store"
)

func newTestTenantService(directory *MockDirectoryStore, schemas *MockSchemaStore) *TenantService {
	logger := zap.NewNop()
	pipeline := NewPipeline(directory, schemas, false, 4, 0, nil, logger)
	cache := store.NewInMemoryTenantCache(100, logger)
	return NewTenantService(directory, pipeline, cache, time.Minute, nil, logger)
}

func TestGetTenant_CachesAssembledRecord(t *testing.T) {
	directory := new(MockDirectoryStore)
	schemas := new(MockSchemaStore)

	directory.On("LoadTenants", mock.Anything, "site-a", []int64{7}).
		Return([]*model.Tenant{baseTenant(7, 1, "tenant_db_1_1", 10)}, nil).Once()
	noAliases(directory)
	noUsage(schemas)
	noAttributes(schemas)

	svc := newTestTenantService(directory, schemas)

	first, err := svc.GetTenant(context.Background(), "site-a", 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), first.ID)

	// Second lookup is served from the cache; the pipeline runs once.
	second, err := svc.GetTenant(context.Background(), "site-a", 7)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), second.ID)
	directory.AssertNumberOfCalls(t, "LoadTenants", 1)
}

func TestGetTenant_NotFound(t *testing.T) {
	directory := new(MockDirectoryStore)
	schemas := new(MockSchemaStore)

	directory.On("LoadTenants", mock.Anything, "site-a", []int64{404}).
		Return([]*model.Tenant{}, nil)
	noAliases(directory)

	svc := newTestTenantService(directory, schemas)

	tenant, err := svc.GetTenant(context.Background(), "site-a", 404)
	assert.Nil(t, tenant)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadTenants_RefreshesCache(t *testing.T) {
	directory := new(MockDirectoryStore)
	schemas := new(MockSchemaStore)

	directory.On("LoadTenants", mock.Anything, "site-a", []int64{1, 2}).
		Return([]*model.Tenant{
			baseTenant(1, 1, "tenant_db_1_1", 10),
			baseTenant(2, 1, "tenant_db_1_1", 10),
		}, nil).Once()
	noAliases(directory)
	noUsage(schemas)
	noAttributes(schemas)

	svc := newTestTenantService(directory, schemas)

	tenants, err := svc.LoadTenants(context.Background(), "site-a", []int64{1, 2})
	assert.NoError(t, err)
	assert.Len(t, tenants, 2)

	// Both records now come from the cache.
	for _, id := range []int64{1, 2} {
		tenant, err := svc.GetTenant(context.Background(), "site-a", id)
		assert.NoError(t, err)
		assert.Equal(t, id, tenant.ID)
	}
	directory.AssertNumberOfCalls(t, "LoadTenants", 1)
}

func TestProvisionTenant(t *testing.T) {
	directory := new(MockDirectoryStore)
	schemas := new(MockSchemaStore)

	tenant := model.NewTenant(99)
	tenant.Name = "acme"
	tenant.Enabled = true

	directory.On("RegisterTenant", mock.Anything, "site-a", tenant).Return(nil)
	directory.On("RegisterLoginAlias", mock.Anything, "site-a", int64(99), "acme").Return(nil)
	directory.On("RegisterLoginAlias", mock.Anything, "site-a", int64(99), "acme.example").Return(nil)

	svc := newTestTenantService(directory, schemas)

	err := svc.ProvisionTenant(context.Background(), "site-a", tenant, []string{"acme", "acme.example"})
	assert.NoError(t, err)
	directory.AssertExpectations(t)
}

func TestProvisionTenant_InvalidID(t *testing.T) {
	directory := new(MockDirectoryStore)
	schemas := new(MockSchemaStore)

	svc := newTestTenantService(directory, schemas)

	err := svc.ProvisionTenant(context.Background(), "site-a", model.NewTenant(0), nil)
	assert.Error(t, err)
	directory.AssertNotCalled(t, "RegisterTenant", mock.Anything, mock.Anything, mock.Anything)
}
