package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogTiers(t *testing.T) {
	r := Default()

	assert.True(t, r.IsFreeApp("learn-physics"))
	assert.False(t, r.RequiresPayment("learn-physics"))

	assert.False(t, r.IsFreeApp("learn-ai"))
	assert.True(t, r.RequiresPayment("learn-ai"))
}

func TestUnknownAppFailsClosed(t *testing.T) {
	r := Default()

	assert.True(t, r.RequiresPayment("nonexistent-app"))
	assert.False(t, r.IsFreeApp("nonexistent-app"))
	assert.False(t, r.IsBundleApp("nonexistent-app"))
	assert.Nil(t, r.BundleInfo("nonexistent-app"))
}

func TestBundleSymmetry(t *testing.T) {
	r := Default()
	members := []string{"learn-ai", "learn-pr", "learn-datascience"}

	first := r.BundleInfo(members[0])
	require.NotNil(t, first)
	for _, id := range members {
		assert.True(t, r.IsBundleApp(id))
		// Every member resolves to the same Bundle object.
		assert.Same(t, first, r.BundleInfo(id))
		assert.ElementsMatch(t, members, r.AppsToUnlock(id))
	}
}

func TestAppsToUnlockStandalone(t *testing.T) {
	r := Default()

	assert.Equal(t, []string{"learn-management"}, r.AppsToUnlock("learn-management"))
	assert.Equal(t, []string{"learn-physics"}, r.AppsToUnlock("learn-physics"))
	assert.Equal(t, []string{"no-such-app"}, r.AppsToUnlock("no-such-app"))
}

func TestFreeAndPaidAppIDs(t *testing.T) {
	r := Default()

	free := r.FreeAppIDs()
	paid := r.PaidAppIDs()
	assert.Contains(t, free, "learn-aptitude")
	assert.NotContains(t, free, "learn-ai")
	assert.Contains(t, paid, "learn-ai")
	assert.NotContains(t, paid, "learn-aptitude")
}

func TestNewRegistryValidation(t *testing.T) {
	bundle := &Bundle{ID: "b1", Name: "Bundle", MemberAppIDs: []string{"a1", "a2"}}

	tests := []struct {
		name    string
		apps    []*App
		bundles []*Bundle
	}{
		{
			"free app with price",
			[]*App{{ID: "a1", Tier: TierFree, Price: &Price{Amount: 10, Currency: "INR"}}},
			nil,
		},
		{
			"free app in bundle",
			[]*App{
				{ID: "a1", Tier: TierFree, BundleID: "b1"},
				{ID: "a2", Tier: TierPaid, BundleID: "b1"},
			},
			[]*Bundle{bundle},
		},
		{
			"bundle with one member",
			[]*App{{ID: "a1", Tier: TierPaid, BundleID: "solo"}},
			[]*Bundle{{ID: "solo", MemberAppIDs: []string{"a1"}}},
		},
		{
			"member without back reference",
			[]*App{
				{ID: "a1", Tier: TierPaid, BundleID: "b1"},
				{ID: "a2", Tier: TierPaid},
			},
			[]*Bundle{bundle},
		},
		{
			"bundle lists unknown app",
			[]*App{{ID: "a1", Tier: TierPaid, BundleID: "b1"}},
			[]*Bundle{bundle},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.apps, tt.bundles)
			assert.Error(t, err)
		})
	}
}
