// Package access decides whether a user may use an app: free apps are open
// to everyone, paid apps require a live entitlement. Decisions are pure reads
// over the registry and the user's entitlement rows; nothing is cached.
package access

import (
	"context"
	"sort"
	"time"

	"github.com/iiskills/backend-access/config"
	"github.com/iiskills/backend-access/models"
)

// User is the snapshot an access decision runs against: an id plus the
// entitlement rows loaded for it. A nil User is an anonymous visitor.
type User struct {
	ID           string
	Entitlements []models.Entitlement
}

// EntitlementWriter is the write side of the purchase flow. It is fed by
// Registry.AppsToUnlock and kept out of the access-decision path.
type EntitlementWriter interface {
	GrantForPurchase(ctx context.Context, userID, purchasedAppID string, unlockAppIDs []string, expiresAt *time.Time, paymentTransactionID string) error
}

// Checker evaluates access against a registry.
type Checker struct {
	registry *config.Registry
	now      func() time.Time
}

// NewChecker returns a checker over the given registry.
func NewChecker(registry *config.Registry) *Checker {
	return &Checker{registry: registry, now: time.Now}
}

// UserHasAccess reports whether the user may use the app. Free apps are open
// unconditionally, anonymous users included. Paid apps require an active,
// unexpired entitlement.
func (c *Checker) UserHasAccess(u *User, appID string) bool {
	if c.registry.IsFreeApp(appID) {
		return true
	}
	if u == nil || u.ID == "" {
		return false
	}
	return liveEntitlement(u, appID, c.now()) != nil
}

// HasAccessViaBundle reports whether the user's live entitlement for the app
// came from a bundle purchase of another app. Used for messaging only, never
// for access decisions.
func (c *Checker) HasAccessViaBundle(u *User, appID string) bool {
	if u == nil {
		return false
	}
	ent := liveEntitlement(u, appID, c.now())
	return ent != nil && ent.GrantedVia == models.GrantedViaBundle
}

// BundleAccess reconstructs, for one bundle, which member was actually bought
// and which came along with it.
type BundleAccess struct {
	BundleID       string   `json:"bundle_id"`
	PurchasedAppID string   `json:"purchased_app_id,omitempty"`
	UnlockedAppIDs []string `json:"unlocked_app_ids,omitempty"`
}

// Status is the full accessible set of a user, derived fresh on every call.
type Status struct {
	FreeApps       []string       `json:"free_apps"`
	AccessibleApps []string       `json:"accessible_apps"`
	BundleAccess   []BundleAccess `json:"bundle_access"`
	TotalAccess    int            `json:"total_access"`
}

// AccessStatus computes every app the user can reach: all free apps plus
// every paid app with a live entitlement, with per-bundle purchase
// attribution.
func (c *Checker) AccessStatus(u *User) *Status {
	st := &Status{
		FreeApps: c.registry.FreeAppIDs(),
	}
	sort.Strings(st.FreeApps)

	now := c.now()
	bundles := make(map[string]*BundleAccess)
	if u != nil && u.ID != "" {
		seen := make(map[string]bool)
		for i := range u.Entitlements {
			e := &u.Entitlements[i]
			if !e.IsLive(now) || seen[e.AppID] {
				continue
			}
			seen[e.AppID] = true
			st.AccessibleApps = append(st.AccessibleApps, e.AppID)

			b := c.registry.BundleInfo(e.AppID)
			if b == nil {
				continue
			}
			ba := bundles[b.ID]
			if ba == nil {
				ba = &BundleAccess{BundleID: b.ID}
				bundles[b.ID] = ba
			}
			switch e.GrantedVia {
			case models.GrantedViaPayment:
				ba.PurchasedAppID = e.AppID
			case models.GrantedViaBundle:
				ba.UnlockedAppIDs = append(ba.UnlockedAppIDs, e.AppID)
			}
		}
	}
	sort.Strings(st.AccessibleApps)

	for _, ba := range bundles {
		sort.Strings(ba.UnlockedAppIDs)
		st.BundleAccess = append(st.BundleAccess, *ba)
	}
	sort.Slice(st.BundleAccess, func(i, j int) bool {
		return st.BundleAccess[i].BundleID < st.BundleAccess[j].BundleID
	})

	st.TotalAccess = len(st.FreeApps) + len(st.AccessibleApps)
	return st
}

// liveEntitlement returns the first active, unexpired entitlement of the user
// for the app, nil when none qualifies.
func liveEntitlement(u *User, appID string, now time.Time) *models.Entitlement {
	for i := range u.Entitlements {
		e := &u.Entitlements[i]
		if e.AppID == appID && e.IsLive(now) {
			return e
		}
	}
	return nil
}
