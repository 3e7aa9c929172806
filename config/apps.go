package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// AccessTier tells whether an app is open to everyone or gated by purchase.
type AccessTier string

const (
	TierFree AccessTier = "free"
	TierPaid AccessTier = "paid"
)

// Price is a monetary amount in whole rupees.
type Price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// App describes one application of the platform. The catalog is immutable
// after process start.
type App struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Tier     AccessTier `json:"tier"`
	BundleID string     `json:"bundle_id,omitempty"`
	// Price is nil for free apps and for paid apps priced only via their bundle.
	Price *Price `json:"price,omitempty"`
}

// Bundle groups paid apps that unlock together from a single purchase.
type Bundle struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MemberAppIDs []string `json:"member_app_ids"`
	IntroPrice   Price    `json:"intro_price"`
	RegularPrice Price    `json:"regular_price"`
}

// Registry holds the app catalog, read-only after NewRegistry.
type Registry struct {
	apps    map[string]*App
	bundles map[string]*Bundle
}

// NewRegistry builds a registry and validates catalog invariants: free apps
// carry no bundle and no price, bundles have at least two members, every
// member references its bundle back, and no app sits in two bundles.
func NewRegistry(apps []*App, bundles []*Bundle) (*Registry, error) {
	r := &Registry{
		apps:    make(map[string]*App, len(apps)),
		bundles: make(map[string]*Bundle, len(bundles)),
	}
	for _, b := range bundles {
		if len(b.MemberAppIDs) < 2 {
			return nil, fmt.Errorf("bundle %q needs at least two member apps", b.ID)
		}
		if _, dup := r.bundles[b.ID]; dup {
			return nil, fmt.Errorf("duplicate bundle id %q", b.ID)
		}
		r.bundles[b.ID] = b
	}
	for _, a := range apps {
		if _, dup := r.apps[a.ID]; dup {
			return nil, fmt.Errorf("duplicate app id %q", a.ID)
		}
		if a.Tier == TierFree && (a.BundleID != "" || a.Price != nil) {
			return nil, fmt.Errorf("free app %q must not carry a bundle or a price", a.ID)
		}
		if a.BundleID != "" {
			b, ok := r.bundles[a.BundleID]
			if !ok {
				return nil, fmt.Errorf("app %q references unknown bundle %q", a.ID, a.BundleID)
			}
			if !contains(b.MemberAppIDs, a.ID) {
				return nil, fmt.Errorf("app %q is not listed as a member of bundle %q", a.ID, a.BundleID)
			}
		}
		r.apps[a.ID] = a
	}
	for _, b := range r.bundles {
		for _, id := range b.MemberAppIDs {
			a, ok := r.apps[id]
			if !ok {
				return nil, fmt.Errorf("bundle %q lists unknown app %q", b.ID, id)
			}
			if a.BundleID != b.ID {
				return nil, fmt.Errorf("app %q is a member of bundle %q but references %q", id, b.ID, a.BundleID)
			}
		}
	}
	return r, nil
}

// App returns the descriptor for an app id, nil when unknown.
func (r *Registry) App(appID string) *App {
	return r.apps[appID]
}

// IsFreeApp reports whether the app is on the free tier. An unknown id logs a
// warning and reports false; callers must not read false as "definitely paid".
func (r *Registry) IsFreeApp(appID string) bool {
	a, ok := r.apps[appID]
	if !ok {
		logrus.WithFields(logrus.Fields{"app_id": appID}).Warn("unknown app id in registry lookup")
		return false
	}
	return a.Tier == TierFree
}

// RequiresPayment reports whether the app is purchase-gated. Unknown ids fail
// closed: an app the registry does not recognize is never treated as free.
func (r *Registry) RequiresPayment(appID string) bool {
	a, ok := r.apps[appID]
	if !ok {
		logrus.WithFields(logrus.Fields{"app_id": appID}).Warn("unknown app id in registry lookup")
		return true
	}
	return a.Tier == TierPaid
}

// IsBundleApp reports whether the app belongs to a bundle.
func (r *Registry) IsBundleApp(appID string) bool {
	a, ok := r.apps[appID]
	return ok && a.BundleID != ""
}

// BundleInfo returns the bundle an app belongs to, nil when standalone or
// unknown. All members of a bundle yield the same Bundle value.
func (r *Registry) BundleInfo(appID string) *Bundle {
	a, ok := r.apps[appID]
	if !ok || a.BundleID == "" {
		return nil
	}
	return r.bundles[a.BundleID]
}

// AppsToUnlock returns every app id a purchase of appID unlocks: all bundle
// members for a bundled app (the app itself included), otherwise just the app.
// The payment-completion flow writes one entitlement row per returned id.
func (r *Registry) AppsToUnlock(appID string) []string {
	if b := r.BundleInfo(appID); b != nil {
		out := make([]string, len(b.MemberAppIDs))
		copy(out, b.MemberAppIDs)
		return out
	}
	return []string{appID}
}

// FreeAppIDs returns the ids of all free-tier apps.
func (r *Registry) FreeAppIDs() []string {
	var out []string
	for id, a := range r.apps {
		if a.Tier == TierFree {
			out = append(out, id)
		}
	}
	return out
}

// PaidAppIDs returns the ids of all paid-tier apps.
func (r *Registry) PaidAppIDs() []string {
	var out []string
	for id, a := range r.apps {
		if a.Tier == TierPaid {
			out = append(out, id)
		}
	}
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
