package config

import "log"

const inr = "INR"

// Default returns the production iiskills catalog: the free learning apps,
// the career bundle, and the standalone paid apps.
func Default() *Registry {
	careerBundle := &Bundle{
		ID:           "career-launch",
		Name:         "Career Launch Bundle",
		MemberAppIDs: []string{"learn-ai", "learn-pr", "learn-datascience"},
		IntroPrice:   Price{Amount: 99, Currency: inr},
		RegularPrice: Price{Amount: 299, Currency: inr},
	}

	apps := []*App{
		{ID: "learn-physics", Name: "Learn Physics", Tier: TierFree},
		{ID: "learn-chemistry", Name: "Learn Chemistry", Tier: TierFree},
		{ID: "learn-geography", Name: "Learn Geography", Tier: TierFree},
		{ID: "learn-maths", Name: "Learn Maths", Tier: TierFree},
		{ID: "learn-aptitude", Name: "Learn Aptitude", Tier: TierFree},
		{ID: "learn-govt-jobs", Name: "Government Jobs", Tier: TierFree},

		{ID: "learn-ai", Name: "Learn AI", Tier: TierPaid, BundleID: careerBundle.ID},
		{ID: "learn-pr", Name: "Learn Public Relations", Tier: TierPaid, BundleID: careerBundle.ID},
		{ID: "learn-datascience", Name: "Learn Data Science", Tier: TierPaid, BundleID: careerBundle.ID},

		{ID: "learn-management", Name: "Learn Management", Tier: TierPaid, Price: &Price{Amount: 199, Currency: inr}},
	}

	r, err := NewRegistry(apps, []*Bundle{careerBundle})
	if err != nil {
		// The default catalog is a compile-time constant; a violation here is
		// a programming error, not a runtime condition.
		log.Fatalln(err)
	}
	return r
}
