package billing

import "testing"

func TestParsePortalPriority(t *testing.T) {
	t.Parallel()

	got := parsePortalPriority("stripe, paypal,dodo")
	want := []Provider{ProviderStripe, ProviderPayPal, ProviderDodo}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestParsePortalPriority_IgnoresUnknownAndFallsBack(t *testing.T) {
	t.Parallel()

	got := parsePortalPriority("klarna, sofort")
	if len(got) != len(DefaultPortalPriority) {
		t.Fatalf("expected default priority fallback, got %v", got)
	}
}

func TestParseInterval(t *testing.T) {
	t.Parallel()

	cases := map[string]Interval{
		"":        IntervalMonthly,
		"monthly": IntervalMonthly,
		"yearly":  IntervalYearly,
		"onetime": IntervalOnetime,
	}
	for raw, want := range cases {
		got, err := ParseInterval(raw)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}

	if _, err := ParseInterval("weekly"); err == nil {
		t.Fatalf("expected error for unknown interval")
	}
}
