package exclusion

import "testing"

func TestShouldExclude(t *testing.T) {
	r := New()
	tests := []struct {
		name string
		res  Resource
		want bool
	}{
		{"exclude tag", Resource{Name: "web", Tags: map[string]string{"ExcludeFromAudit": "true"}}, true},
		{"exclude tag case-insensitive value", Resource{Name: "web", Tags: map[string]string{"ExcludeFromAudit": "TRUE"}}, true},
		{"exclude tag false", Resource{Name: "web", Tags: map[string]string{"ExcludeFromAudit": "false"}}, false},
		{"temp prefix", Resource{Name: "temp-debug"}, true},
		{"prefix not at start", Resource{Name: "my-temp-sg"}, false},
		{"emergency access on IAM", Resource{Name: "breakglass", IAM: true, Tags: map[string]string{"EmergencyAccess": "true"}}, true},
		{"emergency access on SG ignored", Resource{Name: "sg", Tags: map[string]string{"EmergencyAccess": "true"}}, false},
		{"untagged", Resource{Name: "prod-db"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.ShouldExclude(tc.res); got != tc.want {
				t.Errorf("got %v; want %v", got, tc.want)
			}
		})
	}
}

func TestShouldExclude_CustomOptions(t *testing.T) {
	r := New(WithExcludeTag("Env", "sandbox"), WithNamePrefix("scratch-"))
	if !r.ShouldExclude(Resource{Name: "a", Tags: map[string]string{"Env": "Sandbox"}}) {
		t.Error("want custom exclude tag honoured")
	}
	if !r.ShouldExclude(Resource{Name: "scratch-1"}) {
		t.Error("want custom name prefix honoured")
	}
	if !r.ShouldExclude(Resource{Name: "temp-1"}) {
		t.Error("want default prefix still honoured")
	}
}

func TestShouldExclude_NilResolver(t *testing.T) {
	var r *Resolver
	if !r.ShouldExclude(Resource{Name: "temp-x"}) {
		t.Error("nil resolver: want default conventions applied")
	}
}

func TestIsApprovedException(t *testing.T) {
	r := New()

	ok, why := r.IsApprovedException(Resource{Tags: map[string]string{
		"SecurityException":              "approved",
		"SecurityExceptionJustification": "bastion reviewed 2026-01",
	}})
	if !ok || why != "bastion reviewed 2026-01" {
		t.Errorf("got (%v, %q); want (true, bastion reviewed 2026-01)", ok, why)
	}

	ok, why = r.IsApprovedException(Resource{Tags: map[string]string{"SecurityException": "approved"}})
	if !ok || why != "" {
		t.Errorf("missing justification: got (%v, %q); want (true, \"\")", ok, why)
	}

	ok, _ = r.IsApprovedException(Resource{Tags: map[string]string{"SecurityException": "pending"}})
	if ok {
		t.Error("pending exception: want false")
	}
}

func TestParseTag(t *testing.T) {
	k, v, ok := ParseTag("Team=platform")
	if !ok || k != "Team" || v != "platform" {
		t.Errorf("got (%q, %q, %v)", k, v, ok)
	}
	if _, _, ok := ParseTag("novalue"); ok {
		t.Error("want ok=false without '='")
	}
	if _, _, ok := ParseTag("=x"); ok {
		t.Error("want ok=false with empty key")
	}
}
