package cmdref

import "testing"

func TestCompileToken(t *testing.T) {
	tests := []struct {
		token string
		input string
		want  bool
	}{
		{"/N7/", "N7K-C7010", true},
		{"/N7/", "N3K-C3064PQ", false},
		{"/^N(5|6)/", "N6K-C6001", true},
		{"/n7/i", "N7K-C7010", true},
		{"/n7/", "N7K-C7010", false},
		{"N7", "N7K-C7010", true},
		{"a.b", "axb", false},
		{"a.b", "x a.b y", true},
		{"/^feature vni$/", "feature vni", true},
		{"/^feature vni$/", "feature vnix", false},
	}

	for _, tt := range tests {
		p, err := compileToken(tt.token)
		if err != nil {
			t.Fatalf("compileToken(%q) error: %v", tt.token, err)
		}
		if got := p.Match(tt.input); got != tt.want {
			t.Errorf("compileToken(%q).Match(%q) = %v, want %v", tt.token, tt.input, got, tt.want)
		}
		if p.String() != tt.token {
			t.Errorf("String() = %q, want %q", p.String(), tt.token)
		}
	}
}

func TestCompileToken_Invalid(t *testing.T) {
	if _, err := compileToken("/N(7/"); err == nil {
		t.Error("compileToken(/N(7/) should fail")
	}
}

func TestIsRegexKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"/N7/", true},
		{"/n7/i", true},
		{"/N7/x", false},
		{"/", false},
		{"N7", false},
		{"config_set", false},
		{"_template", false},
	}

	for _, tt := range tests {
		if got := isRegexKey(tt.key); got != tt.want {
			t.Errorf("isRegexKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestMatchPlatform(t *testing.T) {
	pats := []*Pattern{MustPattern("/N7/"), MustPattern("/N7K-C70/"), MustPattern("/N3/")}

	tests := []struct {
		platform string
		want     int
		ok       bool
	}{
		// Overlapping patterns: the first declared wins.
		{"N7K-C7010", 0, true},
		{"N3K-C3048", 2, true},
		{"N9K-C9396", -1, false},
		{"", -1, false},
	}

	for _, tt := range tests {
		got, ok := MatchPlatform(tt.platform, pats)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MatchPlatform(%q) = %d, %v, want %d, %v", tt.platform, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMatchPlatform_Empty(t *testing.T) {
	if _, ok := MatchPlatform("N7K", nil); ok {
		t.Error("MatchPlatform with no patterns should not match")
	}
}
