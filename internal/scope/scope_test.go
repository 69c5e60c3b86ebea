package scope

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM/Path/", "https://example.com/Path"},
		{"https://example.com/", "https://example.com"},
		{"https://example.com/a?b=1&c=2", "https://example.com/a?b=1&c=2"},
		{"https://example.com/a/?b=1", "https://example.com/a?b=1"},
		{"https://example.com/a#frag", "https://example.com/a"},
		{"http://EXAMPLE.com:8080/x/", "http://example.com:8080/x"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	urls := []string{
		"HTTPS://Example.COM/Path/",
		"https://example.com/a?b=1",
		"https://example.com",
	}
	for _, u := range urls {
		once := Normalize(u)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", u, once, twice)
		}
	}
}

func TestRootDomain(t *testing.T) {
	cases := map[string]string{
		"blog.example.com": "example.com",
		"example.com":      "example.com",
		"a.b.example.com":  "example.com",
		"localhost":        "localhost",
	}
	for in, want := range cases {
		if got := RootDomain(in); got != want {
			t.Errorf("RootDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterSubdomain(t *testing.T) {
	f := NewFilter("subdomain", []string{"https://blog.example.com/"})

	if !f.Allows("https://blog.example.com/post/1") {
		t.Error("same netloc should pass")
	}
	if f.Allows("https://www.example.com/post/1") {
		t.Error("sibling subdomain should fail")
	}
	if f.Allows("https://example.com/") {
		t.Error("apex should fail under subdomain scope")
	}
}

func TestFilterDomain(t *testing.T) {
	f := NewFilter("domain", []string{"https://blog.example.com/"})

	if !f.Allows("https://www.example.com/anything") {
		t.Error("same root domain should pass")
	}
	if !f.Allows("https://example.com/") {
		t.Error("apex should pass under domain scope")
	}
	if f.Allows("https://example.org/") {
		t.Error("different root domain should fail")
	}
}

func TestFilterSubfolderBoundary(t *testing.T) {
	f := NewFilter("subfolder", []string{"https://example.com/blog"})

	if !f.Allows("https://example.com/blog") {
		t.Error("exact base path should pass")
	}
	if !f.Allows("https://example.com/blog/") {
		t.Error("base path with trailing slash should pass")
	}
	if !f.Allows("https://example.com/blog/post-1") {
		t.Error("nested path should pass")
	}
	if f.Allows("https://example.com/blogger") {
		t.Error("prefix without / boundary should fail")
	}
	if f.Allows("https://example.com/") {
		t.Error("parent path should fail")
	}
	if f.Allows("https://other.example.com/blog/x") {
		t.Error("different host should fail even with matching path")
	}
}

func TestFilterSubfolderRootBase(t *testing.T) {
	f := NewFilter("subfolder", []string{"https://example.com/"})

	if !f.Allows("https://example.com/anything/at/all") {
		t.Error("empty base path should accept everything on the host")
	}
}

func TestFilterAnySeedAccepts(t *testing.T) {
	f := NewFilter("subdomain", []string{
		"https://a.test/",
		"https://b.test/",
	})

	if !f.Allows("https://b.test/page") {
		t.Error("candidate matching the second seed should pass")
	}
	if f.Allows("https://c.test/page") {
		t.Error("candidate matching no seed should fail")
	}
}

func TestFilterUnknownPolicyFallsBackToDomain(t *testing.T) {
	f := NewFilter("bogus", []string{"https://example.com/"})
	if !f.Allows("https://sub.example.com/x") {
		t.Error("unknown policy should behave like domain scope")
	}
}
