package naming

import "testing"

func TestShortHashStability(t *testing.T) {
	h1 := ShortHash("web", 6)
	h2 := ShortHash("web", 6)
	if h1 != h2 {
		t.Fatalf("hash not stable: %s vs %s", h1, h2)
	}
	if len(h1) != 6 {
		t.Fatalf("expected hash length 6, got %d", len(h1))
	}
	if ShortHash("web", 6) == ShortHash("api", 6) {
		t.Fatalf("different inputs should not collide in this fixture")
	}
	if got := len(ShortHash("x", 100)); got != 40 {
		t.Fatalf("expected clamp to 40, got %d", got)
	}
	if got := len(DefaultLengthHash("x")); got != defaultLength {
		t.Fatalf("DefaultLengthHash() length = %d", got)
	}
}

func TestContentBuildID(t *testing.T) {
	a := ContentBuildID([]byte("apps: []"))
	b := ContentBuildID([]byte("apps: []"))
	c := ContentBuildID([]byte("apps: [x]"))
	if a != b {
		t.Fatalf("ContentBuildID() not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("ContentBuildID() ignores content")
	}
	if len(a) != len("sha1-")+12 {
		t.Fatalf("ContentBuildID() = %q", a)
	}
}

func TestEnvironmentName(t *testing.T) {
	if got := EnvironmentName("shop", "dev"); got != "shop-dev" {
		t.Errorf("EnvironmentName() = %q", got)
	}
	if got := EnvironmentName("", "dev"); got != "dev" {
		t.Errorf("EnvironmentName() = %q", got)
	}
}
