package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	got := Template()
	if !strings.HasPrefix(got, "gitk-graph ") || !strings.HasSuffix(got, "\n") {
		t.Fatalf("unexpected template: %q", got)
	}
	if !strings.Contains(got, Version()) {
		t.Fatalf("template %q does not carry version %q", got, Version())
	}
}

func TestVersionWithTags(t *testing.T) {
	v := VersionWithTags()
	if v == "" {
		t.Fatal("empty version")
	}
	if Tags() == "" && v != Version() {
		t.Fatalf("untagged build should report the bare version, got %q", v)
	}
}
