package version

import "testing"

func TestDefaults(t *testing.T) {
	if Version == "" || Number == "" {
		t.Fatal("version strings must have defaults")
	}
}

func TestOverride(t *testing.T) {
	orig := Number
	Number = "1.2.3"
	if Number != "1.2.3" {
		t.Fatalf("Number = %q", Number)
	}
	Number = orig
}
