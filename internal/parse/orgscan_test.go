package parse

import "testing"

func TestContainsOrgDirective(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"org $008000\nStart:\n", true},
		{"freecode\nStart:\n", true},
		{"freespace ram\n", true},
		{"freedata\n", true},
		{"; org $008000 in a comment\nStart:\n", false},
		{"Start:\n  LDA #$00\n", false},
		{"Label_org: db 1\n", false},
	}
	for _, tt := range tests {
		if got := ContainsOrgDirective(tt.text); got != tt.want {
			t.Fatalf("ContainsOrgDirective(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIncludesAfterOrg(t *testing.T) {
	parent := "incsrc early.asm\norg $008000\nincsrc placed.asm\n"
	if IncludesAfterOrg(parent, "/proj/early.asm") {
		t.Fatal("include before org must not count")
	}
	if !IncludesAfterOrg(parent, "/proj/placed.asm") {
		t.Fatal("include after org must count")
	}
}

func TestIncludesAfterOrgPushPullPC(t *testing.T) {
	// pullpc restores the pre-push placement state, so the include after
	// it still sits under the original org.
	parent := "org $008000\npushpc\npullpc\nincsrc child.asm\n"
	if !IncludesAfterOrg(parent, "child.asm") {
		t.Fatal("placement lost across pushpc/pullpc")
	}
}

func TestIncludesAfterOrgQuotedPath(t *testing.T) {
	parent := "freecode\nincsrc \"sub/child.asm\"\n"
	if !IncludesAfterOrg(parent, "/proj/sub/child.asm") {
		t.Fatal("quoted include path not matched")
	}
}
