package backup

import "testing"

func rules(patterns ...string) []ExclusionRule {
	return CompileExclusionRules(patterns)
}

func TestIsExcluded(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		patterns []string
		want     bool
	}{
		{"literal match", "heads.all", []string{"heads.all"}, true},
		{"literal mismatch", "show.all", []string{"heads.all"}, false},
		{"extension match", "show.all", []string{"*.all"}, true},
		{"extension is case sensitive", "show.ALL", []string{"*.all"}, false},
		{"literal is case sensitive", "Heads.all", []string{"heads.all"}, false},
		{"no extension never matches", "noext", []string{"*.all"}, false},
		{"empty rules", "show.all", nil, false},
		{"last dot wins", "archive.tar.gz", []string{"*.gz"}, true},
		{"inner extension ignored", "archive.tar.gz", []string{"*.tar"}, false},
		{"base name only", "/data/show/heads.all", []string{"heads.all"}, true},
		{"directory not compared", "/data/heads.all/show.txt", []string{"heads.all"}, false},
		{"blank patterns dropped", "show.all", []string{"", "  "}, false},
		{"second rule matches", "x.log", []string{"*.all", "*.log"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExcluded(tt.file, rules(tt.patterns...)); got != tt.want {
				t.Fatalf("IsExcluded(%q, %v) = %v, want %v", tt.file, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestParseExclusionRule(t *testing.T) {
	ext := ParseExclusionRule("*.all")
	if !ext.IsExtensionRule() {
		t.Fatalf("*.all should be an extension rule")
	}
	if ext.String() != "*.all" {
		t.Fatalf("String() = %q", ext.String())
	}
	lit := ParseExclusionRule("heads.all")
	if lit.IsExtensionRule() {
		t.Fatalf("heads.all should be a literal rule")
	}
}
