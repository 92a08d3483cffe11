package condaenv

import "testing"

func TestVersionSatisfies(t *testing.T) {
	tests := []struct {
		installed  string
		constraint string
		want       bool
	}{
		{"3.11.4", "", true},
		{"3.11.4", "3.11", true},
		{"3.11.4", "3.12", false},
		{"3.11.4", "3.11.4", true},
		{"3.11.4", "==3.11", true},
		{"3.11.4", ">=3.10", true},
		{"3.9.2", ">=3.10", false},
		{"3.11.4", "<=3.11.4", true},
		{"3.11.4", ">3.11.4", false},
		{"3.12.0", ">3.11", true},
		{"1.26.0", "!=1.26.0", false},
		{"1.26.1", "!=1.26.0", true},
		{"garbage", ">=1.0", false},
	}

	for _, tt := range tests {
		if got := versionSatisfies(tt.installed, tt.constraint); got != tt.want {
			t.Errorf("versionSatisfies(%q, %q) = %v, want %v", tt.installed, tt.constraint, got, tt.want)
		}
	}
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		spec        string
		wantName    string
		wantVersion string
	}{
		{"numpy", "numpy", ""},
		{"numpy=1.26", "numpy", "1.26"},
		{"numpy==1.26.0", "numpy", "1.26.0"},
	}

	for _, tt := range tests {
		name, version := parseSpec(tt.spec)
		if name != tt.wantName || version != tt.wantVersion {
			t.Errorf("parseSpec(%q) = (%q, %q), want (%q, %q)",
				tt.spec, name, version, tt.wantName, tt.wantVersion)
		}
	}
}
