package version

import "testing"

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name        string
		settings    map[string]string
		wantVersion string
		wantCommit  string
	}{
		{
			name:        "clean tree",
			settings:    map[string]string{"vcs.revision": "0123456789abcdef", "vcs.time": "2026-10-16T20:30:00Z"},
			wantVersion: "dev-20261016",
			wantCommit:  "0123456",
		},
		{
			name:        "dirty tree",
			settings:    map[string]string{"vcs.revision": "abc", "vcs.modified": "true"},
			wantVersion: "",
			wantCommit:  "abc-dirty",
		},
		{
			name:     "no vcs",
			settings: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func(v, c string) { Version, Commit = v, c }(Version, Commit)
			Version, Commit = "", ""

			fromBuildInfo(tt.settings)
			if Version != tt.wantVersion || Commit != tt.wantCommit {
				t.Errorf("got %q/%q, want %q/%q", Version, Commit, tt.wantVersion, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)
	Version, Commit = "v0.3.0", "abc1234"

	if got := Full("mc6-cfg"); got != "mc6-cfg v0.3.0 (commit: abc1234)" {
		t.Errorf("Full() = %q", got)
	}
}
