package buildinfo

import "testing"

func TestFormat(t *testing.T) {
	none := func() (string, string) { return "", "" }
	vcs := func() (string, string) { return "0123456789abcdef", "2026-02-01T00:00:00Z" }

	cases := []struct {
		name                  string
		version, commit, date string
		vcs                   func() (string, string)
		want                  string
	}{
		{"stamped", "v1.0.0", "abc1234", "2026-01-30", none, "v1.0.0 (commit abc1234, built 2026-01-30)"},
		{"local", "dev", "local", "", none, "dev (commit local)"},
		{"vcs fallback", "dev", "local", "", vcs, "dev (commit 0123456789ab, built 2026-02-01T00:00:00Z)"},
		{"stamped ignores vcs", "v2", "fff", "", vcs, "v2 (commit fff)"},
	}
	for _, tc := range cases {
		if got := format(tc.version, tc.commit, tc.date, tc.vcs); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}
