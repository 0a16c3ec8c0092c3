package store

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "game_path: \"\"\n"},
		{"/opt/VRChat.exe", "game_path: /opt/VRChat.exe\n"},
	}
	for _, tc := range cases {
		if got := (ResolvedConfig{InstallPath: tc.in}).Text(); got != tc.want {
			t.Fatalf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseText_RoundTripsWindowsPath(t *testing.T) {
	p := `C:\Program Files\VRChat\VRChat.exe`
	got, err := ParseText(ResolvedConfig{InstallPath: p}.Text())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.InstallPath != p {
		t.Fatalf("expected %q, got %q", p, got.InstallPath)
	}
}
