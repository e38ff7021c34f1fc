package enum

import "testing"

func TestParseBanner(t *testing.T) {
	cases := map[string]struct {
		banner     string
		version    string
		known      bool
		vulnerable bool
	}{
		"affected ubuntu build": {
			banner:     "SSH-2.0-OpenSSH_7.2p2 Ubuntu-4ubuntu2.4\r\n",
			version:    "7.2",
			known:      true,
			vulnerable: true,
		},
		"last affected release": {
			banner:     "SSH-2.0-OpenSSH_7.7\r\n",
			version:    "7.7",
			known:      true,
			vulnerable: true,
		},
		"patched release": {
			banner:     "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.1\r\n",
			version:    "8.9",
			known:      true,
			vulnerable: false,
		},
		"not openssh": {
			banner: "SSH-2.0-dropbear_2019.78\r\n",
		},
		"garbage": {
			banner: "220 smtp.example.com ESMTP ready\r\n",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := ParseBanner(tc.banner)
			if got.Version != tc.version {
				t.Fatalf("version = %q, want %q", got.Version, tc.version)
			}
			if got.Known != tc.known {
				t.Fatalf("known = %v, want %v", got.Known, tc.known)
			}
			if got.LikelyVulnerable != tc.vulnerable {
				t.Fatalf("vulnerable = %v, want %v", got.LikelyVulnerable, tc.vulnerable)
			}
		})
	}
}
