package keys

import (
	"strings"
	"testing"
)

func TestHash(t *testing.T) {
	// sha256("foo")
	want := "2c26b46b68ffc68ff99b453c1d30413413422d706483bfa0f98a5e886266e7ae"
	if got := Hash("foo"); got != want {
		t.Fatalf("Hash(foo) = %s, want %s", got, want)
	}
	if got := Shard("foo"); got != "2c" {
		t.Fatalf("Shard(foo) = %s, want 2c", got)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		rootLen int
		windows bool
		hashed  bool
	}{
		{"short key is hex", "foo", 10, false, false},
		{"empty key is hashed", "", 10, false, true},
		{"127 bytes fits", strings.Repeat("a", 127), 10, false, false},
		{"128 bytes exceeds component", strings.Repeat("a", 128), 10, false, true},
		{"windows full path budget", strings.Repeat("a", 100), 60, true, true},
		{"windows short path", strings.Repeat("a", 100), 10, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename(tt.key, tt.rootLen, tt.windows)
			isHashed := strings.HasPrefix(got, HashPrefix)
			if isHashed != tt.hashed {
				t.Fatalf("Filename() = %q, hashed=%v want %v", got, isHashed, tt.hashed)
			}
			if isHashed && got != HashPrefix+Hash(tt.key) {
				t.Fatalf("hashed name = %q", got)
			}
		})
	}
	if got := Filename("foo", 0, false); got != "666f6f" {
		t.Fatalf("Filename(foo) = %q, want 666f6f", got)
	}
}
