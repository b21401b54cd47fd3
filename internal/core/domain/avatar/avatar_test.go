package avatar_test

import (
	"strings"
	"testing"

	"github.com/avatarctic/avatar-proxy/internal/core/domain/avatar"
)

func TestNormalizeSize(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 512},   // absent
		{-5, 512},  // nonsense
		{513, 512}, // above range
		{1, 1},     // lower bound accepted
		{512, 512}, // upper bound accepted
		{64, 64},
	}
	for _, c := range cases {
		if got := avatar.NormalizeSize(c.in); got != c.want {
			t.Fatalf("NormalizeSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestOptionsHash_DistinctPerOptionSet(t *testing.T) {
	a := avatar.Options{}
	b := avatar.Options{DefaultImage: "robohash"}
	c := avatar.Options{DefaultImage: "identicon"}

	if a.Hash() == b.Hash() || b.Hash() == c.Hash() {
		t.Fatalf("distinct option sets must hash differently")
	}
	if a.Hash() != (avatar.Options{}).Hash() {
		t.Fatalf("options hash must be stable")
	}
}

func TestCacheKeys(t *testing.T) {
	opts := avatar.Options{DefaultImage: "robohash"}
	hash := "deadbeefdeadbeefdeadbeefdeadbeef"

	urlKey := avatar.URLKey(hash, opts)
	imgKey := avatar.ImageKey(hash, 64, opts)

	if !strings.HasPrefix(urlKey, hash+"-") {
		t.Fatalf("url key %q must embed the hash", urlKey)
	}
	if !strings.Contains(imgKey, "-64-") {
		t.Fatalf("image key %q must embed the size", imgKey)
	}
	if avatar.ImageKey(hash, 64, avatar.Options{}) == imgKey {
		t.Fatalf("image keys must differ per option set")
	}
}
