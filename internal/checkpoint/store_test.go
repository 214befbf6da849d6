package checkpoint

import "testing"

func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	key := Key("abc-123")
	if key != "wren:checkpoint:abc-123:latest" {
		t.Errorf("Key = %q", key)
	}
	if got := SessionIDFromKey(key); got != "abc-123" {
		t.Errorf("SessionIDFromKey = %q, want abc-123", got)
	}
}

func TestSessionIDFromKey_Foreign(t *testing.T) {
	t.Parallel()

	for _, key := range []string{
		"other:namespace:abc:latest",
		"wren:checkpoint:abc",
		"random",
		"",
	} {
		if got := SessionIDFromKey(key); got != "" {
			t.Errorf("SessionIDFromKey(%q) = %q, want empty", key, got)
		}
	}
}
