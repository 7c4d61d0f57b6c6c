package redis

import (
	"testing"

	"github.com/pricepilot/pricepilot-backend/pkg/config"
)

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6379", Password: "pw", DB: 2})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestOptionsFromConfigURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://:secret@example.com:6380/1"})
	if err != nil {
		t.Fatalf("optionsFromConfig: %v", err)
	}
	if opts.Addr != "example.com:6380" {
		t.Fatalf("unexpected addr %q", opts.Addr)
	}
	if opts.DB != 1 {
		t.Fatalf("unexpected db %d", opts.DB)
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	if got := c.CollectionCacheKey("Product"); got != "pricepilot:db_data:Product.json" {
		t.Fatalf("unexpected collection key %q", got)
	}
	if got := c.AccessSessionKey("abc"); got != "pricepilot:session:access:abc" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := c.CurrentUserKey("device-1"); got != "pricepilot:current_user:device-1" {
		t.Fatalf("unexpected user key %q", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	if _, err := c.Get(t.Context(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := c.Set(t.Context(), "k", "v", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
