package cache

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func init() {
	DefaultBackoff.Delay = time.Millisecond
}

// exercise runs the behaviour every storing backend shares.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "key"); err != nil || hit {
		t.Fatalf("Get on empty cache = hit %v err %v", hit, err)
	}
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Set(ctx, "key", []byte("other"), 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "key"); string(data) != "other" {
		t.Errorf("after overwrite Get = %q", data)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestBackends(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
		if err != nil {
			t.Fatal(err)
		}
		exercise(t, c)
	})
	t.Run("memory", func(t *testing.T) {
		exercise(t, NewMemoryCache())
	})
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	if err := c.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatal(err)
	}
	if data, hit, err := c.Get(ctx, "key"); hit || data != nil || err != nil {
		t.Errorf("Get = %q, %v, %v; want a clean miss", data, hit, err)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fc.now = clock
	mc := NewMemoryCache()
	mc.now = clock

	for name, c := range map[string]Cache{"file": fc, "memory": mc} {
		t.Run(name, func(t *testing.T) {
			now = time.Unix(1000, 0)
			if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
				t.Fatal(err)
			}
			if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
				t.Fatal(err)
			}
			if _, hit, _ := c.Get(ctx, "short"); !hit {
				t.Error("fresh entry should hit")
			}
			now = now.Add(2 * time.Minute)
			if _, hit, _ := c.Get(ctx, "short"); hit {
				t.Error("expired entry should miss")
			}
			if _, hit, _ := c.Get(ctx, "forever"); !hit {
				t.Error("entry without ttl should hit")
			}
		})
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	in := []byte("abc")
	_ = c.Set(ctx, "k", in, 0)
	in[0] = 'z'
	out, _, _ := c.Get(ctx, "k")
	if string(out) != "abc" {
		t.Fatalf("stored value changed with caller slice: %q", out)
	}
	out[1] = 'z'
	if again, _, _ := c.Get(ctx, "k"); string(again) != "abc" {
		t.Errorf("stored value changed with returned slice: %q", again)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json", "{not json"},
		{"magic", "xxxx 0\ndata"},
		{"stamp", entryMagic + " soon\ndata"},
		{"negative", entryMagic + " -5\ndata"},
	}
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := c.path(tt.name)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(tt.raw), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, hit, err := c.Get(ctx, tt.name); hit || err != nil {
				t.Errorf("corrupt entry = hit %v err %v, want clean miss", hit, err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("corrupt entry should be removed")
			}
		})
	}
}

func TestFileCachePayloadWithNewlines(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	payload := "line one\nline two\n"
	if err := c.Set(ctx, "k", []byte(payload), 0); err != nil {
		t.Fatal(err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != payload {
		t.Errorf("Get = %q, want %q", data, payload)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fc, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	mc := NewMemoryCache()

	for name, c := range map[string]interface {
		Cache
		Clearer
	}{"file": fc, "memory": mc} {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"a", "b", "c"} {
				if err := c.Set(ctx, k, []byte(k), 0); err != nil {
					t.Fatal(err)
				}
			}
			if err := c.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			for _, k := range []string{"a", "b", "c"} {
				if _, hit, _ := c.Get(ctx, k); hit {
					t.Errorf("%s survived Clear", k)
				}
			}
		})
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir should survive Clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Clear left %d entries", len(entries))
	}
	if fc.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", fc.Dir(), dir)
	}
	if mc.Len() != 0 {
		t.Errorf("memory Len = %d after Clear", mc.Len())
	}
}

func TestHash(t *testing.T) {
	h := Hash([]byte("hello"))
	if len(h) != 64 || strings.ToLower(h) != h {
		t.Errorf("Hash = %q, want 64 lowercase hex digits", h)
	}
	if h != Hash([]byte("hello")) {
		t.Error("Hash is not deterministic")
	}
	if h == Hash([]byte("world")) {
		t.Error("distinct inputs collide")
	}
}

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	scoped := NewScopedKeyer(k, "api:")
	defaulted := NewScopedKeyer(nil, "p:")
	hl := 2

	tests := []struct {
		name   string
		a, b   string
		same   bool
		prefix string
	}{
		{"ticks differ", k.SimulateKey("h", SimulateKeyOpts{Ticks: 10}), k.SimulateKey("h", SimulateKeyOpts{Ticks: 20}), false, "simulate:"},
		{"deterministic", k.SimulateKey("h", SimulateKeyOpts{Ticks: 10}), k.SimulateKey("h", SimulateKeyOpts{Ticks: 10}), true, "simulate:"},
		{"format differs", k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"}), false, "artifact:"},
		{"frame differs", k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), k.ArtifactKey("g", ArtifactKeyOpts{Format: "svg"}), false, "artifact:"},
		{"highlight differs", k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg", Highlight: &hl}), k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}), false, "artifact:"},
		{"scoped", scoped.SimulateKey("h", SimulateKeyOpts{Ticks: 5}), "api:" + k.SimulateKey("h", SimulateKeyOpts{Ticks: 5}), true, "api:simulate:"},
		{"scoped artifact", scoped.ArtifactKey("h", ArtifactKeyOpts{}), scoped.ArtifactKey("h", ArtifactKeyOpts{Labels: true}), false, "api:artifact:"},
		{"nil inner", defaulted.SimulateKey("h", SimulateKeyOpts{}), "p:" + k.SimulateKey("h", SimulateKeyOpts{}), true, "p:simulate:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys %q and %q: same = %v, want %v", tt.a, tt.b, tt.a == tt.b, tt.same)
			}
			if !strings.HasPrefix(tt.a, tt.prefix) {
				t.Errorf("key %q lacks prefix %q", tt.a, tt.prefix)
			}
		})
	}
}

func TestRedisCacheKeyPrefix(t *testing.T) {
	if got := newRedisCache(nil, "").key("simulate:abc"); got != DefaultRedisPrefix+"simulate:abc" {
		t.Errorf("default key = %s", got)
	}
	if got := newRedisCache(nil, "test:").key("k"); got != "test:k" {
		t.Errorf("key with custom prefix = %s", got)
	}
}

func TestRetryableNet(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	tests := []struct {
		name      string
		in        error
		retryable bool
		is        error
	}{
		{"miss", redis.Nil, false, redis.Nil},
		{"network", netErr, true, ErrNetwork},
		{"closed", redis.ErrClosed, false, ErrClosed},
	}
	if retryableNet(nil) != nil {
		t.Error("nil should stay nil")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := retryableNet(tt.in)
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, !tt.retryable, tt.retryable)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("%v does not wrap %v", err, tt.is)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) || err.Error() != ErrNetwork.Error() {
		t.Errorf("Retryable(ErrNetwork) = %v", err)
	}
	if IsRetryable(ErrClosed) {
		t.Error("plain errors are not retryable")
	}
}

func TestBackoff(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Microsecond, Max: 2 * time.Microsecond}
	tests := []struct {
		name      string
		failures  int
		final     error
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, nil, 1, false},
		{"recovers", 2, nil, 3, false},
		{"gives up", 5, nil, 3, true},
		{"permanent", 0, ErrClosed, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(context.Background(), func() error {
				calls++
				if calls <= tt.failures {
					return Retryable(ErrNetwork)
				}
				return tt.final
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
