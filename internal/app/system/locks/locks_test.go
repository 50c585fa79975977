package locks

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "caregiver:1")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxInside)
	}
	if l.size() != 0 {
		t.Errorf("expected key table to be empty, got %d entries", l.size())
	}
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("Lock a failed: %v", err)
	}
	defer unlockA()

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx2, "b")
	if err != nil {
		t.Fatalf("Lock b should not block on a: %v", err)
	}
	unlockB()
}

func TestLocal_ContextCancel(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op

	if l.size() != 0 {
		t.Errorf("expected key table to be empty, got %d entries", l.size())
	}
}

func TestNone(t *testing.T) {
	var l Locker = None{}
	u1, _ := l.Lock(context.Background(), "k")
	u2, err := l.Lock(context.Background(), "k")
	if err != nil {
		t.Fatalf("None.Lock failed: %v", err)
	}
	u1()
	u2()
}

func TestKey(t *testing.T) {
	if got := Key("assign", "a1", "c1"); got != "assign:a1:c1" {
		t.Errorf("Key = %q", got)
	}
	if !ValidMode("redis") || ValidMode("zookeeper") {
		t.Error("ValidMode mismatch")
	}
}

func TestRedis_Lock(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	defer client.Close()

	l := NewRedis(client, time.Second, zap.NewNop())
	unlock, err := l.Lock(ctx, "test:"+time.Now().Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	other, err := l.Lock(short, "test:other:"+time.Now().Format(time.RFC3339Nano))
	if err != nil {
		t.Fatalf("Lock on free key failed: %v", err)
	}
	other()
	unlock()
}
