package testutils

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/headless"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a bytes.Buffer that can be written by a sink goroutine and read by the test.
type SafeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TickUntil ticks app until cond holds, failing the test after timeout.
// Cycle errors are ignored.
func TickUntil(t *testing.T, app *headless.App, timeout time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		_ = app.Tick(context.Background())
		return cond()
	}, timeout, 5*time.Millisecond)
}
