package telemetry

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lbship/internal/logging"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "failed", Status(assert.AnError))
}

func TestHandler_ServesCounters(t *testing.T) {
	RecordsTotal.WithLabelValues("ok").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `lbship_records_total{status="ok"}`)
}

func TestExpose_LogsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port

	out := &syncBuffer{}
	logging.Configure(logging.Options{Output: out})
	t.Cleanup(func() { logging.Configure(logging.Options{}) })

	Expose(port)
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "metrics endpoint stopped")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), fmt.Sprintf("addr=:%d", port))
}
