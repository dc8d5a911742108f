package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := New()
	c.ObserveFrame(2*time.Millisecond, true)
	c.ObserveFrame(3*time.Millisecond, false)
	c.ObserveResize(400, 300, nil)
	c.ObserveResize(0, 0, errors.New("out of memory"))
	c.ObserveUpload()
	c.ObserveMismatch()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Frames))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.InputActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Resizes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SurfaceFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.SurfaceTexels))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.TextureUploads))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.VerifyMismatches))
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveFrame(time.Millisecond, true)
		c.ObserveResize(1, 1, nil)
		c.ObserveUpload()
		c.ObserveMismatch()
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	c := New()
	c.ObserveResize(10, 20, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ripple_surface_texels 200")
	assert.Contains(t, string(body), "ripple_resizes_total 1")
}
