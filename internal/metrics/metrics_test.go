package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gabrielcapilla/focusguard/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveVerdict(t *testing.T) {
	before := testutil.ToFloat64(verdictsTotal.WithLabelValues("a", TriggerRemoteClaim, "pause"))
	ObserveVerdict("a", TriggerRemoteClaim, domain.VerdictPause)
	after := testutil.ToFloat64(verdictsTotal.WithLabelValues("a", TriggerRemoteClaim, "pause"))
	assert.Equal(t, before+1, after)
	assert.Zero(t, testutil.ToFloat64(verdictsTotal.WithLabelValues("b", TriggerRemoteClaim, "pause")))
}

func TestObservePublish(t *testing.T) {
	before := testutil.ToFloat64(claimsPublished.WithLabelValues("a", "claim", "error"))
	ObservePublish("a", "claim", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(claimsPublished.WithLabelValues("a", "claim", "error")))
}

func TestSetPlaying_PerInstance(t *testing.T) {
	SetPlaying("left", true)
	SetPlaying("right", false)
	assert.Equal(t, float64(1), testutil.ToFloat64(playing.WithLabelValues("left")))
	assert.Equal(t, float64(0), testutil.ToFloat64(playing.WithLabelValues("right")))

	Forget("left")
	Forget("right")
	assert.Zero(t, testutil.CollectAndCount(playing))
}

func TestRouter(t *testing.T) {
	SetPlaying("router", true)
	defer Forget("router")
	srv := httptest.NewServer(Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `focusguard_playing{instance="router"} 1`)
}
