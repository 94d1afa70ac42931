package forwarder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
)

func remoteSite(apiURL string) *config.Site {
	return &config.Site{
		Prefix:  "sym",
		SiteURL: "https://ag.example.com",
		APIURL:  apiURL,
		APIEndpoints: map[string]string{
			"get_balance":    "/buffalo/get-user-balance",
			"change_balance": "/buffalo/change-balance",
		},
	}
}

func TestForward_RelaysBodyVerbatim(t *testing.T) {
	var gotBody []byte
	var gotPath, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":1,"msg":"ok","balance":777}`))
	}))
	defer srv.Close()

	body := []byte(`{"uid":"symabc","token":"t"}`)
	res, err := NewClient().Forward(context.Background(), remoteSite(srv.URL), config.EndpointGetBalance, "application/json", body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"code":1,"msg":"ok","balance":777}`, string(res.Body))
	assert.Equal(t, body, gotBody)
	assert.Equal(t, "/buffalo/get-user-balance", gotPath)
	assert.Equal(t, "application/json", gotContentType)
}

func TestForward_RelaysUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broken"))
	}))
	defer srv.Close()

	res, err := NewClient().Forward(context.Background(), remoteSite(srv.URL), config.EndpointChangeBalance, "", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, "upstream broken", string(res.Body))
}

func TestForward_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient().Forward(context.Background(), remoteSite(srv.URL), config.EndpointGetBalance, "", []byte(`{}`))
	assert.Error(t, err)
}

func TestForward_MissingEndpoint(t *testing.T) {
	site := remoteSite("https://ag.example.com/api")
	_, err := NewClient().Forward(context.Background(), site, config.EndpointLaunchGame, "", []byte(`{}`))
	assert.Error(t, err)
}
