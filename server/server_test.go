package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/forwarder"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/rooms"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

type stubWallet struct {
	getBalance    func(ctx context.Context, uid, token string) (int64, error)
	changeBalance func(ctx context.Context, req service.BalanceChange) (service.ChangeResult, error)
}

func (s *stubWallet) GetBalance(ctx context.Context, uid, token string) (int64, error) {
	return s.getBalance(ctx, uid, token)
}

func (s *stubWallet) ChangeBalance(ctx context.Context, req service.BalanceChange) (service.ChangeResult, error) {
	return s.changeBalance(ctx, req)
}

type stubLaunch struct {
	launch   func(ctx context.Context, req service.LaunchRequest) (service.LaunchResult, error)
	gameAuth func(user *models.User, sitePrefix string) (service.GameAuthData, error)
	auth     func(username, sitePrefix string) (service.AuthPayload, error)
}

func (s *stubLaunch) Launch(ctx context.Context, req service.LaunchRequest) (service.LaunchResult, error) {
	return s.launch(ctx, req)
}

func (s *stubLaunch) GameAuth(user *models.User, sitePrefix string) (service.GameAuthData, error) {
	return s.gameAuth(user, sitePrefix)
}

func (s *stubLaunch) Auth(username, sitePrefix string) (service.AuthPayload, error) {
	return s.auth(username, sitePrefix)
}

type stubForwarder struct {
	forward func(ctx context.Context, site *config.Site, endpoint config.Endpoint, contentType string, body []byte) (*forwarder.Result, error)
}

func (s *stubForwarder) Forward(ctx context.Context, site *config.Site, endpoint config.Endpoint, contentType string, body []byte) (*forwarder.Result, error) {
	return s.forward(ctx, site, endpoint, contentType, body)
}

type stubSessions struct {
	users map[string]*models.User
}

func (s *stubSessions) GetBySessionToken(_ context.Context, token string) (*models.User, error) {
	return s.users[token], nil
}

type fixture struct {
	srv      *Server
	wallet   *stubWallet
	launch   *stubLaunch
	fwd      *stubForwarder
	sessions *stubSessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sites, err := config.LoadSites("", "mxm")
	require.NoError(t, err)

	wallet := &stubWallet{
		getBalance: func(context.Context, string, string) (int64, error) { return 0, nil },
		changeBalance: func(context.Context, service.BalanceChange) (service.ChangeResult, error) {
			return service.ChangeResult{}, nil
		},
	}
	launch := &stubLaunch{
		launch: func(context.Context, service.LaunchRequest) (service.LaunchResult, error) {
			return service.LaunchResult{}, nil
		},
		gameAuth: func(*models.User, string) (service.GameAuthData, error) {
			return service.GameAuthData{}, nil
		},
		auth: func(string, string) (service.AuthPayload, error) {
			return service.AuthPayload{}, nil
		},
	}
	fwd := &stubForwarder{
		forward: func(context.Context, *config.Site, config.Endpoint, string, []byte) (*forwarder.Result, error) {
			return nil, errors.New("not wired")
		},
	}
	sessions := &stubSessions{users: map[string]*models.User{}}

	cfg := &config.Config{Port: 8082, DefaultSite: "mxm", ProviderID: 23}
	return &fixture{
		srv:      New(cfg, sites, wallet, launch, fwd, sessions),
		wallet:   wallet,
		launch:   launch,
		fwd:      fwd,
		sessions: sessions,
	}
}

func (f *fixture) post(t *testing.T, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

const localUID = "mxmUExBWUVSMDEwMQ1234567890abcde"

func TestGetUserBalance_Local(t *testing.T) {
	f := newFixture(t)
	f.wallet.getBalance = func(_ context.Context, uid, token string) (int64, error) {
		assert.Equal(t, localUID, uid)
		assert.Equal(t, "tok", token)
		return 2500, nil
	}

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"`+localUID+`","token":"tok"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["code"])
	assert.Equal(t, float64(2500), body["balance"])
}

func TestGetUserBalance_InvalidParameters(t *testing.T) {
	f := newFixture(t)

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"","token":""}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, "Invalid parameters", body["msg"])
}

func TestGetUserBalance_UnknownSite(t *testing.T) {
	f := newFixture(t)

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"zzz123","token":"t"}`, nil)
	body := decode(t, rr)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, "Invalid site", body["msg"])
}

func TestGetUserBalance_DisabledSite(t *testing.T) {
	f := newFixture(t)

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"mmg123","token":"t"}`, nil)
	body := decode(t, rr)
	assert.Equal(t, "Invalid site", body["msg"])
}

func TestGetUserBalance_UserNotFound(t *testing.T) {
	f := newFixture(t)
	f.wallet.getBalance = func(context.Context, string, string) (int64, error) {
		return 0, service.ErrUserNotFound
	}

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"`+localUID+`","token":"t"}`, nil)
	body := decode(t, rr)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, "User not found", body["msg"])
}

func TestGetUserBalance_RemoteRelay(t *testing.T) {
	f := newFixture(t)
	reqBody := `{"uid":"symabcdef","token":"t"}`
	f.fwd.forward = func(_ context.Context, site *config.Site, endpoint config.Endpoint, contentType string, body []byte) (*forwarder.Result, error) {
		assert.Equal(t, "sym", site.Prefix)
		assert.Equal(t, config.EndpointGetBalance, endpoint)
		assert.Equal(t, reqBody, string(body))
		return &forwarder.Result{
			StatusCode:  http.StatusOK,
			Body:        []byte(`{"code":1,"msg":"ok","balance":42}`),
			ContentType: "application/json",
		}, nil
	}

	rr := f.post(t, "/buffalo/get-user-balance", reqBody, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"code":1,"msg":"ok","balance":42}`, rr.Body.String())
}

func TestGetUserBalance_RemoteTransportError(t *testing.T) {
	f := newFixture(t)
	f.fwd.forward = func(context.Context, *config.Site, config.Endpoint, string, []byte) (*forwarder.Result, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"symabcdef","token":"t"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, "Connection error", body["msg"])
}

func TestGetUserBalance_RemoteNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.fwd.forward = func(context.Context, *config.Site, config.Endpoint, string, []byte) (*forwarder.Result, error) {
		return nil, forwarder.ErrNotConfigured
	}

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"symabcdef","token":"t"}`, nil)
	body := decode(t, rr)
	assert.Equal(t, "Site configuration error", body["msg"])
}

func TestGetUserBalance_RemoteNon2xx(t *testing.T) {
	f := newFixture(t)
	f.fwd.forward = func(context.Context, *config.Site, config.Endpoint, string, []byte) (*forwarder.Result, error) {
		return &forwarder.Result{StatusCode: http.StatusBadGateway, Body: []byte("oops")}, nil
	}

	rr := f.post(t, "/buffalo/get-user-balance", `{"uid":"symabcdef","token":"t"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "External API error", body["msg"])
}

func TestChangeBalance_Success(t *testing.T) {
	f := newFixture(t)
	var got service.BalanceChange
	f.wallet.changeBalance = func(_ context.Context, req service.BalanceChange) (service.ChangeResult, error) {
		got = req
		return service.ChangeResult{Balance: 9500}, nil
	}

	rr := f.post(t, "/buffalo/change-balance",
		`{"uid":"`+localUID+`","token":"t","changemoney":-500,"bet":500,"win":0,"gameId":23,"bet_uid":"abc123"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["code"])
	assert.Equal(t, float64(9500), body["balance"])

	assert.Equal(t, int64(-500), got.ChangeAmount)
	assert.Equal(t, int64(500), got.BetAmount)
	assert.Equal(t, "abc123", got.BetUID)
	assert.Equal(t, 23, got.GameID)

	// The body is carried along as received for the audit log.
	assert.Equal(t, "abc123", got.Payload["bet_uid"])
	assert.Equal(t, float64(-500), got.Payload["changemoney"])
}

func TestChangeBalance_FormEncoded(t *testing.T) {
	f := newFixture(t)
	var got service.BalanceChange
	f.wallet.changeBalance = func(_ context.Context, req service.BalanceChange) (service.ChangeResult, error) {
		got = req
		return service.ChangeResult{Balance: 100}, nil
	}

	form := "uid=" + localUID + "&token=t&changemoney=-50&bet=50&win=0&gameId=23&bet_uid=f-1"
	req := httptest.NewRequest(http.MethodPost, "/buffalo/change-balance", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(-50), got.ChangeAmount)
	assert.Equal(t, "f-1", got.BetUID)
	assert.Equal(t, "-50", got.Payload["changemoney"])
}

func TestChangeBalance_NegativeBetRejected(t *testing.T) {
	f := newFixture(t)

	rr := f.post(t, "/buffalo/change-balance",
		`{"uid":"`+localUID+`","token":"t","changemoney":100,"bet":-1,"win":0,"gameId":23}`, nil)
	body := decode(t, rr)
	assert.Equal(t, "Invalid parameters", body["msg"])
}

func TestChangeBalance_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.wallet.changeBalance = func(context.Context, service.BalanceChange) (service.ChangeResult, error) {
		return service.ChangeResult{}, service.ErrInsufficientBalance
	}

	rr := f.post(t, "/buffalo/change-balance",
		`{"uid":"`+localUID+`","token":"t","changemoney":-500,"bet":500,"win":0,"gameId":23}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(0), body["code"])
	assert.Equal(t, "Insufficient balance", body["msg"])
}

func TestChangeBalance_MalformedJSON(t *testing.T) {
	f := newFixture(t)

	rr := f.post(t, "/buffalo/change-balance", `{"uid":`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLaunchGame_Local(t *testing.T) {
	f := newFixture(t)
	f.launch.launch = func(_ context.Context, req service.LaunchRequest) (service.LaunchResult, error) {
		assert.Equal(t, 23, req.ProviderID)
		assert.Equal(t, 2, req.RoomID)
		return service.LaunchResult{
			URL:        "https://prime.next-api.net/?gameId=23&roomId=2&uid=x",
			Room:       rooms.Room{ID: 2, Name: "Room 500", MinBet: 500, MaxBet: 5000},
			Balance:    2500,
			SitePrefix: "mxm",
		}, nil
	}

	rr := f.post(t, "/buffalo/launch-game",
		`{"uid":"`+localUID+`","token":"t","provider_id":23,"room_id":2}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["code"])
	assert.Contains(t, body["Url"], "roomId=2")
	assert.Equal(t, body["Url"], body["game_url"])
	assert.Equal(t, float64(2500), body["user_balance"])
	assert.Equal(t, "mxm", body["site_prefix"])
}

func TestLaunchGame_RoomUnavailable(t *testing.T) {
	f := newFixture(t)
	f.launch.launch = func(context.Context, service.LaunchRequest) (service.LaunchResult, error) {
		return service.LaunchResult{}, service.ErrRoomUnavailable
	}

	rr := f.post(t, "/buffalo/launch-game", `{"uid":"`+localUID+`","token":"t","room_id":4}`, nil)
	body := decode(t, rr)
	assert.Equal(t, "Room not available for your balance level", body["msg"])
}

func TestLaunchGame_RemoteForwarded(t *testing.T) {
	f := newFixture(t)
	f.fwd.forward = func(_ context.Context, site *config.Site, endpoint config.Endpoint, _ string, _ []byte) (*forwarder.Result, error) {
		assert.Equal(t, config.EndpointLaunchGame, endpoint)
		return &forwarder.Result{StatusCode: http.StatusOK, Body: []byte(`{"code":1,"msg":"ok"}`)}, nil
	}

	rr := f.post(t, "/buffalo/launch-game", `{"uid":"symabcdef","token":"t"}`, nil)
	assert.JSONEq(t, `{"code":1,"msg":"ok"}`, rr.Body.String())
}

func TestGameAuth_RequiresSession(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/buffalo/game-auth", nil)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGameAuth(t *testing.T) {
	f := newFixture(t)
	user := &models.User{ID: 1, UserName: "PLAYER0101", Balance: 2500}
	f.sessions.users["sess-token"] = user
	f.launch.gameAuth = func(u *models.User, sitePrefix string) (service.GameAuthData, error) {
		assert.Equal(t, user, u)
		return service.GameAuthData{
			Auth:           service.AuthPayload{UID: localUID, Token: "tok"},
			AvailableRooms: rooms.Default().Available(u.Balance),
			AllRooms:       rooms.Default().All(),
			UserBalance:    u.Balance,
		}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/buffalo/game-auth", nil)
	req.Header.Set("Authorization", "Bearer sess-token")
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(1), body["code"])
	data := body["data"].(map[string]any)
	auth := data["auth"].(map[string]any)
	assert.Equal(t, localUID, auth["uid"])
	assert.Len(t, data["available_rooms"], 2)
	assert.Len(t, data["all_rooms"], 4)
}

func TestGameURL(t *testing.T) {
	f := newFixture(t)
	user := &models.User{ID: 1, UserName: "PLAYER0101", Balance: 600}
	f.sessions.users["sess-token"] = user
	f.launch.auth = func(username, sitePrefix string) (service.AuthPayload, error) {
		assert.Equal(t, "PLAYER0101", username)
		return service.AuthPayload{UID: localUID, Token: "tok"}, nil
	}
	f.launch.launch = func(_ context.Context, req service.LaunchRequest) (service.LaunchResult, error) {
		assert.Equal(t, localUID, req.UID)
		assert.Equal(t, "tok", req.Token)
		return service.LaunchResult{URL: "https://game.example/play", Balance: 600}, nil
	}

	rr := f.post(t, "/buffalo/game-url", `{"room_id":1}`, map[string]string{
		"Authorization": "Bearer sess-token",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://game.example/play", data["game_url"])
	assert.Equal(t, float64(600), data["user_balance"])
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/buffalo/get-user-balance", nil)
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
