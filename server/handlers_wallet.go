package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/forwarder"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

const (
	maxBodyBytes = 1 << 20
	maxUIDLength = 50
)

// walletPayload covers both wallet webhooks. The provider posts JSON;
// some site backends re-post the same fields form-encoded.
type walletPayload struct {
	UID         string      `json:"uid"`
	Token       string      `json:"token"`
	ChangeMoney json.Number `json:"changemoney"`
	Bet         json.Number `json:"bet"`
	Win         json.Number `json:"win"`
	GameID      json.Number `json:"gameId"`
	BetUID      string      `json:"bet_uid"`
}

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func parseWalletPayload(contentType string, body []byte) (*walletPayload, error) {
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		return &walletPayload{
			UID:         values.Get("uid"),
			Token:       values.Get("token"),
			ChangeMoney: json.Number(values.Get("changemoney")),
			Bet:         json.Number(values.Get("bet")),
			Win:         json.Number(values.Get("win")),
			GameID:      json.Number(values.Get("gameId")),
			BetUID:      values.Get("bet_uid"),
		}, nil
	}
	var p walletPayload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// payloadMap re-reads the body as a generic map so the settlement can be
// stored exactly as the provider sent it.
func payloadMap(contentType string, body []byte) map[string]any {
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil
		}
		m := make(map[string]any, len(values))
		for k := range values {
			m[k] = values.Get(k)
		}
		return m
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return m
}

func intField(n json.Number) (int64, bool) {
	if n == "" {
		return 0, true
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveSite looks up the uid's site, or nil when the prefix is unknown
// or the site is disabled.
func (s *Server) resolveSite(uid string) *config.Site {
	site, ok := s.sites.Lookup(config.ResolvePrefix(uid))
	if !ok || !s.sites.Serviceable(site) {
		return nil
	}
	return site
}

// forwardRemote proxies the raw body to the remote site's backend and
// relays the reply. Transport problems become logical failures so the
// caller still sees the 200/code contract.
func (s *Server) forwardRemote(w http.ResponseWriter, r *http.Request, site *config.Site, endpoint config.Endpoint, body []byte) {
	res, err := s.forwarder.Forward(r.Context(), site, endpoint, r.Header.Get("Content-Type"), body)
	if err != nil {
		if errors.Is(err, forwarder.ErrNotConfigured) {
			writeFailure(w, "Site configuration error")
			return
		}
		writeFailure(w, "Connection error")
		return
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		s.log.WithFields(logrus.Fields{
			"site":   site.Prefix,
			"status": res.StatusCode,
		}).Warn("remote site rejected webhook")
		writeFailure(w, "External API error")
		return
	}
	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

func (s *Server) handleGetUserBalance(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	p, err := parseWalletPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.UID == "" || len(p.UID) > maxUIDLength || p.Token == "" {
		writeFailure(w, "Invalid parameters")
		return
	}

	site := s.resolveSite(p.UID)
	if site == nil {
		writeFailure(w, "Invalid site")
		return
	}
	if !site.Local {
		s.forwardRemote(w, r, site, config.EndpointGetBalance, body)
		return
	}

	balance, err := s.wallet.GetBalance(r.Context(), p.UID, p.Token)
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	writeSuccess(w, "Success", map[string]any{"balance": balance})
}

func (s *Server) handleChangeBalance(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	p, err := parseWalletPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.UID == "" || len(p.UID) > maxUIDLength || p.Token == "" {
		writeFailure(w, "Invalid parameters")
		return
	}

	site := s.resolveSite(p.UID)
	if site == nil {
		writeFailure(w, "Invalid site")
		return
	}
	if !site.Local {
		s.forwardRemote(w, r, site, config.EndpointChangeBalance, body)
		return
	}

	change, changeOK := intField(p.ChangeMoney)
	bet, betOK := intField(p.Bet)
	win, winOK := intField(p.Win)
	gameID, gameOK := intField(p.GameID)
	if !changeOK || !betOK || !winOK || !gameOK || bet < 0 {
		writeFailure(w, "Invalid parameters")
		return
	}

	result, err := s.wallet.ChangeBalance(r.Context(), service.BalanceChange{
		UID:          p.UID,
		Token:        p.Token,
		BetUID:       p.BetUID,
		ChangeAmount: change,
		BetAmount:    bet,
		WinAmount:    win,
		GameID:       int(gameID),
		Payload:      payloadMap(r.Header.Get("Content-Type"), body),
	})
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	writeSuccess(w, "Success", map[string]any{"balance": result.Balance})
}
