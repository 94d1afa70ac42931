package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

type launchPayload struct {
	UID        string      `json:"uid"`
	Token      string      `json:"token"`
	TypeID     json.Number `json:"type_id"`
	ProviderID json.Number `json:"provider_id"`
	GameID     json.Number `json:"game_id"`
	RoomID     json.Number `json:"room_id"`
	SitePrefix string      `json:"site_prefix"`
	LobbyURL   string      `json:"lobby_url"`
}

func parseLaunchPayload(contentType string, body []byte) (*launchPayload, error) {
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		return &launchPayload{
			UID:        values.Get("uid"),
			Token:      values.Get("token"),
			TypeID:     json.Number(values.Get("type_id")),
			ProviderID: json.Number(values.Get("provider_id")),
			GameID:     json.Number(values.Get("game_id")),
			RoomID:     json.Number(values.Get("room_id")),
			SitePrefix: values.Get("site_prefix"),
			LobbyURL:   values.Get("lobby_url"),
		}, nil
	}
	var p launchPayload
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Server) handleLaunchGame(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	p, err := parseLaunchPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	providerID, providerOK := intField(p.ProviderID)
	gameID, gameOK := intField(p.GameID)
	roomID, roomOK := intField(p.RoomID)
	if !providerOK || !gameOK || !roomOK {
		writeFailure(w, "Invalid parameters")
		return
	}

	// A uid routes by its own prefix; otherwise site_prefix or the
	// default site decides.
	if p.UID != "" {
		if len(p.UID) > maxUIDLength {
			writeFailure(w, "Invalid parameters")
			return
		}
		site := s.resolveSite(p.UID)
		if site == nil {
			writeFailure(w, "Invalid site")
			return
		}
		if !site.Local {
			s.forwardRemote(w, r, site, config.EndpointLaunchGame, body)
			return
		}
	}

	result, err := s.launch.Launch(r.Context(), service.LaunchRequest{
		UID:        p.UID,
		Token:      p.Token,
		ProviderID: int(providerID),
		GameID:     int(gameID),
		RoomID:     int(roomID),
		SitePrefix: p.SitePrefix,
		LobbyURL:   p.LobbyURL,
	})
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	writeSuccess(w, "Success", map[string]any{
		"Url":          result.URL,
		"game_url":     result.URL,
		"room_info":    result.Room,
		"user_balance": result.Balance,
		"site_prefix":  result.SitePrefix,
		"lobby_url":    result.LobbyURL,
	})
}

func (s *Server) handleGameAuth(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r)
	data, err := s.launch.GameAuth(user, r.URL.Query().Get("site_prefix"))
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	writeSuccess(w, "Success", map[string]any{"data": data})
}

// handleGameURL builds a playable URL for a logged-in frontend player,
// deriving the uid/token pair server-side so the browser never computes
// credentials.
func (s *Server) handleGameURL(w http.ResponseWriter, r *http.Request) {
	user := sessionUser(r)

	body, err := readBody(r)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	p, err := parseLaunchPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	roomID, roomOK := intField(p.RoomID)
	gameID, gameOK := intField(p.GameID)
	if !roomOK || !gameOK {
		writeFailure(w, "Invalid parameters")
		return
	}

	auth, err := s.launch.Auth(user.UserName, p.SitePrefix)
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	result, err := s.launch.Launch(r.Context(), service.LaunchRequest{
		UID:        auth.UID,
		Token:      auth.Token,
		GameID:     int(gameID),
		RoomID:     int(roomID),
		SitePrefix: p.SitePrefix,
		LobbyURL:   p.LobbyURL,
	})
	if err != nil {
		writeFailure(w, failureMessage(err))
		return
	}
	writeSuccess(w, "Success", map[string]any{"data": map[string]any{
		"game_url":     result.URL,
		"room_info":    result.Room,
		"user_balance": result.Balance,
		"site_prefix":  result.SitePrefix,
	}})
}
