package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/identity"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/rooms"
)

// GameLogin is the payload the upstream game-login API expects.
type GameLogin struct {
	UID      string
	Token    string
	GameID   int
	RoomID   int
	LobbyURL string
	Domain   string
}

// GameLauncher obtains a playable game URL from the upstream provider.
type GameLauncher interface {
	GameLogin(ctx context.Context, site *config.Site, login GameLogin) (string, error)
}

type LaunchRequest struct {
	UID        string
	Token      string
	ProviderID int
	GameID     int
	RoomID     int
	SitePrefix string
	LobbyURL   string
}

type LaunchResult struct {
	URL        string
	Room       rooms.Room
	Balance    int64
	SitePrefix string
	LobbyURL   string
}

// AuthPayload is the credential set a frontend passes to the game client.
type AuthPayload struct {
	UID        string `json:"uid"`
	Token      string `json:"token"`
	SitePrefix string `json:"site_prefix"`
	UserName   string `json:"user_name"`
}

// GameAuthData is everything the lobby needs to render for a player.
type GameAuthData struct {
	Auth           AuthPayload  `json:"auth"`
	AvailableRooms []rooms.Room `json:"available_rooms"`
	AllRooms       []rooms.Room `json:"all_rooms"`
	UserBalance    int64        `json:"user_balance"`
	SitePrefix     string       `json:"site_prefix"`
}

// LaunchService builds game URLs and lobby auth data for local players.
type LaunchService struct {
	sites      *config.Registry
	codec      *identity.Codec
	rooms      *rooms.Table
	launcher   GameLauncher
	uow        UnitOfWorkFactory
	providerID int
	log        *logrus.Entry
}

func NewLaunchService(sites *config.Registry, codec *identity.Codec, table *rooms.Table, launcher GameLauncher, uow UnitOfWorkFactory, providerID int) *LaunchService {
	return &LaunchService{
		sites:      sites,
		codec:      codec,
		rooms:      table,
		launcher:   launcher,
		uow:        uow,
		providerID: providerID,
		log:        logrus.WithField("component", "launch"),
	}
}

// Auth returns the credential pair for a player at a site.
func (s *LaunchService) Auth(username, sitePrefix string) (AuthPayload, error) {
	prefix := s.sites.ResolveSitePrefix(sitePrefix)
	site, ok := s.sites.Lookup(prefix)
	if !ok || !s.sites.Serviceable(site) {
		return AuthPayload{}, ErrUnknownSite
	}
	return AuthPayload{
		UID:        identity.EncodeUID(username, site),
		Token:      identity.Token(username, site),
		SitePrefix: site.Prefix,
		UserName:   username,
	}, nil
}

// GameAuth assembles the lobby bootstrap data for a logged-in player.
func (s *LaunchService) GameAuth(user *models.User, sitePrefix string) (GameAuthData, error) {
	auth, err := s.Auth(user.UserName, sitePrefix)
	if err != nil {
		return GameAuthData{}, err
	}
	return GameAuthData{
		Auth:           auth,
		AvailableRooms: s.rooms.Available(user.Balance),
		AllRooms:       s.rooms.All(),
		UserBalance:    user.Balance,
		SitePrefix:     auth.SitePrefix,
	}, nil
}

// Launch validates the player and room and asks the upstream provider
// for a playable game URL.
func (s *LaunchService) Launch(ctx context.Context, req LaunchRequest) (LaunchResult, error) {
	if req.ProviderID != 0 && req.ProviderID != s.providerID {
		return LaunchResult{}, ErrInvalidProvider
	}

	prefix := s.sites.ResolveSitePrefix(req.SitePrefix)
	if req.UID != "" {
		prefix = config.ResolvePrefix(req.UID)
	}
	site, ok := s.sites.Lookup(prefix)
	if !ok || !s.sites.Serviceable(site) {
		return LaunchResult{}, ErrUnknownSite
	}

	username, ok, err := s.codec.VerifyToken(ctx, req.UID, req.Token)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("verify token: %w", err)
	}
	if !ok {
		return LaunchResult{}, ErrInvalidToken
	}
	user, err := s.uow.Unscoped().Users().GetByUsername(ctx, username)
	if err != nil {
		return LaunchResult{}, fmt.Errorf("resolve account: %w", err)
	}
	if user == nil {
		return LaunchResult{}, ErrUserNotFound
	}

	roomID := req.RoomID
	if roomID == 0 {
		roomID = 1
	}
	room, ok := s.rooms.Get(roomID)
	if !ok || !s.rooms.Eligible(roomID, user.Balance) {
		return LaunchResult{}, ErrRoomUnavailable
	}

	gameID := req.GameID
	if gameID == 0 {
		gameID = site.GameID
	}
	lobby := req.LobbyURL
	if lobby == "" {
		lobby = site.LobbyURL
	}

	gameURL, err := s.launcher.GameLogin(ctx, site, GameLogin{
		UID:      req.UID,
		Token:    req.Token,
		GameID:   gameID,
		RoomID:   roomID,
		LobbyURL: lobby,
		Domain:   site.Domain,
	})
	if err != nil {
		s.log.WithError(err).WithField("site", site.Prefix).Error("game login failed")
		return LaunchResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return LaunchResult{
		URL:        withCredentials(gameURL, req.UID, req.Token),
		Room:       room,
		Balance:    user.Balance,
		SitePrefix: site.Prefix,
		LobbyURL:   lobby,
	}, nil
}

// withCredentials appends the player's uid and token to the game URL so
// the game client can call back without a second handshake.
func withCredentials(gameURL, uid, token string) string {
	sep := "?"
	if strings.Contains(gameURL, "?") {
		sep = "&"
	}
	v := url.Values{}
	v.Set("uid", uid)
	v.Set("token", token)
	return gameURL + sep + v.Encode()
}
