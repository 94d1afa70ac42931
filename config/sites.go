package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Endpoint names a per-site webhook path in Site.APIEndpoints.
type Endpoint string

const (
	EndpointGetBalance    Endpoint = "get_balance"
	EndpointChangeBalance Endpoint = "change_balance"
	EndpointLaunchGame    Endpoint = "launch_game"
)

// Balance unit dialects observed across provider variants. The provider
// either expects the literal whole-unit balance or the balance multiplied
// by 100. This is a per-site contract, never inferred.
const (
	UnitInteger = "integer"
	UnitCents   = "cents"
)

const prefixLen = 3

// Site is one white-label operator sharing this backend. Immutable after load.
type Site struct {
	Prefix         string            `mapstructure:"prefix"`
	Name           string            `mapstructure:"name"`
	SiteURL        string            `mapstructure:"site_url"`
	APIURL         string            `mapstructure:"api_url"`
	LobbyURL       string            `mapstructure:"lobby_url"`
	ProviderAPIURL string            `mapstructure:"provider_api_url"`
	Domain         string            `mapstructure:"domain"`
	GameServerURL  string            `mapstructure:"game_server_url"`
	GameID         int               `mapstructure:"game_id"`
	TimeoutSec     int               `mapstructure:"api_timeout"`
	ForwardSec     int               `mapstructure:"forward_timeout"`
	BalanceUnit    string            `mapstructure:"balance_unit"`
	Local          bool              `mapstructure:"is_local"`
	Enabled        bool              `mapstructure:"enabled"`
	APIEndpoints   map[string]string `mapstructure:"api_endpoints"`
}

// Timeout bounds calls to the upstream game-login provider.
func (s *Site) Timeout() time.Duration {
	if s.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSec) * time.Second
}

// ForwardTimeout bounds webhook forwarding to a remote site's backend.
func (s *Site) ForwardTimeout() time.Duration {
	if s.ForwardSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.ForwardSec) * time.Second
}

// ExternalURL builds the full URL of a remote site's webhook endpoint, or ""
// when the site is local or the endpoint is not configured.
func (s *Site) ExternalURL(endpoint Endpoint) string {
	if s.Local {
		return ""
	}
	path, ok := s.APIEndpoints[string(endpoint)]
	if !ok || path == "" {
		return ""
	}
	return strings.TrimRight(s.APIURL, "/") + path
}

// ProviderBalance converts a whole-unit balance into the site's wire dialect.
func (s *Site) ProviderBalance(units int64) int64 {
	if s.BalanceUnit == UnitCents {
		return units * 100
	}
	return units
}

// Registry is the static prefix -> site mapping. Read-only after load.
type Registry struct {
	sites       map[string]*Site
	defaultSite string
}

// ResolvePrefix extracts the site prefix from a UID. Structural: the first
// three characters are the prefix, always.
func ResolvePrefix(uid string) string {
	if len(uid) < prefixLen {
		return uid
	}
	return uid[:prefixLen]
}

// Lookup returns the site for a prefix.
func (r *Registry) Lookup(prefix string) (*Site, bool) {
	s, ok := r.sites[prefix]
	return s, ok
}

// Serviceable reports whether a site may handle requests.
func (r *Registry) Serviceable(s *Site) bool {
	return s != nil && s.Enabled
}

// DefaultPrefix returns the prefix used when a request carries none.
func (r *Registry) DefaultPrefix() string {
	return r.defaultSite
}

// ResolveSitePrefix returns the provided prefix or falls back to the default.
func (r *Registry) ResolveSitePrefix(prefix string) string {
	if prefix == "" {
		return r.defaultSite
	}
	return prefix
}

// Enabled returns all serviceable sites.
func (r *Registry) Enabled() []*Site {
	var out []*Site
	for _, s := range r.sites {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// LoadSites builds the registry from the built-in defaults, optionally
// replaced wholesale by a YAML file. Validation fails fast so a misconfigured
// remote site is caught at boot rather than at call time.
func LoadSites(path, defaultSite string) (*Registry, error) {
	sites := defaultSites()
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read sites file: %w", err)
		}
		var fileCfg struct {
			DefaultSite string           `mapstructure:"default_site"`
			Sites       map[string]*Site `mapstructure:"sites"`
		}
		if err := v.Unmarshal(&fileCfg); err != nil {
			return nil, fmt.Errorf("parse sites file: %w", err)
		}
		if len(fileCfg.Sites) > 0 {
			sites = fileCfg.Sites
		}
		if fileCfg.DefaultSite != "" {
			defaultSite = fileCfg.DefaultSite
		}
	}
	r := &Registry{sites: sites, defaultSite: defaultSite}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) validate() error {
	for key, s := range r.sites {
		if len(s.Prefix) != prefixLen {
			return fmt.Errorf("site %q: prefix must be %d characters, got %q", key, prefixLen, s.Prefix)
		}
		if key != s.Prefix {
			return fmt.Errorf("site %q: registry key does not match prefix %q", key, s.Prefix)
		}
		if s.BalanceUnit == "" {
			s.BalanceUnit = UnitInteger
		}
		if s.BalanceUnit != UnitInteger && s.BalanceUnit != UnitCents {
			return fmt.Errorf("site %q: unknown balance_unit %q", key, s.BalanceUnit)
		}
		if !s.Local && s.Enabled {
			if s.APIURL == "" {
				return fmt.Errorf("remote site %q: api_url is required", key)
			}
			for _, ep := range []Endpoint{EndpointGetBalance, EndpointChangeBalance} {
				if s.APIEndpoints[string(ep)] == "" {
					return fmt.Errorf("remote site %q: api_endpoints.%s is required", key, ep)
				}
			}
		}
	}
	if _, ok := r.sites[r.defaultSite]; !ok {
		return fmt.Errorf("default site %q is not registered", r.defaultSite)
	}
	return nil
}

const (
	defaultProviderAPIURL = "https://api-ms3.african-buffalo.club/api/game-login"
	defaultDomain         = "prime.com"
	defaultGameID         = 23
	defaultTimeoutSec     = 30
)

func webhookEndpoints(withLaunch bool) map[string]string {
	m := map[string]string{
		"get_balance":    "/buffalo/get-user-balance",
		"change_balance": "/buffalo/change-balance",
	}
	if withLaunch {
		m["launch_game"] = "/buffalo/launch-game"
	}
	return m
}

// defaultSites mirrors the operator fleet this gateway shipped with. A
// deployment normally replaces this via BUFFALO_SITES_FILE.
func defaultSites() map[string]*Site {
	remote := func(prefix, name, siteURL, lobbyURL string) *Site {
		return &Site{
			Prefix:         prefix,
			Name:           name,
			SiteURL:        siteURL,
			APIURL:         siteURL + "/api",
			LobbyURL:       lobbyURL,
			ProviderAPIURL: defaultProviderAPIURL,
			Domain:         defaultDomain,
			GameServerURL:  lobbyURL,
			GameID:         defaultGameID,
			TimeoutSec:     defaultTimeoutSec,
			BalanceUnit:    UnitInteger,
			Local:          false,
			Enabled:        true,
			APIEndpoints:   webhookEndpoints(true),
		}
	}
	sites := map[string]*Site{
		"mxm": {
			Prefix:         "mxm",
			Name:           "MaxWin Myanmar",
			SiteURL:        "https://maxwinmyanmar.pro",
			APIURL:         "https://maxwinmyanmar.pro/api",
			LobbyURL:       "https://maxwinmyanmar.pro",
			ProviderAPIURL: defaultProviderAPIURL,
			Domain:         defaultDomain,
			GameServerURL:  "https://prime.next-api.net",
			GameID:         defaultGameID,
			TimeoutSec:     defaultTimeoutSec,
			BalanceUnit:    UnitInteger,
			Local:          true,
			Enabled:        true,
			APIEndpoints:   webhookEndpoints(false),
		},
		"sym": remote("sym", "Shanyoma", "https://ag.shanyoma789.com", "https://m.shanyoma789.com"),
		"gcc": remote("gcc", "Golden City Casino", "https://ag.goldencitycasino123.site", "https://ag.goldencitycasino123.site"),
		"ttt": remote("ttt", "TTT Gaming MM", "https://ag.tttgamingmm.pro", "https://tttgamingmm.pro"),
		"oxb": remote("oxb", "OneXBet", "https://ag.onexbetmm.site", "https://m.onexbetmm.site"),
		"tyb": remote("tyb", "TryBet", "https://ag.6tribet.net", "https://ag.6tribet.net"),
		"gm7": remote("gm7", "GameStar", "https://moneyking77.online", "https://moneyking77.online"),
	}
	// Retired operator, kept registered so its prefix stays reserved.
	mmg := remote("mmg", "Meemeegamecenter", "https://buffalo.meemeegamecenter.online", "https://buffalo.meemeegamecenter.online")
	mmg.Enabled = false
	sites["mmg"] = mmg
	return sites
}
