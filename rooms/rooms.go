package rooms

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

// Room is one stakes tier of the slot game. A player may enter a room
// when their balance covers its minimum bet.
type Room struct {
	ID          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	MinBet      int64  `json:"min_bet" mapstructure:"min_bet"`
	MaxBet      int64  `json:"max_bet" mapstructure:"max_bet"`
	Description string `json:"description" mapstructure:"description"`
}

type Table struct {
	rooms []Room
}

// Default returns the stakes tiers the game launched with.
func Default() *Table {
	return &Table{rooms: []Room{
		{ID: 1, Name: "Room 50", MinBet: 50, MaxBet: 500, Description: "Low stakes room"},
		{ID: 2, Name: "Room 500", MinBet: 500, MaxBet: 5000, Description: "Medium stakes room"},
		{ID: 3, Name: "Room 5000", MinBet: 5000, MaxBet: 50000, Description: "High stakes room"},
		{ID: 4, Name: "Room 10000", MinBet: 10000, MaxBet: 100000, Description: "VIP room"},
	}}
}

// Load reads a room table from a YAML file, falling back to Default when
// the path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read rooms file: %w", err)
	}
	var cfg struct {
		Rooms []Room `mapstructure:"rooms"`
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse rooms file: %w", err)
	}
	if len(cfg.Rooms) == 0 {
		return Default(), nil
	}
	sort.Slice(cfg.Rooms, func(i, j int) bool { return cfg.Rooms[i].ID < cfg.Rooms[j].ID })
	for _, r := range cfg.Rooms {
		if r.ID <= 0 || r.MinBet <= 0 || r.MaxBet < r.MinBet {
			return nil, fmt.Errorf("rooms file: invalid room %d (min %d, max %d)", r.ID, r.MinBet, r.MaxBet)
		}
	}
	return &Table{rooms: cfg.Rooms}, nil
}

// All returns every room in ascending stakes order.
func (t *Table) All() []Room {
	out := make([]Room, len(t.rooms))
	copy(out, t.rooms)
	return out
}

// Available returns the rooms a balance qualifies for.
func (t *Table) Available(balance int64) []Room {
	var out []Room
	for _, r := range t.rooms {
		if balance >= r.MinBet {
			out = append(out, r)
		}
	}
	return out
}

// Get returns a room by id.
func (t *Table) Get(id int) (Room, bool) {
	for _, r := range t.rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}

// Eligible reports whether a balance meets a room's minimum bet.
func (t *Table) Eligible(id int, balance int64) bool {
	r, ok := t.Get(id)
	return ok && balance >= r.MinBet
}
