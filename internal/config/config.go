package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// ReapInterval is how often the reaper sweeps; EmptyRoomTTL is how
	// long an emptied room is retained before the sweep deletes it.
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`
	EmptyRoomTTL time.Duration `mapstructure:"empty_room_ttl" yaml:"empty_room_ttl"`

	// DefaultMaxParticipants applies when a create request omits a
	// capacity. RetainWhenLastLeaves keeps a room alive when its last
	// leaver was not the remembered host.
	DefaultMaxParticipants int  `mapstructure:"default_max_participants" yaml:"default_max_participants"`
	RetainWhenLastLeaves   bool `mapstructure:"retain_when_last_leaves" yaml:"retain_when_last_leaves"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                   ":8080",
		ReadHeaderTimeout:      5 * time.Second,
		ShutdownTimeout:        5 * time.Second,
		LogLevel:               "info",
		ReapInterval:           time.Minute,
		EmptyRoomTTL:           10 * time.Minute,
		DefaultMaxParticipants: 16,
		RetainWhenLastLeaves:   true,
	}
}
