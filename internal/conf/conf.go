package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

type Bootstrap struct {
	Server    *Server    `json:"server"`
	Data      *Data      `json:"data"`
	Discord   *Discord   `json:"discord"`
	Blocklist *Blocklist `json:"blocklist"`
	Log       *Log       `json:"log"`
}

type Server struct {
	HTTP *Server_HTTP `json:"http"`
	GRPC *Server_GRPC `json:"grpc"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
	// AdminToken is the bearer token for the admin API. Empty disables it.
	AdminToken string `json:"admin_token"`
}

type Server_GRPC struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

type Data_Database struct {
	Driver string              `json:"driver"`
	Source string              `json:"source"`
	Pool   *Data_Database_Pool `json:"pool"`
}

// Data_Database_Pool lifetimes are expressed in minutes.
type Data_Database_Pool struct {
	MaxOpenConns    int32 `json:"max_open_conns"`
	MinIdleConns    int32 `json:"min_idle_conns"`
	MaxConnLifetime int   `json:"max_conn_lifetime"`
	MaxConnIdleTime int   `json:"max_conn_idle_time"`
}

type Data_Redis struct {
	Network      string    `json:"network"`
	Addr         string    `json:"addr"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
	HashCacheTTL *Duration `json:"hash_cache_ttl"`
}

type Discord struct {
	Token     string `json:"token"`
	Ephemeral bool   `json:"ephemeral"`
}

type Blocklist struct {
	FetchTimeout          *Duration `json:"fetch_timeout"`
	MaxImageBytes         int64     `json:"max_image_bytes"`
	PromptTimeout         *Duration `json:"prompt_timeout"`
	MergeRetries          int       `json:"merge_retries"`
	BulkDeleteLimit       int       `json:"bulk_delete_limit"`
	CommandCooldown       *Duration `json:"command_cooldown"`
	CooldownSweepInterval *Duration `json:"cooldown_sweep_interval"`
}

type Log struct {
	Level string `json:"level"`
}

// Duration accepts either a Go duration string ("5s") or integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}
