package remote

import (
	"net"
	"time"
)

// Config controls the control API.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Listen must be a loopback address; anything else is rebound to
	// 127.0.0.1 on the same port.
	Listen            string        `yaml:"listen"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	QueueSize         int           `yaml:"queue_size"`
	ReplyTimeout      time.Duration `yaml:"reply_timeout"`
	StreamHz          float32       `yaml:"stream_hz"`
	MaxClients        int           `yaml:"max_clients"`
}

// DefaultConfig returns a disabled API on 127.0.0.1:7420.
func DefaultConfig() Config {
	return Config{
		Listen:            "127.0.0.1:7420",
		RequestsPerSecond: 20,
		Burst:             40,
		QueueSize:         64,
		ReplyTimeout:      2 * time.Second,
		StreamHz:          10,
		MaxClients:        8,
	}
}

// loopback returns addr if it binds to a loopback interface, otherwise
// the same port on 127.0.0.1.
func loopback(addr string) (string, bool) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "127.0.0.1:7420", false
	}
	if host == "localhost" {
		return addr, true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return addr, true
	}
	return net.JoinHostPort("127.0.0.1", port), false
}
