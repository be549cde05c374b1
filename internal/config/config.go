package config

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/creasty/defaults"

	srvErrors "github.com/kubev2v/priority-scheduler/pkg/errors"
	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

type Configuration struct {
	Server    Server    `debugmap:"visible"`
	Scheduler Scheduler `debugmap:"visible"`
	Hub       Hub       `debugmap:"visible"`
	LogFormat string    `debugmap:"visible" default:"console"`
	LogLevel  string    `debugmap:"visible" default:"debug"`
}

type Server struct {
	ServerMode      string        `debugmap:"visible" default:"dev"`
	HTTPPort        int           `debugmap:"visible" default:"8080"`
	ShutdownTimeout time.Duration `debugmap:"visible" default:"10s"`
}

type Scheduler struct {
	Mode    string `debugmap:"visible" default:"worker-pool"`
	Workers int    `debugmap:"visible" default:"4"`
	// StopTimeout bounds how long shutdown waits for queued tasks to drain.
	StopTimeout time.Duration `debugmap:"visible" default:"30s"`
}

type Hub struct {
	EchoPriority      int   `debugmap:"visible" default:"1"`
	BroadcastPriority int   `debugmap:"visible" default:"5"`
	MaxMessageSize    int64 `debugmap:"visible" default:"65536"`
	// WriteTimeout bounds a single websocket write to a client.
	WriteTimeout time.Duration `debugmap:"visible" default:"10s"`
}

type ConfigurationOption func(*Configuration)

func NewConfigurationWithOptions(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewConfigurationWithOptionsAndDefaults applies the struct defaults first
// and then the options.
func NewConfigurationWithOptionsAndDefaults(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{}
	_ = defaults.Set(c)
	for _, o := range opts {
		o(c)
	}
	return c
}

func WithServer(s Server) ConfigurationOption {
	return func(c *Configuration) {
		c.Server = s
	}
}

func WithScheduler(s Scheduler) ConfigurationOption {
	return func(c *Configuration) {
		c.Scheduler = s
	}
}

func WithHub(h Hub) ConfigurationOption {
	return func(c *Configuration) {
		c.Hub = h
	}
}

func WithLogFormat(format string) ConfigurationOption {
	return func(c *Configuration) {
		c.LogFormat = format
	}
}

func WithLogLevel(level string) ConfigurationOption {
	return func(c *Configuration) {
		c.LogLevel = level
	}
}

func (c *Configuration) Validate() error {
	if _, err := scheduler.ParseMode(c.Scheduler.Mode); err != nil {
		return srvErrors.NewConfigurationError("scheduler.mode", "%q is not one of worker-pool, async-dispatch", c.Scheduler.Mode)
	}
	if c.Scheduler.Mode == string(scheduler.ModeWorkerPool) && c.Scheduler.Workers < 1 {
		return srvErrors.NewConfigurationError("scheduler.workers", "must be at least 1, got %d", c.Scheduler.Workers)
	}
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return srvErrors.NewConfigurationError("server.http-port", "%d is out of range", c.Server.HTTPPort)
	}
	if c.Server.ServerMode != "dev" && c.Server.ServerMode != "prod" {
		return srvErrors.NewConfigurationError("server.server-mode", "%q is not one of dev, prod", c.Server.ServerMode)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return srvErrors.NewConfigurationError("log-format", "%q is not one of console, json", c.LogFormat)
	}
	if c.Hub.MaxMessageSize < 1 {
		return srvErrors.NewConfigurationError("hub.max-message-size", "must be positive, got %d", c.Hub.MaxMessageSize)
	}
	if c.Hub.WriteTimeout <= 0 {
		return srvErrors.NewConfigurationError("hub.write-timeout", "must be positive, got %s", c.Hub.WriteTimeout)
	}
	return nil
}

// DebugMap returns a flat map suitable for structured startup logging. Keys
// are the kebab-cased field paths ("server.http-port"); the `debugmap` tag of
// each field decides whether it is shown ("visible"), masked ("sensitive") or
// left out (anything else).
func (c Configuration) DebugMap() map[string]any {
	m := make(map[string]any)
	flattenDebugMap(m, "", reflect.ValueOf(c))
	return m
}

func flattenDebugMap(m map[string]any, prefix string, v reflect.Value) {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		key := kebabCase(field.Name)
		if prefix != "" {
			key = prefix + "." + key
		}

		switch field.Tag.Get("debugmap") {
		case "visible":
		case "sensitive":
			m[key] = "(sensitive)"
			continue
		default:
			continue
		}

		value := v.Field(i)
		if value.Kind() == reflect.Struct {
			flattenDebugMap(m, key, value)
			continue
		}
		if s, ok := value.Interface().(fmt.Stringer); ok {
			m[key] = s.String()
			continue
		}
		m[key] = value.Interface()
	}
}

// kebabCase turns a Go field name into a flag style name: HTTPPort becomes
// http-port, MaxMessageSize becomes max-message-size.
func kebabCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
