/*
Package settings controls reading configuration from environment and
defaults, and exposes the process-wide logger.
*/
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

var Settings *DPSettings
var Logger zerolog.Logger

// DPKafka configures the sarama consumer the dedupe service reads from.
type DPKafka struct {
	// Kafka bootstrap server list
	Endpoint string `koanf:"endpoint" validate:"required"`
	// consumer group id
	ConsumerGroup string `koanf:"consumer_group" validate:"required"`
	// topics to consume events from
	Topics []string `koanf:"topics" validate:"required,min=1"`
	// poll wait for the consumer, parsed as a Go duration string
	PollWait string `koanf:"poll_wait"`
	// number of retries for kafka to become available before crashing
	ConnectRetries int64 `koanf:"connect_retries"`
}

// DPDedupe configures the Filter/Controller the service maintains.
type DPDedupe struct {
	// expected distinct keys observed within one decay_time window
	Capacity int `koanf:"capacity" validate:"required,gt=0"`
	// how long a key is considered "seen" after being added, e.g. "5m"
	DecayTime string `koanf:"decay_time" validate:"required"`
	// target false-positive error rate
	Error float64 `koanf:"error" validate:"gt=0,lt=1"`
	// dotted JSON path (gjson syntax) used to extract the dedupe key from each event
	KeyPath string `koanf:"key_path" validate:"required"`
	// enable the scaling controller instead of a single fixed-size filter
	Scaling         bool    `koanf:"scaling"`
	GrowthFactor    float64 `koanf:"growth_factor"`
	ErrorTightening float64 `koanf:"error_tightening_ratio"`
	MaxFillFactor   float64 `koanf:"max_fill_factor"`
	MinFillFactor   float64 `koanf:"min_fill_factor"`
}

// DPSettings is the top level configuration for the dedupe service.
type DPSettings struct {
	// restapi server will listen for connections from this address
	ListenAddr string `koanf:"listen_addr" validate:"required"`
	// for custom log files, the folder to place these files in
	LogPath string   `koanf:"log_path"`
	Kafka   DPKafka  `koanf:"kafka"`
	Dedupe  DPDedupe `koanf:"dedupe"`
	// path to write the audit log of duplicate-suppression decisions
	AuditLogPath string `koanf:"audit_log_path"`
}

var defaults = DPSettings{
	ListenAddr: ":8111",
	LogPath:    "/tmp/logs/dedupe/",
	Kafka: DPKafka{
		Endpoint:       "",
		ConsumerGroup:  "dedupe",
		Topics:         []string{"events"},
		PollWait:       "1s",
		ConnectRetries: 10,
	},
	Dedupe: DPDedupe{
		Capacity:        100_000,
		DecayTime:       "5m",
		Error:           0.005,
		KeyPath:         "id",
		Scaling:         true,
		GrowthFactor:    2.828427125,
		ErrorTightening: 0.9,
		MaxFillFactor:   0.9,
		MinFillFactor:   0.2,
	},
	AuditLogPath: "/tmp/logs/dedupe/audit.log",
}

var validate = validator.New()

// ParseSettings loads defaults, optionally overlays a YAML file named by
// the <envPrefix>CONFIG_FILE environment variable, then overlays
// environment variables prefixed with envPrefix using "__" to separate
// nested keys (e.g. DEDUPE_KAFKA__ENDPOINT=broker:9092 sets
// Kafka.Endpoint), and validates the result. Each layer only overrides
// the keys it actually sets.
func ParseSettings(envPrefix string) (*DPSettings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, err
	}

	if path, ok := os.LookupEnv(envPrefix + "CONFIG_FILE"); ok && path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("settings: loading config file %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		return nil, err
	}

	var out DPSettings
	if err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &out,
			WeaklyTypedInput: true,
			Metadata:         nil,
		},
	}); err != nil {
		return nil, err
	}

	// mergo.Merge fills any field koanf's decode left zero-valued (e.g. a
	// nested struct omitted entirely from the environment) from defaults.
	if err := mergo.Merge(&out, defaults); err != nil {
		return nil, err
	}

	if err := validate.Struct(out); err != nil {
		return nil, err
	}

	return &out, nil
}

// flattenKeys is used when reporting which keys a config load touched,
// handy for startup log lines.
func flattenKeys(m map[string]interface{}) []string {
	flat, _ := maps.Flatten(m, nil, ".")
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	return keys
}

// Init loads settings from the environment, sets up the process logger
// and file-rotated sinks, and assigns the package-level Settings.
func Init(envPrefix string) error {
	s, err := ParseSettings(envPrefix)
	if err != nil {
		return err
	}
	Settings = s

	level := zerolog.InfoLevel
	if lvl, ok := os.LookupEnv(envPrefix + "LOG_LEVEL"); ok {
		if parsed, perr := zerolog.ParseLevel(strings.ToLower(lvl)); perr == nil {
			level = parsed
		}
	}
	Logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if m, mErr := structs.Provider(*s, "koanf").Read(); mErr == nil {
		Logger.Debug().Strs("keys", flattenKeys(m)).Msg("settings loaded")
	}

	if err := os.MkdirAll(s.LogPath, 0o770); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.AuditLogPath), 0o770); err != nil {
		return err
	}
	createFileLoggers(s)
	return nil
}
