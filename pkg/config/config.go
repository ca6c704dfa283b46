package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Export defaults
const (
	DefaultEndpoint   = "https://api.logdna.com/v1/export"
	DefaultWindowSize = 24 * time.Hour
	DefaultLookback   = 24 * time.Hour
	DefaultOutputDir  = "."
)

// Environment variables consulted when a flag is not set
const (
	EnvServiceKey = "LOGDNA_SERVICE_KEY"
	EnvEndpoint   = "LOGDNA_EXPORT_URL"
)

// ErrMissingCredential is returned when no service key was supplied.
var ErrMissingCredential = errors.New("missing required service key")

// ConfigurationError aborts a run before any network activity.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExportConfig is the fully resolved, immutable description of one export run.
type ExportConfig struct {
	Start      time.Time
	End        time.Time
	WindowSize time.Duration
	Query      string
	ServiceKey string

	Endpoint  string
	OutputDir string
}

// Raw holds flag values exactly as the operator typed them.
// Empty strings mean "not supplied".
type Raw struct {
	Start      string
	End        string
	Delta      string
	Query      string
	ServiceKey string
	Endpoint   string
	OutputDir  string
}

// File is the optional YAML config file.
type File struct {
	ServiceKey string `yaml:"service_key"`
	Endpoint   string `yaml:"endpoint"`
	OutputDir  string `yaml:"output_dir"`
	Query      string `yaml:"query"`
	Delta      int64  `yaml:"delta"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to read config file: %w", err)}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("failed to parse config file %s: %w", path, err)}
	}
	return &f, nil
}

// Merge fills unset fields of r from the environment and then from f.
// Precedence is flag > env > file.
func (r Raw) Merge(f *File, getenv func(string) string) Raw {
	if getenv == nil {
		getenv = os.Getenv
	}
	if r.ServiceKey == "" {
		r.ServiceKey = getenv(EnvServiceKey)
	}
	if r.Endpoint == "" {
		r.Endpoint = getenv(EnvEndpoint)
	}
	if f == nil {
		return r
	}
	if r.ServiceKey == "" {
		r.ServiceKey = f.ServiceKey
	}
	if r.Endpoint == "" {
		r.Endpoint = f.Endpoint
	}
	if r.OutputDir == "" {
		r.OutputDir = f.OutputDir
	}
	if r.Query == "" {
		r.Query = f.Query
	}
	if r.Delta == "" && f.Delta > 0 {
		r.Delta = strconv.FormatInt(f.Delta, 10)
	}
	return r
}

// Resolve applies the defaulting policy and validates the result.
// now is injected so defaults can be checked deterministically.
func Resolve(r Raw, now time.Time) (ExportConfig, error) {
	key := strings.TrimSpace(r.ServiceKey)
	if key == "" {
		return ExportConfig{}, &ConfigurationError{Err: ErrMissingCredential}
	}

	start := now.Add(-DefaultLookback)
	if r.Start != "" {
		if t, err := ParseTime(r.Start); err == nil {
			start = t
		} else {
			logrus.Warnf("⚠️  Invalid start date %q, using %s", r.Start, start.Format(time.RFC3339))
		}
	}

	end := now
	if r.End != "" {
		if t, err := ParseTime(r.End); err == nil {
			end = t
		} else {
			logrus.Warnf("⚠️  Invalid end date %q, using %s", r.End, end.Format(time.RFC3339))
		}
	}

	if end.Before(start) {
		return ExportConfig{}, &ConfigurationError{
			Err: fmt.Errorf("end date %s is before start date %s", end.Format(time.RFC3339), start.Format(time.RFC3339)),
		}
	}

	windowSize := DefaultWindowSize
	if r.Delta != "" {
		ms, err := strconv.ParseInt(strings.TrimSpace(r.Delta), 10, 64)
		if err == nil && ms > 0 {
			windowSize = time.Duration(ms) * time.Millisecond
		} else {
			logrus.Warnf("⚠️  Invalid delta %q, using %d ms", r.Delta, DefaultWindowSize.Milliseconds())
		}
	}

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	outputDir := r.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	return ExportConfig{
		Start:      start,
		End:        end,
		WindowSize: windowSize,
		Query:      r.Query,
		ServiceKey: key,
		Endpoint:   endpoint,
		OutputDir:  outputDir,
	}, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339, a zone-less ISO-8601 datetime or date (UTC),
// or an integer number of milliseconds since the Unix epoch.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (want RFC 3339, YYYY-MM-DD or epoch milliseconds)", s)
}
