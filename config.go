package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ModeSample = "sample"
	ModeStats  = "stats"
	ModeQuiet  = "quiet"

	defaultPort     = 5777
	defaultCount    = 5
	defaultInterval = 1.0
)

// Config is fixed for one invocation. A non-empty Host selects the
// transmitter role.
type Config struct {
	Host             string        `flag:"t" validate:"omitempty,hostname_rfc1123"`
	Port             int           `flag:"p" validate:"min=1,max=65535"`
	Count            int           `flag:"n" validate:"min=1"`
	Interval         time.Duration `flag:"i" validate:"min=0"`
	Output           string        `flag:"o"`
	Timeout          time.Duration `flag:"timeout" validate:"min=0"`
	Mode             string        `flag:"mode" validate:"oneof=sample stats quiet"`
	KernelTimestamps bool          `flag:"kernel-timestamps"`
	Verbose          bool          `flag:"v"`
}

func (c *Config) Transmitter() bool {
	return c.Host != ""
}

// usageError marks problems with the command line; they exit with status 2.
type usageError struct {
	error
}

func (e usageError) Unwrap() error { return e.error }

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return "-" + f.Tag.Get("flag")
	})
	return v
}()

// secondsToDuration truncates fractional seconds to whole microseconds.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s*1e6) * time.Microsecond
}

func applyEnv(conf *Config, interval *float64, getenv func(string) string) error {
	var err error
	if v := getenv("NETSYNCSTAT_PORT"); v != "" {
		if conf.Port, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("NETSYNCSTAT_PORT: %w", err)
		}
	}
	if v := getenv("NETSYNCSTAT_COUNT"); v != "" {
		if conf.Count, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("NETSYNCSTAT_COUNT: %w", err)
		}
	}
	if v := getenv("NETSYNCSTAT_INTERVAL"); v != "" {
		if *interval, err = strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("NETSYNCSTAT_INTERVAL: %w", err)
		}
	}
	if v := getenv("NETSYNCSTAT_OUTPUT"); v != "" {
		conf.Output = v
	}
	return nil
}

// parseConfig builds the configuration from environment defaults overridden
// by command line flags.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (Config, error) {
	conf := Config{
		Port:  defaultPort,
		Count: defaultCount,
		Mode:  ModeSample,
	}
	interval := defaultInterval
	if err := applyEnv(&conf, &interval, getenv); err != nil {
		return conf, usageError{err}
	}

	fs := flag.NewFlagSet("netsyncstat", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&conf.Host, "t", "", "transmitter mode: host to send timestamps to (listener mode when empty)")
	fs.IntVar(&conf.Port, "p", conf.Port, "UDP port")
	fs.IntVar(&conf.Count, "n", conf.Count, "number of samples to send or receive")
	fs.Float64Var(&interval, "i", interval, "interval between sends in seconds (transmitter)")
	fs.StringVar(&conf.Output, "o", conf.Output, "file receiving the raw time differences, one per line (listener)")
	fs.DurationVar(&conf.Timeout, "timeout", 0, "give up waiting for a datagram after this long; 0 waits forever (listener)")
	fs.StringVar(&conf.Mode, "mode", conf.Mode, "per-datagram output: sample, stats or quiet (listener)")
	fs.BoolVar(&conf.KernelTimestamps, "kernel-timestamps", false, "use kernel receive timestamps (listener)")
	fs.BoolVar(&conf.Verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return conf, err
		}
		return conf, usageError{err}
	}
	if fs.NArg() > 0 {
		return conf, usageError{fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))}
	}
	if interval < 0 {
		return conf, usageError{fmt.Errorf("-i: interval must not be negative, got %v", interval)}
	}
	conf.Interval = secondsToDuration(interval)

	if err := validate.Struct(&conf); err != nil {
		return conf, usageError{describeValidation(err)}
	}
	return conf, nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: invalid value %v (%s", fe.Field(), fe.Value(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg+")")
	}
	return errors.New(strings.Join(msgs, "; "))
}
