package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	xstrings "admission/pkg/platform/strings"
)

// EnvPrefix namespaces environment overrides, e.g. ADMISSION_LOG_LEVEL.
const EnvPrefix = "ADMISSION"

// MaxPreferencesLimit is the upper bound for the preference list length.
const MaxPreferencesLimit = 8

// DefaultColleges is the college table used when none is configured.
var DefaultColleges = []string{
	"PES University",
	"RV College of Engineering",
	"BMS College of Engineering",
	"MS Ramaiah Institute of Technology",
}

// Config captures the run parameters.
type Config struct {
	TotalStudents    int      `validate:"gt=0"`
	MaxPreferences   int      `validate:"min=1,max=8"`
	RegistryCapacity int      `validate:"gt=0"`
	Colleges         []string `validate:"min=1,dive,required"`
	StatusAddr       string
	LogLevel         string `validate:"oneof=debug info warn error"`
}

// ErrUsage reports a command line that does not match the expected shape.
var ErrUsage = errors.New("usage: admission <total_students> <max_preferences> [flags]")

// Load builds a Config from, lowest precedence first: defaults, an optional
// .env file, ADMISSION_* environment variables, flags and the two positional
// arguments <total_students> <max_preferences>.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("admission", pflag.ContinueOnError)
	fs.Int("total-students", 0, "total expected number of students")
	fs.Int("max-preferences", 3, "maximum preferences per student (1-8)")
	fs.Int("registry-capacity", 100, "maximum verification records")
	fs.StringSlice("colleges", DefaultColleges, "comma separated college names")
	fs.String("status-addr", "", "listen address for the read-only status server (disabled when empty)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	envFile := fs.String("env-file", ".env", "optional dotenv file")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	cfg := Config{
		TotalStudents:    v.GetInt("total-students"),
		MaxPreferences:   v.GetInt("max-preferences"),
		RegistryCapacity: v.GetInt("registry-capacity"),
		Colleges:         collegesFrom(v),
		StatusAddr:       v.GetString("status-addr"),
		LogLevel:         strings.ToLower(v.GetString("log-level")),
	}

	switch positional := fs.Args(); len(positional) {
	case 0:
	case 2:
		total, err := strconv.Atoi(positional[0])
		if err != nil {
			return Config{}, errors.New("total students must be a positive number")
		}
		maxPrefs, err := strconv.Atoi(positional[1])
		if err != nil {
			return Config{}, fmt.Errorf("max preferences must be between 1 and %d", MaxPreferencesLimit)
		}
		cfg.TotalStudents = total
		cfg.MaxPreferences = maxPrefs
	default:
		return Config{}, ErrUsage
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field and returns the first violation in plain words.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	switch fe := fieldErrs[0]; fe.Field() {
	case "TotalStudents":
		return errors.New("total students must be a positive number")
	case "MaxPreferences":
		return fmt.Errorf("max preferences must be between 1 and %d", MaxPreferencesLimit)
	case "RegistryCapacity":
		return errors.New("registry capacity must be a positive number")
	case "LogLevel":
		return fmt.Errorf("log level must be one of: %s", fe.Param())
	default:
		return fmt.Errorf("invalid %s", fe.Namespace())
	}
}

// collegesFrom accepts the flag value or a comma separated environment value.
// Blank and repeated names are dropped.
func collegesFrom(v *viper.Viper) []string {
	if raw, ok := v.Get("colleges").(string); ok {
		return xstrings.SplitList(raw, ",")
	}
	return xstrings.DedupeAndTrim(v.GetStringSlice("colleges"))
}
