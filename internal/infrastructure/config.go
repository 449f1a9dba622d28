package infra

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper, eg. WDA_DATABASE_DRIVER
const EnvPrefix = "WDA"

const (
	// EnvDevelopment development runtime
	EnvDevelopment = "development"
	// EnvProduction production runtime
	EnvProduction = "production"
)

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port" validate:"min=1,max=65535"`           // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`
	Database       struct {
		Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=postgres mysql sqlite"`   // driver name
		Host     string `mapstructure:"host" json:"host" yaml:"host"`                                                // server host
		MaxConn  int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=1"`                      // maximum opening connections number
		Password string `mapstructure:"password" json:"-" yaml:"password"`                                           // db password
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
		Protocol string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
		Query    string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
		Schema   string `mapstructure:"schema" json:"schema" yaml:"schema" validate:"required"`                      // schema, or file path for sqlite
		User     string `mapstructure:"username" json:"username" yaml:"username"`                                    // db username
	} `mapstructure:"database" json:"database" yaml:"database"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	Security struct {
		IDLength  int    `mapstructure:"id_length" json:"id_length" yaml:"id_length" validate:"min=8"` // length of generated ID for entities
		JWTMethod string `mapstructure:"jwt_method" json:"jwt_method" yaml:"jwt_method" validate:"oneof=HS256 HS384 HS512"`
		JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"jwt_secret" validate:"required"`
		TokenName string `mapstructure:"token_name" json:"token_name" yaml:"token_name" validate:"required"` // jwt token name set in cookie
	} `mapstructure:"security" json:"security" yaml:"security"`
	KVStore struct {
		Driver   string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"oneof=redis memory"`
		Host     string `mapstructure:"host" json:"host" yaml:"host"` // bind host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"` // bind listen port
		Password string `mapstructure:"password" json:"-" yaml:"password"`
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	DevOP struct {
		APM     bool `mapstructure:"apm" json:"apm" yaml:"apm"`
		Metrics bool `mapstructure:"metrics" json:"metrics" yaml:"metrics"` // expose /metrics
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
	Jobs struct {
		Enabled         bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
		StreakRefreshAt string        `mapstructure:"streak_refresh_at" json:"streak_refresh_at" yaml:"streak_refresh_at" validate:"datetime=15:04"` // UTC
		Timeout         time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`                                                       // deadline of one job run
	} `mapstructure:"jobs" json:"jobs" yaml:"jobs"`
}

// RegisterFlags declare every config flag on fs
func RegisterFlags(fs *pflag.FlagSet) {
	// app
	fs.String("host", "", "binding address")
	fs.String("app_id", "webdevacademy", "application identifier")
	fs.String("env", EnvDevelopment, "runtime environment, can be 'development' or 'production'")
	fs.Int("port", 8081, "listening port")
	fs.Duration("request_timeout", 10*time.Second, "request processing deadline, also the lifetime of per-user completion locks")

	// database
	fs.String("database.driver", "sqlite", "database driver to use, one of postgres, mysql, sqlite")
	fs.String("database.host", "127.0.0.1", "database host")
	fs.Int("database.port", 5432, "database server port")
	fs.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	fs.String("database.username", "", "database username")
	fs.String("database.password", "", "database password")
	fs.String("database.schema", "webdevacademy.db", "database schema, or the database file with sqlite")
	fs.String("database.query", "", `additional DSN query parameters('?' is auto prefixed), with mysql you may want
"clientFoundRows=true" so unchanged rows still count as affected`)
	fs.Int32("database.maxconn", 20, `max connection count, if you encounter a "too many connections" error, please consider
increasing the max_connection value of your db server, or lower this value`)

	// logging
	fs.String("logging.level", "info", "logging level")
	fs.String("logging.file_path", "", "log to file")

	// security
	fs.Int("security.id_length", 12, "set length of generated ID for entities")
	fs.String("security.jwt_method", "HS256", "hash algorithm used for JWT auth")
	fs.String("security.jwt_secret", "", "JWT secret shared with the identity provider (required)")
	fs.String("security.token_name", "token", "cookie name to read the token from")

	// kv storage
	fs.String("kv.driver", "memory", "kv store, one of redis, memory")
	fs.String("kv.host", "127.0.0.1", "kv host")
	fs.Int("kv.port", 6379, "kv server port")
	fs.String("kv.password", "", "kv server password")

	// DevOp
	fs.Bool("devop.apm", false, "enable apm tracing")
	fs.Bool("devop.metrics", false, "expose prometheus metrics on /metrics")

	// jobs
	fs.Bool("jobs.enabled", true, "run the background scheduler")
	fs.String("jobs.streak_refresh_at", "03:00", "UTC time of the nightly streak refresh, HH:MM")
	fs.Duration("jobs.timeout", time.Minute, "deadline of one job run, eg. the streak refresh over all users")
}

// LoadConfig read config from fs, environment variables and an optional .env file in the
// working directory. fs must have been parsed.
func LoadConfig(fs *pflag.FlagSet) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config = new(AppConfig)
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("mapstructure")
		if name == "-" || name == "" {
			return ""
		}
		return name
	})

	var msg []string
	err := validate.Struct(config)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate config: %w", err)
		}
		for _, field := range verrs {
			namespace := field.Namespace()
			fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
			switch field.Tag() {
			case "required":
				msg = append(msg, fmt.Sprintf("%s is required", fieldName))
			case "oneof":
				msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
			case "datetime":
				msg = append(msg, fmt.Sprintf("%s must be formatted as HH:MM", fieldName))
			default:
				msg = append(msg, fmt.Sprintf("%s failed on %s=%s", fieldName, field.Tag(), field.Param()))
			}
		}
	}
	if config.RequestTimeout <= 0 {
		msg = append(msg, "request_timeout must be positive")
	}
	if config.Jobs.Timeout <= 0 {
		msg = append(msg, "jobs.timeout must be positive")
	}
	if db := config.Database; db.Driver != "" && db.Driver != "sqlite" && (db.Host == "" || db.User == "") {
		msg = append(msg, fmt.Sprintf("database.host and database.username are required with %s", db.Driver))
	}
	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}
