package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	Server     Server     `mapstructure:"server" validate:"required"`
	TimeSource TimeSource `mapstructure:"timeSource" validate:"required"`
	Poller     Poller     `mapstructure:"poller" validate:"required"`
	Logging    Logging    `mapstructure:"logging" validate:"required"`
	Publishing Publishing `mapstructure:"publishing"`
}

type Server struct {
	Addr    *string `mapstructure:"addr" validate:"required"`
	APIAddr *string `mapstructure:"apiAddr" validate:"required"`
}

type TimeSource struct {
	// Enabled serves /time.json from this process.
	Enabled *bool   `mapstructure:"enabled" validate:"required"`
	Layout  *string `mapstructure:"layout" validate:"required"`
	// Location is an IANA zone name, e.g. Europe/London.
	Location *string `mapstructure:"location" validate:"required"`
	// Pinned, if set, is served instead of the current time.
	Pinned *string `mapstructure:"pinned"`
}

type Poller struct {
	URL      *string       `mapstructure:"url" validate:"required,url"`
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	// Timeout bounds each fetch so that ticks cannot overlap.
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0,ltefield=Interval"`
	Location      *string       `mapstructure:"location" validate:"required"`
	LatencyWindow *int          `mapstructure:"latencyWindow" validate:"required,gt=0"`
}

type Logging struct {
	Driver       string    `mapstructure:"driver" validate:"oneof=noop stdout influxdb"`
	LogLatencies *bool     `mapstructure:"logLatencies"`
	InfluxDB     *InfluxDB `mapstructure:"influxdb" validate:"required_if=Driver influxdb"`
}

type InfluxDB struct {
	Host   *string `mapstructure:"host" validate:"required"`
	Token  *string `mapstructure:"token" validate:"required"`
	Org    *string `mapstructure:"org" validate:"required"`
	Bucket *string `mapstructure:"bucket" validate:"required"`
}

// Publishing configures additional surfaces each tick is published to. Both
// are optional.
type Publishing struct {
	Redis *Redis `mapstructure:"redis"`
	Queue *Queue `mapstructure:"queue"`
}

type Redis struct {
	Addr     *string `mapstructure:"addr" validate:"required"`
	Password *string `mapstructure:"password" validate:"required"`
	DB       *int    `mapstructure:"db" validate:"required"`
	Key      *string `mapstructure:"key" validate:"required"`
	Channel  *string `mapstructure:"channel" validate:"required"`
}

type Queue struct {
	Addr     *string `mapstructure:"addr" validate:"required"`
	Password *string `mapstructure:"password" validate:"required"`
	DB       *int    `mapstructure:"db" validate:"required"`
	Name     *string `mapstructure:"name" validate:"required"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Addr", ":8080")
	v.SetDefault("Server.APIAddr", ":8081")

	v.SetDefault("TimeSource.Enabled", true)
	v.SetDefault("TimeSource.Layout", time.RFC3339)
	v.SetDefault("TimeSource.Location", "UTC")

	v.SetDefault("Poller.URL", "http://localhost:8080/time.json")
	v.SetDefault("Poller.Interval", 5*time.Second)
	v.SetDefault("Poller.Timeout", 4*time.Second)
	v.SetDefault("Poller.Location", "UTC")
	v.SetDefault("Poller.LatencyWindow", 100)

	v.SetDefault("Logging.Driver", "stdout")
	v.SetDefault("Logging.LogLatencies", false)
}

// Load unmarshals and validates the configuration held by v. Defaults are
// applied first, so v only needs to contain overrides.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("unable to validate config: %w", err)
		}

		var messages []string
		for _, err := range validationErrors {
			messages = append(messages, err.Error())
		}
		return nil, fmt.Errorf("encountered validation errors:\n\t%s", strings.Join(messages, "\n\t"))
	}

	return &config, nil
}

func ReadConfig() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("no config.yaml found in . or /app; using defaults")
		} else {
			log.Fatalf("error when reading config file: err = %s", err)
		}
	}

	config, err := Load(v)
	if err != nil {
		log.Printf("%v", err)
		fmt.Println("Check your configuration file and try again.")
		os.Exit(1)
	}

	return config
}
