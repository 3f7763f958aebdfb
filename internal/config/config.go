package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ServerConfig holds the configuration for the API server.
type ServerConfig struct {
	HTTP struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"http"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Eval struct {
		TasksDir    string `mapstructure:"tasks_dir"`
		Concurrency int    `mapstructure:"concurrency"`
	} `mapstructure:"eval"`
}

// LoadServerConfig loads the server configuration from a file and the
// environment. A missing config file is not an error; defaults apply.
func LoadServerConfig() (*ServerConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("NODEFLOW")
	viper.AutomaticEnv()

	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", 8080)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("eval.tasks_dir", "./evals")
	viper.SetDefault("eval.concurrency", 4)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config ServerConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Addr returns the listen address for the HTTP server.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

// DatabaseConfigured reports whether a database connection was configured.
// Without one the server falls back to in-memory storage.
func (c *ServerConfig) DatabaseConfigured() bool {
	return c.DB.Host != "" && c.DB.Name != ""
}

// DSN builds the postgres connection string from the database settings.
func (c *ServerConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}
