package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	// Directory uploaded profile pictures are written to and served from.
	UploadDir string `mapstructure:"UPLOAD_DIR"`
	// When false, list and review writes skip appending activity rows.
	// The feed read path works either way.
	RecordActivity bool `mapstructure:"RECORD_ACTIVITY"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("UPLOAD_DIR", "static/uploads")
	viper.SetDefault("RECORD_ACTIVITY", true)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
