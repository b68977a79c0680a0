package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Secrets holds the REDCap project credentials loaded from the local
// secrets file.
type Secrets struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
}

// LoadSecrets reads and validates the JSON secrets file at path. Both
// api_key and url must be present and non-empty.
func LoadSecrets(path string) (Secrets, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return Secrets{}, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	var secrets Secrets
	if err := v.Unmarshal(&secrets); err != nil {
		return Secrets{}, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}

	if secrets.APIKey == "" || secrets.URL == "" {
		return Secrets{}, fmt.Errorf(
			"failed to load %s - did you fill in your REDCap project's API key and URL?", path)
	}
	return secrets, nil
}
