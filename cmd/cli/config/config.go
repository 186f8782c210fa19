package config

import (
	"os"
	"path/filepath"
)

const defaultAPIURL = "http://localhost:8080"

const tokenFileName = ".tasktrack_token"

// APIURL returns the base URL for the TaskTrack API.
// It can be overridden with the TASKTRACK_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TASKTRACK_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

func tokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return tokenFileName
	}
	return filepath.Join(home, tokenFileName)
}

// SaveToken stores the bearer token for subsequent commands (mode 0600).
func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

// LoadToken reads the stored bearer token.
func LoadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ClearToken removes the stored token. Missing file is not an error.
func ClearToken() error {
	err := os.Remove(tokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
