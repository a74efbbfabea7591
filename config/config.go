package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

const (
	appEnv              = "APP_ENV"
	port                = "PORT"
	postgresURI         = "POSTGRES_URI"
	raritiesPath        = "AFTERLIFE_PATH_RARITIES"
	metadataPath        = "AFTERLIFE_PATH_METADATA"
	usersFilePath       = "AFTERLIFE_FILE_USERS"
	leaderboardDenylist = "AFTERLIFE_LEADERBOARD_DENYLIST"
)

// Config is the general application configuration, read from the process
// environment (and an optional .env file in local development).
type Config struct {
	AppEnv      string
	Port        int
	PostgresURI string

	// RaritiesPath is the root directory holding one
	// "<chain>_<ChecksumAddr>_rarity.json" file per tracked collection.
	RaritiesPath string

	// MetadataPath is the root directory holding
	// "<chain>/<ChecksumAddr>/<token_id>.json" metadata files.
	MetadataPath string

	// UsersFilePath is the username directory file, defaulting to
	// "users.json" in the working directory.
	UsersFilePath string

	// LeaderboardDenylist is the set of display names the leaderboard
	// refresh job drops from every snapshot, regardless of score.
	LeaderboardDenylist []string
}

// LoadConfig reads the general application configuration. PostgresURI is
// loaded but no connection code reads it: the database connection is
// always assembled from the discrete AFTERLIFE_DATABASE_* variables, see
// service/persist/postgres.NewPool.
func LoadConfig() *Config {
	viper.SetDefault(appEnv, "local")
	viper.SetDefault(port, 3030)
	viper.SetDefault(postgresURI, "")
	viper.SetDefault(usersFilePath, "users.json")

	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// With SetConfigFile, a missing file surfaces as a plain fs error
		// rather than viper.ConfigFileNotFoundError.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !errors.Is(err, fs.ErrNotExist) {
			panic(fmt.Sprintf("error reading .env file: %s", err))
		}
	}

	var denylist []string
	if raw := viper.GetString(leaderboardDenylist); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				denylist = append(denylist, name)
			}
		}
	}

	return &Config{
		AppEnv:              viper.GetString(appEnv),
		Port:                viper.GetInt(port),
		PostgresURI:         viper.GetString(postgresURI),
		RaritiesPath:        viper.GetString(raritiesPath),
		MetadataPath:        viper.GetString(metadataPath),
		UsersFilePath:       viper.GetString(usersFilePath),
		LeaderboardDenylist: denylist,
	}
}
