package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/internal/iocache"
	"github.com/fanpulse/fanpulse/schema"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	connStr := viper.GetString("cache-db-connect")

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No history tracking for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on fetch cache management.
//
// Cache subcommands skip sharedSetup, so no source is opened for them.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fetch cache (avoids refetching snapshots)",
	Long: `Manage the cache of fetched snapshot rows, survey answers and events.

Fetched rows are cached per source and dataset for --cache-ttl, so repeated
growth and survey runs do not hit the source every time.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  fanpulse cache status

  # Use a shared Redis cache
  FANPULSE_CACHE_BACKEND=redis FANPULSE_CACHE_DB_CONNECT="redis://localhost:6379/0" fanpulse cache status`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached rows",
	Long: `Delete all cached rows from the configured backend.

Use this when the source data was corrected and the cache TTL has not expired yet.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For Redis: Deletes the cached entries

Examples:
  # Clear SQLite cache (default)
  fanpulse cache clear

  # Clear MySQL cache (set connection string via env variable)
  FANPULSE_CACHE_BACKEND=mysql FANPULSE_CACHE_DB_CONNECT="..." fanpulse cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		// Release the SQLite handle before the file goes away
		iocache.CloseStores()
		if err := iocache.ClearCache(cfg.CacheBackend, iocache.GetDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the fetch cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache table sizes

Examples:
  # Check cache status
  fanpulse cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetCacheStore()
		if store == nil {
			contract.LogFatal("Failed to get cache status", errors.New("cache is disabled"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
