package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/worldmap/internal/config"
	"github.com/matzehuels/worldmap/pkg/cache"
)

// cacheCommand creates the cache management command. It manages the local
// file cache; a Redis cache is managed with Redis tooling.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
	}

	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// fileCache opens the file cache named by the config.
func (c *CLI) fileCache() (*cache.FileCache, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Backend != config.CacheFile {
		printWarning("configured cache backend is %s; showing the local file cache", cfg.Cache.Backend)
	}
	return newFileCache(cfg)
}

// cacheStatsCommand creates the "cache stats" subcommand.
func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			entries, size, err := fc.Stats()
			if err != nil {
				return fmt.Errorf("read cache: %w", err)
			}
			printKeyValue("Entries", fmt.Sprint(entries))
			printKeyValue("Size", formatBytes(size))
			printKeyValue("Directory", fc.Dir())
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.fileCache()
			if err != nil {
				return err
			}
			count, err := fc.Clear(expired)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(uiOut, dir)
			return nil
		},
	}
}

// formatBytes renders n with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
