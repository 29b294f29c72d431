package main

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type config struct {
	BindAddr     string        `json:"bindAddr"`
	Port         int           `json:"port"`
	BaseURL      string        `json:"baseURL"`
	PageLimit    int           `json:"pageLimit"`
	VideoQuality int           `json:"videoQuality"`
	UseATLnames  bool          `json:"useATLnames"`
	CachePath    string        `json:"cachePath"`
	CacheMaxMB   int           `json:"cacheMaxMB"`
	CacheAge     time.Duration `json:"cacheAge"`
	LogLevel     string        `json:"logLevel"`
	LogEncoding  string        `json:"logEncoding"`
	EnvPrefix    string        `json:"envPrefix"`
}

func parseConfig(logger *zap.Logger) config {
	result := config{}

	// Flags
	var (
		bindAddr     = flag.String("bindAddr", "localhost", `Local interface address to bind to. "localhost" only allows access from the local host. "0.0.0.0" binds to all network interfaces.`)
		port         = flag.Int("port", 8080, "Port to listen on")
		baseURL      = flag.String("baseURL", "http://www.ntv.ru/m/v10", "Base URL of the NTV mobile API")
		pageLimit    = flag.Int("pageLimit", 10, "Number of programs per listing page")
		videoQuality = flag.Int("videoQuality", 0, "Preferred video quality: 0 for standard, 1 for high. The other quality is used as fallback.")
		useATLnames  = flag.Bool("useATLnames", false, "Prefix episode labels with the program title, for front-ends that show episodes outside their program context")
		cachePath    = flag.String("cachePath", "", `Path for loading persisted caches on startup and persisting the current caches in regular intervals. An empty value will lead to 'os.UserCacheDir()+"/ntv-catalog/cache"'.`)
		cacheMaxMB   = flag.Int("cacheMaxMB", 32, "Max number of megabytes to be used for the in-memory video info cache. Minimum is 32 MB.")
		cacheAge     = flag.Duration("cacheAge", 3*time.Minute, "Max age of cached genre and video info lookups. The format must be acceptable by Go's 'time.ParseDuration()', for example \"3m\".")
		logLevel     = flag.String("logLevel", "debug", `Log level to show only logs with the given and more severe levels. Can be "debug", "info", "warn", "error".`)
		logEncoding  = flag.String("logEncoding", "console", `Log encoding. Can be "console" or "json", where "json" makes more sense when using centralized logging solutions like ELK, Graylog or Loki.`)
		envPrefix    = flag.String("envPrefix", "", "Prefix for environment variables")
	)

	flag.Parse()

	if *envPrefix != "" && !strings.HasSuffix(*envPrefix, "_") {
		*envPrefix += "_"
	}
	result.EnvPrefix = *envPrefix

	// Only overwrite the values by their env var counterparts that have not been set (and that *are* set via env var).
	var err error
	if !isArgSet("bindAddr") {
		if val, ok := os.LookupEnv(*envPrefix + "BIND_ADDR"); ok {
			*bindAddr = val
		}
	}
	result.BindAddr = *bindAddr

	if !isArgSet("port") {
		if val, ok := os.LookupEnv(*envPrefix + "PORT"); ok {
			if *port, err = strconv.Atoi(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", "PORT"))
			}
		}
	}
	result.Port = *port

	if !isArgSet("baseURL") {
		if val, ok := os.LookupEnv(*envPrefix + "BASE_URL"); ok {
			*baseURL = val
		}
	}
	result.BaseURL = *baseURL

	if !isArgSet("pageLimit") {
		if val, ok := os.LookupEnv(*envPrefix + "PAGE_LIMIT"); ok {
			if *pageLimit, err = strconv.Atoi(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", "PAGE_LIMIT"))
			}
		}
	}
	result.PageLimit = *pageLimit

	if !isArgSet("videoQuality") {
		if val, ok := os.LookupEnv(*envPrefix + "VIDEO_QUALITY"); ok {
			if *videoQuality, err = strconv.Atoi(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", "VIDEO_QUALITY"))
			}
		}
	}
	result.VideoQuality = *videoQuality

	if !isArgSet("useATLnames") {
		if val, ok := os.LookupEnv(*envPrefix + "USE_ATL_NAMES"); ok {
			if *useATLnames, err = strconv.ParseBool(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to bool", zap.Error(err), zap.String("envVar", "USE_ATL_NAMES"))
			}
		}
	}
	result.UseATLnames = *useATLnames

	if !isArgSet("cachePath") {
		if val, ok := os.LookupEnv(*envPrefix + "CACHE_PATH"); ok {
			*cachePath = val
		}
	}
	result.CachePath = *cachePath

	if !isArgSet("cacheMaxMB") {
		if val, ok := os.LookupEnv(*envPrefix + "CACHE_MAX_MB"); ok {
			if *cacheMaxMB, err = strconv.Atoi(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to int", zap.Error(err), zap.String("envVar", "CACHE_MAX_MB"))
			}
		}
	}
	result.CacheMaxMB = *cacheMaxMB

	if !isArgSet("cacheAge") {
		if val, ok := os.LookupEnv(*envPrefix + "CACHE_AGE"); ok {
			if *cacheAge, err = time.ParseDuration(val); err != nil {
				logger.Fatal("Couldn't convert environment variable from string to time.Duration", zap.Error(err), zap.String("envVar", "CACHE_AGE"))
			}
		}
	}
	result.CacheAge = *cacheAge

	if !isArgSet("logLevel") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_LEVEL"); ok {
			*logLevel = val
		}
	}
	result.LogLevel = *logLevel

	if !isArgSet("logEncoding") {
		if val, ok := os.LookupEnv(*envPrefix + "LOG_ENCODING"); ok {
			*logEncoding = val
		}
	}
	result.LogEncoding = *logEncoding

	return result
}

func (c *config) validate(logger *zap.Logger) {
	if c.CachePath == "" {
		userCacheDir, err := os.UserCacheDir()
		if err != nil {
			logger.Fatal("Couldn't determine user cache directory via `os.UserCacheDir()`", zap.Error(err))
		}
		// Add two levels, because even if we're in `os.UserCacheDir()`, on Windows that's for example `C:\Users\John\AppData\Local`
		c.CachePath = filepath.Join(userCacheDir, "ntv-catalog/cache")
	} else {
		c.CachePath = filepath.Clean(c.CachePath)
	}
	// If the dir doesn't exist, it's created when the files are written.

	if c.VideoQuality != 0 && c.VideoQuality != 1 {
		logger.Fatal("videoQuality must be 0 (standard) or 1 (high)", zap.Int("videoQuality", c.VideoQuality))
	}

	if c.PageLimit <= 0 {
		logger.Fatal("pageLimit must be positive", zap.Int("pageLimit", c.PageLimit))
	}

	if c.LogEncoding != "console" && c.LogEncoding != "json" {
		logger.Fatal(`logEncoding must be one of "console" or "json"`, zap.String("logEncoding", c.LogEncoding))
	}
}

// isArgSet returns true if the argument you're looking for is actually set as command line argument.
// Pass without "-" prefix.
func isArgSet(arg string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == arg {
			found = true
		}
	})
	return found
}
