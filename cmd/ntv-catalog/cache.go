package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

const genreCacheKey = "genres"

func registerTypes() {
	// For the genre memoization cache
	gob.Register([]ntv.Genre{})
	// For the video info cache
	gob.Register(videoCacheItem{})
}

type videoCacheItem struct {
	Info    ntv.VideoInfo
	Created time.Time
}

// genreCache memoizes the catalog's genre list for a short time window, so
// that browsing into a genre doesn't refetch the catalog root on every step.
// It also answers genre-title lookups against the memoized list.
type genreCache struct {
	cache *gocache.Cache
}

func (c *genreCache) Get() ([]ntv.Genre, bool) {
	genresIface, found := c.cache.Get(genreCacheKey)
	if !found {
		return nil, false
	}
	genres, ok := genresIface.([]ntv.Genre)
	if !ok {
		return nil, false
	}
	return genres, true
}

func (c *genreCache) Set(genres []ntv.Genre) {
	c.cache.Set(genreCacheKey, genres, 0)
}

// resolveGenre turns a route parameter into a genre index: either the index
// itself, range-checked against the given list, or a genre title to be
// looked up in it.
func resolveGenre(genres []ntv.Genre, param string) (int, bool) {
	if index, err := strconv.Atoi(param); err == nil {
		return index, index >= 0 && index < len(genres)
	}
	for _, genre := range genres {
		if genre.Title == param {
			return genre.ID, true
		}
	}
	return 0, false
}

// videoCache caches resolved video info, backed by github.com/VictoriaMetrics/fastcache.
type videoCache struct {
	cache *fastcache.Cache
}

func (c *videoCache) Set(videoID string, info ntv.VideoInfo) error {
	item := videoCacheItem{
		Info:    info,
		Created: time.Now(),
	}
	return gobSet(c.cache, videoID, item)
}

func (c *videoCache) Get(videoID string) (ntv.VideoInfo, time.Time, bool, error) {
	var item videoCacheItem
	found, err := gobGet(c.cache, videoID, &item)
	return item.Info, item.Created, found, err
}

func gobSet(cache *fastcache.Cache, key string, item interface{}) error {
	writer := bytes.Buffer{}
	encoder := gob.NewEncoder(&writer)
	if err := encoder.Encode(item); err != nil {
		return fmt.Errorf("Couldn't encode item: %v", err)
	}
	cache.Set([]byte(key), writer.Bytes())
	return nil
}

func gobGet(cache *fastcache.Cache, key string, item interface{}) (bool, error) {
	data, found := cache.HasGet(nil, []byte(key))
	if !found {
		return found, nil
	}
	reader := bytes.NewReader(data)
	decoder := gob.NewDecoder(reader)
	if err := decoder.Decode(item); err != nil {
		return found, fmt.Errorf("Couldn't decode item: %v", err)
	}
	return found, nil
}

func saveGoCache(items map[string]gocache.Item, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("Couldn't create go-cache file: %v", err)
	}
	defer file.Close()
	encoder := gob.NewEncoder(file)
	if err = encoder.Encode(items); err != nil {
		return fmt.Errorf("Couldn't encode items for go-cache file: %v", err)
	}
	return nil
}

func loadGoCache(filePath string) (map[string]gocache.Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("Couldn't open go-cache file: %v", err)
	}
	defer file.Close()
	decoder := gob.NewDecoder(file)
	result := map[string]gocache.Item{}
	if err = decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("Couldn't decode items from go-cache file: %v", err)
	}
	return result, nil
}

func persistCaches(ctx context.Context, cacheFilePath string, fastCaches map[string]*fastcache.Cache, goCaches map[string]*gocache.Cache, logger *zap.Logger) {
	if ctx.Err() != nil {
		logger.Warn("Regular cache persistence triggered, but server is shutting down")
		return
	}

	logger.Info("Persisting caches...", zap.String("cacheFilePath", cacheFilePath))
	start := time.Now()

	if err := os.MkdirAll(cacheFilePath, 0o755); err != nil {
		logger.Error("Couldn't create cache directory", zap.Error(err), zap.String("cacheFilePath", cacheFilePath))
		return
	}

	for name, fastCache := range fastCaches {
		if err := fastCache.SaveToFileConcurrent(cacheFilePath+"/"+name, runtime.NumCPU()); err != nil {
			logger.Error("Couldn't save cache to file", zap.Error(err), zap.String("cache", name))
		}
	}

	for name, goCache := range goCaches {
		if err := saveGoCache(goCache.Items(), cacheFilePath+"/"+name+".gob"); err != nil {
			logger.Error("Couldn't save cache to file", zap.Error(err), zap.String("cache", name))
		}
	}

	duration := time.Since(start).Milliseconds()
	durationString := strconv.FormatInt(duration, 10) + "ms"
	logger.Info("Persisted caches", zap.String("duration", durationString))
}

func logCacheStats(fastCaches map[string]*fastcache.Cache, goCaches map[string]*gocache.Cache, logger *zap.Logger) {
	stats := fastcache.Stats{}
	for name, fastCache := range fastCaches {
		fastCache.UpdateStats(&stats)
		fields := []zap.Field{
			zap.String("cache", name),
			zap.Uint64("GetCalls", stats.GetCalls),
			zap.Uint64("SetCalls", stats.SetCalls),
			zap.Uint64("Misses", stats.Misses),
			zap.Uint64("EntriesCount", stats.EntriesCount),
			zap.String("Size", strconv.FormatUint(stats.BytesSize/uint64(1024)/uint64(1024), 10)+"MB"),
		}
		logger.Info("Cache stats", fields...)
		stats.Reset()
	}

	for name, goCache := range goCaches {
		logger.Info("Cache stats", zap.String("cache", name), zap.Int("itemCount", goCache.ItemCount()))
	}
}
