package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/google/go-cmp/cmp"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"

	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

func TestGenreCache(t *testing.T) {
	genres := &genreCache{cache: gocache.New(time.Minute, 0)}

	_, found := genres.Get()
	require.False(t, found)

	exp := []ntv.Genre{
		{ID: 0, Title: "Сериалы"},
		{ID: 1, Title: "Новости"},
	}
	genres.Set(exp)
	actual, found := genres.Get()
	require.True(t, found)
	require.Equal(t, exp, actual)
}

func TestGenreCachePersistence(t *testing.T) {
	registerTypes()

	cache := gocache.New(0, 0)
	exp := []ntv.Genre{
		{ID: 0, Title: "Сериалы"},
		{ID: 1, Title: "Новости"},
	}
	cache.Set(genreCacheKey, exp, 0)
	filePath := filepath.Join(os.TempDir(), "genres.gob")
	err := saveGoCache(cache.Items(), filePath)
	require.NoError(t, err)

	items, err := loadGoCache(filePath)
	require.NoError(t, err)
	genres := &genreCache{cache: gocache.NewFrom(0, 0, items)}

	actual, found := genres.Get()
	require.True(t, found)
	require.Equal(t, exp, actual)
}

func TestVideoCache(t *testing.T) {
	registerTypes()

	videos := &videoCache{cache: fastcache.New(32 * 1024 * 1024)}
	exp := ntv.VideoInfo{
		Item:    ntv.Episode{ID: 829700, Title: "Выпуск"},
		Video:   "http://cdn/sd.mp4",
		HiVideo: "http://cdn/hd.mp4",
	}
	require.NoError(t, videos.Set("829700", exp))

	actual, created, found, err := videos.Get("829700")
	require.NoError(t, err)
	require.True(t, found)
	require.WithinDuration(t, time.Now(), created, time.Minute)
	// We can't use require.Equal here, because the marshalled time loses its wall time, leading to a difference for the internally used reflect.DeepEquals.
	require.True(t, cmp.Equal(exp, actual))

	_, _, found, err = videos.Get("1")
	require.NoError(t, err)
	require.False(t, found)
}

func TestResolveGenre(t *testing.T) {
	genres := []ntv.Genre{
		{ID: 0, Title: "Сериалы"},
		{ID: 1, Title: "Новости"},
	}

	index, ok := resolveGenre(genres, "1")
	require.True(t, ok)
	require.Equal(t, 1, index)

	index, ok = resolveGenre(genres, "Сериалы")
	require.True(t, ok)
	require.Equal(t, 0, index)

	_, ok = resolveGenre(genres, "Спорт")
	require.False(t, ok)

	// Numeric indexes get the same range check as unknown titles.
	_, ok = resolveGenre(genres, "3")
	require.False(t, ok)

	_, ok = resolveGenre(genres, "-1")
	require.False(t, ok)
}
