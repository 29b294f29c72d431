package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/gofiber/fiber/v2"
	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

const catalogFixture = `{
	"data": {
		"genres": [
			{"title": "Сериалы", "programs": [
				{"id": 1, "shortcat": "Beregovaya_ohrana", "title": "Береговая охрана",
				 "annotation": "a", "img": "http://img/1.jpg", "r": {"k": 3, "v": "16+"}}
			]},
			{"title": "Новости", "programs": []}
		]
	}
}`

const videoFixture = `{
	"info": {
		"id": 829700, "r": {"k": 2, "v": "12+"},
		"video": "http://cdn/sd.mp4", "hi_video": "http://cdn/hd.mp4",
		"linked_entities": {"linked_issues": [{"program_title": "Сегодня", "title": "Выпуск"}]}
	}
}`

func testApp(t *testing.T, upstream *httptest.Server, cfg config) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	client := ntv.NewClient(ntv.NewClientOpts(upstream.URL, time.Second, 100), logger)
	genres := &genreCache{cache: gocache.New(cfg.CacheAge, 0)}
	videos := &videoCache{cache: fastcache.New(32 * 1024 * 1024)}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/catalog/genres", createGenresHandler(client, genres, logger))
	app.Get("/catalog/genres/:genre/programs", createProgramsHandler(cfg, client, genres, logger))
	app.Get("/video/:id/play", createPlayHandler(cfg, client, videos, logger))
	return app
}

func testConfig() config {
	return config{PageLimit: 10, CacheAge: time.Minute}
}

func TestGenresEndpoint(t *testing.T) {
	registerTypes()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogFixture))
	}))
	defer upstream.Close()
	app := testApp(t, upstream, testConfig())

	req := httptest.NewRequest("GET", "/catalog/genres", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var listing listingResponse
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Equal(t, 2, listing.Count)
	require.Equal(t, "Сериалы", listing.Items[0].Label)
	require.Equal(t, "/catalog/genres/0/programs", listing.Items[0].URL)
}

func TestProgramsEndpointByTitle(t *testing.T) {
	registerTypes()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogFixture))
	}))
	defer upstream.Close()
	app := testApp(t, upstream, testConfig())

	// Genres can be addressed by title as well as by index.
	req := httptest.NewRequest("GET", "/catalog/genres/"+url.PathEscape("Сериалы")+"/programs", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var listing listingResponse
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Equal(t, "Сериалы", listing.Title)
	require.Equal(t, 1, listing.Count)
	require.Equal(t, "Береговая охрана", listing.Items[0].Label)
	require.Equal(t, "/catalog/programs/Beregovaya_ohrana/seasons", listing.Items[0].URL)

	req = httptest.NewRequest("GET", "/catalog/genres/"+url.PathEscape("Спорт")+"/programs", nil)
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	// An out-of-range index is the same caller mistake as an unknown title.
	req = httptest.NewRequest("GET", "/catalog/genres/7/programs", nil)
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPlayEndpointQuality(t *testing.T) {
	registerTypes()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(videoFixture))
	}))
	defer upstream.Close()

	cfg := testConfig()
	app := testApp(t, upstream, cfg)
	req := httptest.NewRequest("GET", "/video/829700/play", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "http://cdn/sd.mp4", res.Header.Get("Location"))

	cfg.VideoQuality = 1
	app = testApp(t, upstream, cfg)
	res, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, res.StatusCode)
	require.Equal(t, "http://cdn/hd.mp4", res.Header.Get("Location"))
}

func TestAPIErrorsSurfaceAsEmptyListing(t *testing.T) {
	registerTypes()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()
	app := testApp(t, upstream, testConfig())

	req := httptest.NewRequest("GET", "/catalog/genres", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadGateway, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var errRes errorResponse
	require.NoError(t, json.Unmarshal(body, &errRes))
	require.Equal(t, "Connection error", errRes.Error)
	require.NotNil(t, errRes.Items)
	require.Empty(t, errRes.Items)
}
