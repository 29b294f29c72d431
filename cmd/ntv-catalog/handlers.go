package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vlmaksime/ntv-catalog/pkg/listing"
	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

type listingResponse struct {
	Title  string         `json:"title,omitempty"`
	Count  int            `json:"count"`
	Total  int            `json:"total,omitempty"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit,omitempty"`
	Items  []listing.Item `json:"items"`
}

type videoResponse struct {
	Item    listing.Item `json:"item"`
	Video   string       `json:"video"`
	HiVideo string       `json:"hi_video"`
	Path    string       `json:"path"`
}

type errorResponse struct {
	Error string         `json:"error"`
	Items []listing.Item `json:"items"`
}

// sendAPIError turns an upstream failure into the non-fatal shape the
// front-end expects: an error message plus an empty listing to render.
func sendAPIError(c *fiber.Ctx, err error, logger *zap.Logger) error {
	var apiErr *ntv.APIError
	if errors.As(err, &apiErr) {
		logger.Warn("NTV API request failed", zap.Error(err), zap.String("path", c.Path()))
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Error: apiErr.Message, Items: []listing.Item{}})
	}
	logger.Error("Unexpected error while handling request", zap.Error(err), zap.String("path", c.Path()))
	return c.SendStatus(fiber.StatusInternalServerError)
}

func createHealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendString("OK")
	}
}

// cachedGenres returns the memoized genre list, fetching it from the API only
// when the memo window expired.
func cachedGenres(ctx context.Context, client *ntv.Client, genres *genreCache, logger *zap.Logger) ([]ntv.Genre, error) {
	if list, found := genres.Get(); found {
		logger.Debug("Hit cache for genres", zap.Int("genreCount", len(list)))
		return list, nil
	}
	list, err := client.Genres(ctx)
	if err != nil {
		return nil, err
	}
	genres.Set(list)
	return list, nil
}

func createGenresHandler(client *ntv.Client, genres *genreCache, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := cachedGenres(c.Context(), client, genres, logger)
		if err != nil {
			return sendAPIError(c, err, logger)
		}
		items := []listing.Item{}
		for _, genre := range list {
			items = append(items, listing.GenreItem(genre, fmt.Sprintf("/catalog/genres/%v/programs", genre.ID)))
		}
		return c.JSON(listingResponse{Count: len(items), Items: items})
	}
}

func createProgramsHandler(cfg config, client *ntv.Client, genres *genreCache, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		param, err := url.PathUnescape(c.Params("genre"))
		if err != nil {
			param = c.Params("genre")
		}
		list, err := cachedGenres(c.Context(), client, genres, logger)
		if err != nil {
			return sendAPIError(c, err, logger)
		}
		// The route accepts both a genre index and a genre title.
		genreID, ok := resolveGenre(list, param)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Unknown genre " + param, Items: []listing.Item{}})
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", cfg.PageLimit)
		page, err := client.Programs(c.Context(), genreID, offset, limit)
		if err != nil {
			return sendAPIError(c, err, logger)
		}

		items := []listing.Item{}
		for _, program := range page.Items {
			programURL := "/catalog/programs/" + url.PathEscape(program.Shortcat) + "/seasons"
			items = append(items, listing.ProgramItem(program, programURL))
		}
		items = append(items, listing.PageNav(page, func(offset, limit int) string {
			return fmt.Sprintf("/catalog/genres/%v/programs?offset=%v&limit=%v", genreID, offset, limit)
		})...)

		return c.JSON(listingResponse{
			Title:  page.Title,
			Count:  page.Count,
			Total:  page.Total,
			Offset: page.Offset,
			Limit:  page.Limit,
			Items:  items,
		})
	}
}

func createSeasonsHandler(client *ntv.Client, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shortcat, err := url.PathUnescape(c.Params("shortcat"))
		if err != nil {
			shortcat = c.Params("shortcat")
		}
		seasons, err := client.Seasons(c.Context(), shortcat)
		if err != nil {
			return sendAPIError(c, err, logger)
		}

		// A program with a single season goes straight to its episodes.
		if seasons.Count == 1 {
			return c.Redirect(episodesURL(seasons.Shortcat, seasons.Items[0].ID), fiber.StatusFound)
		}

		items := []listing.Item{}
		for _, season := range seasons.Items {
			items = append(items, listing.SeasonItem(seasons, season, episodesURL(seasons.Shortcat, season.ID)))
		}
		return c.JSON(listingResponse{
			Title: seasons.Title,
			Count: seasons.Count,
			Items: items,
		})
	}
}

func episodesURL(shortcat string, archiveID int64) string {
	return fmt.Sprintf("/catalog/programs/%v/archive/%v/episodes", url.PathEscape(shortcat), archiveID)
}

func createEpisodesHandler(cfg config, client *ntv.Client, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shortcat, err := url.PathUnescape(c.Params("shortcat"))
		if err != nil {
			shortcat = c.Params("shortcat")
		}
		episodes, err := client.Episodes(c.Context(), shortcat, c.Params("archive"))
		if err != nil {
			return sendAPIError(c, err, logger)
		}

		items := []listing.Item{}
		for _, episode := range episodes.Items {
			item := listing.EpisodeItem(episodes, episode, fmt.Sprintf("/video/%v", episode.ID), cfg.UseATLnames)
			item.Path = fmt.Sprintf("/video/%v/play", episode.ID)
			items = append(items, item)
		}
		return c.JSON(listingResponse{
			Title: episodes.Title,
			Count: episodes.Count,
			Items: items,
		})
	}
}

// cachedVideo returns the video info for the given ID, served from the video
// cache when a fresh enough entry exists.
func cachedVideo(ctx context.Context, client *ntv.Client, videos *videoCache, cacheAge time.Duration, videoID string, logger *zap.Logger) (ntv.VideoInfo, error) {
	info, created, found, err := videos.Get(videoID)
	if err != nil {
		logger.Error("Couldn't decode video cache item", zap.Error(err), zap.String("videoID", videoID))
	} else if !found {
		logger.Debug("Video info not found in cache", zap.String("videoID", videoID))
	} else if time.Since(created) > cacheAge {
		expiredSince := time.Since(created.Add(cacheAge))
		logger.Debug("Hit cache for video info, but item is expired", zap.Duration("expiredSince", expiredSince), zap.String("videoID", videoID))
	} else {
		logger.Debug("Hit cache for video info, returning result", zap.String("videoID", videoID))
		return info, nil
	}

	info, err = client.Video(ctx, videoID)
	if err != nil {
		return ntv.VideoInfo{}, err
	}
	if err := videos.Set(videoID, info); err != nil {
		logger.Error("Couldn't cache video info", zap.Error(err), zap.String("videoID", videoID))
	}
	return info, nil
}

func createVideoHandler(cfg config, client *ntv.Client, videos *videoCache, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := cachedVideo(c.Context(), client, videos, cfg.CacheAge, c.Params("id"), logger)
		if err != nil {
			return sendAPIError(c, err, logger)
		}
		path := ntv.SelectPlaybackURL(info, cfg.VideoQuality)
		return c.JSON(videoResponse{
			Item:    listing.VideoItem(info, path),
			Video:   info.Video,
			HiVideo: info.HiVideo,
			Path:    path,
		})
	}
}

func createPlayHandler(cfg config, client *ntv.Client, videos *videoCache, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := cachedVideo(c.Context(), client, videos, cfg.CacheAge, c.Params("id"), logger)
		if err != nil {
			return sendAPIError(c, err, logger)
		}
		path := ntv.SelectPlaybackURL(info, cfg.VideoQuality)
		if path == "" {
			logger.Warn("Video has no playable stream URL", zap.String("videoID", c.Params("id")))
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "Video has no playable stream URL", Items: []listing.Item{}})
		}
		return c.Redirect(path, fiber.StatusFound)
	}
}
