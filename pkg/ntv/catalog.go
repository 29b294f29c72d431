package ntv

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Genres fetches the catalog root and enumerates its genres with positional
// IDs. Two calls against an unchanged upstream payload yield identical
// output; the IDs shift if the upstream reorders its genre array.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	body, err := c.request(ctx, actionMain, nil, nil)
	if err != nil {
		return nil, err
	}
	return genresFromJSON(body)
}

// Programs returns one page of the given genre's program listing. The
// upstream always sends the full program array, so the page is sliced
// locally. A negative offset is treated as 0, a non-positive limit falls
// back to 10.
func (c *Client) Programs(ctx context.Context, genreID, offset, limit int) (ProgramPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 10
	}

	body, err := c.request(ctx, actionMain, nil, nil)
	if err != nil {
		return ProgramPage{}, err
	}
	genres := gjson.GetBytes(body, "data.genres")
	if !genres.Exists() {
		return ProgramPage{}, &APIError{Message: `Response is missing required field "data.genres"`}
	}
	genreList := genres.Array()
	if genreID < 0 || genreID >= len(genreList) {
		return ProgramPage{}, &APIError{Message: fmt.Sprintf("Genre %v is out of range", genreID)}
	}
	genre := genreList[genreID]

	programs := genre.Get("programs").Array()
	total := len(programs)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := ProgramPage{
		Count:  end - start,
		Total:  total,
		Offset: offset,
		Limit:  limit,
		Title:  genre.Get("title").String(),
	}
	for _, program := range programs[start:end] {
		item, err := programFromJSON(program)
		if err != nil {
			return ProgramPage{}, err
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// Seasons returns the program's archive list together with the program
// metadata. The description comes from the program's "about" menu section
// and is empty when that section is absent.
func (c *Client) Seasons(ctx context.Context, shortcat string) (SeasonList, error) {
	body, err := c.request(ctx, actionProgram, nil, map[string]string{"prog_id": shortcat})
	if err != nil {
		return SeasonList{}, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return SeasonList{}, &APIError{Message: `Response is missing required field "data"`}
	}
	if err := requireFields(data, "title", "shortcat", "r"); err != nil {
		return SeasonList{}, err
	}

	description := ""
	if abouts := menuData(data, "about"); len(abouts) > 0 {
		description = abouts[0].Get("txt").String()
	}

	result := SeasonList{
		Title:       data.Get("title").String(),
		Type:        data.Get("type").String(),
		Shortcat:    data.Get("shortcat").String(),
		Annotation:  data.Get("annotation").String(),
		Description: description,
		Img:         data.Get("preview").String(),
		Rating:      newRating(data.Get("r")),
	}
	for _, archive := range menuData(data, "archive") {
		season, err := seasonFromJSON(archive)
		if err != nil {
			return SeasonList{}, err
		}
		result.Items = append(result.Items, season)
	}
	result.Count = len(result.Items)
	return result, nil
}

// Episodes returns the season's full episode listing, aggregated across all
// archive pages, ordered by timestamp ascending and expanded into one record
// per video part. The paging is hidden from the caller.
func (c *Client) Episodes(ctx context.Context, shortcat, archiveID string) (EpisodeList, error) {
	issues, data, issueCount, err := c.fetchAllIssues(ctx, shortcat, archiveID)
	if err != nil {
		return EpisodeList{}, err
	}
	if !data.Exists() {
		// The very first page had no archive data. An empty season, not an error.
		c.logger.Debug("Season has no archive data", zap.String("shortcat", shortcat), zap.String("archiveID", archiveID))
		return EpisodeList{Shortcat: shortcat}, nil
	}

	result := EpisodeList{
		Count:      issueCount,
		Title:      data.Get("title").String(),
		Type:       data.Get("type").String(),
		Shortcat:   data.Get("shortcat").String(),
		Annotation: data.Get("annotation").String(),
		Rating:     newRating(data.Get("r")),
	}
	for _, issue := range issues {
		episodes, err := expandIssue(issue)
		if err != nil {
			return EpisodeList{}, err
		}
		result.Items = append(result.Items, episodes...)
	}
	return result, nil
}

// Video resolves a single video to its episode record and playable URLs.
// When the response links a parent issue, that issue fills the program and
// episode title context, otherwise the context stays empty.
func (c *Client) Video(ctx context.Context, videoID string) (VideoInfo, error) {
	body, err := c.request(ctx, actionVideo, nil, map[string]string{"video_id": videoID})
	if err != nil {
		return VideoInfo{}, err
	}
	info := gjson.GetBytes(body, "info")
	if !info.Exists() {
		return VideoInfo{}, &APIError{Message: `Response is missing required field "info"`}
	}
	if err := requireFields(info, "video"); err != nil {
		return VideoInfo{}, err
	}

	var issue gjson.Result
	if linked := info.Get("linked_entities.linked_issues"); linked.Exists() && linked.Type != gjson.Null {
		if linkedIssues := linked.Array(); len(linkedIssues) > 0 {
			issue = linkedIssues[0]
		}
	}
	item, err := episodeFromVideo(issue, info, nil)
	if err != nil {
		return VideoInfo{}, err
	}
	return VideoInfo{
		Item:    item,
		Video:   info.Get("video").String(),
		HiVideo: info.Get("hi_video").String(),
	}, nil
}

// SelectPlaybackURL picks the stream URL for the wanted quality: 0 prefers
// the standard quality URL, 1 or higher the high quality one, each falling
// back to the other. An empty result means the video isn't playable.
func SelectPlaybackURL(info VideoInfo, quality int) string {
	path := ""
	if (path == "" || quality >= 0) && info.Video != "" {
		path = info.Video
	}
	if (path == "" || quality >= 1) && info.HiVideo != "" {
		path = info.HiVideo
	}
	return path
}
