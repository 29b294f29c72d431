package ntv

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// requireFields checks that the structurally required fields of a payload
// fragment are present. A miss means the upstream schema is incompatible,
// which is an APIError, unlike optional fields which just degrade the record.
func requireFields(fragment gjson.Result, fields ...string) error {
	for _, field := range fields {
		if !fragment.Get(field).Exists() {
			return &APIError{Message: "Response is missing required field " + strconv.Quote(field)}
		}
	}
	return nil
}

// optionalString normalizes the upstream's two "absent" markers, JSON null
// and the literal string "*null", to an empty string.
func optionalString(val gjson.Result) string {
	if !val.Exists() || val.Type == gjson.Null || val.String() == "*null" {
		return ""
	}
	return val.String()
}

// comScoreVal reads one value from a video's comScore side channel, which the
// API repurposes for season/episode ordinals and the genre name.
func comScoreVal(video gjson.Result, key string) string {
	return optionalString(video.Get("comScore." + key))
}

func comScoreOrdinal(video gjson.Result, key string) *int {
	val := comScoreVal(video, key)
	if val == "" {
		return nil
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	return &num
}

func genresFromJSON(body []byte) ([]Genre, error) {
	genres := gjson.GetBytes(body, "data.genres")
	if !genres.Exists() {
		return nil, &APIError{Message: `Response is missing required field "data.genres"`}
	}
	var result []Genre
	for index, genre := range genres.Array() {
		if err := requireFields(genre, "title"); err != nil {
			return nil, err
		}
		result = append(result, Genre{
			ID:    index,
			Title: genre.Get("title").String(),
		})
	}
	return result, nil
}

func programFromJSON(program gjson.Result) (Program, error) {
	if err := requireFields(program, "id", "title", "shortcat", "r"); err != nil {
		return Program{}, err
	}
	return Program{
		ID:         program.Get("id").Int(),
		Shortcat:   program.Get("shortcat").String(),
		Title:      program.Get("title").String(),
		Annotation: program.Get("annotation").String(),
		Img:        program.Get("img").String(),
		Rating:     newRating(program.Get("r")),
	}, nil
}

func seasonFromJSON(archive gjson.Result) (Season, error) {
	if err := requireFields(archive, "id", "title"); err != nil {
		return Season{}, err
	}
	return Season{
		ID:    archive.Get("id").Int(),
		Title: archive.Get("title").String(),
	}, nil
}

// menuData collects the data objects of all menus with the given type.
// Program responses carry their "about" text and archive list this way.
func menuData(data gjson.Result, menuType string) []gjson.Result {
	var result []gjson.Result
	for _, menu := range data.Get("menus").Array() {
		if menu.Get("type").String() == menuType {
			result = append(result, menu.Get("data"))
		}
	}
	return result
}

// episodeFromVideo builds one Episode from an issue and one of its videos.
// The issue contributes the shared context (program title, title, text),
// the video everything else. Timestamps arrive in milliseconds.
func episodeFromVideo(issue, video gjson.Result, part *int) (Episode, error) {
	if err := requireFields(video, "id", "r"); err != nil {
		return Episode{}, err
	}
	return Episode{
		ID:           video.Get("id").Int(),
		ProgramTitle: issue.Get("program_title").String(),
		Title:        issue.Get("title").String(),
		Description:  issue.Get("txt").String(),
		Rating:       newRating(video.Get("r")),
		Allowed:      video.Get("allowed").Bool(),
		Img:          video.Get("img").String(),
		Timestamp:    video.Get("ts").Float() / 1000,
		Duration:     int(video.Get("tt").Int()),
		Subtitles:    optionalString(video.Get("subtitles")),
		EpisodeNum:   comScoreOrdinal(video, "ns_st_en"),
		SeasonNum:    comScoreOrdinal(video, "ns_st_sn"),
		Genre:        comScoreVal(video, "ns_st_ge"),
		Part:         part,
	}, nil
}

// expandIssue turns one issue into its Episode records: one per video with a
// 1-based Part when the issue contains multiple videos, a single record with
// Part == nil otherwise.
func expandIssue(issue gjson.Result) ([]Episode, error) {
	if err := requireFields(issue, "video_list"); err != nil {
		return nil, err
	}
	videos := issue.Get("video_list").Array()
	if len(videos) == 1 {
		episode, err := episodeFromVideo(issue, videos[0], nil)
		if err != nil {
			return nil, err
		}
		return []Episode{episode}, nil
	}
	var result []Episode
	for index, video := range videos {
		part := index + 1
		episode, err := episodeFromVideo(issue, video, &part)
		if err != nil {
			return nil, err
		}
		result = append(result, episode)
	}
	return result, nil
}
