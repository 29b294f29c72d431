// Package listing converts normalized catalog records into the item
// dictionaries a media front-end renders: a label, artwork, Kodi-style video
// info tags and a navigable or playable URL. It's a pure mapping layer, no
// I/O happens here.
package listing

import (
	"github.com/vlmaksime/ntv-catalog/pkg/ntv"
)

// VideoTags is the "video" info dictionary of an item.
type VideoTags struct {
	Title         string `json:"title,omitempty"`
	OriginalTitle string `json:"originaltitle,omitempty"`
	SortTitle     string `json:"sorttitle,omitempty"`
	TVShowTitle   string `json:"tvshowtitle,omitempty"`
	Plot          string `json:"plot,omitempty"`
	PlotOutline   string `json:"plotoutline,omitempty"`
	MPAA          string `json:"mpaa,omitempty"`
	MediaType     string `json:"mediatype,omitempty"`
	Season        *int   `json:"season,omitempty"`
	SortSeason    *int   `json:"sortseason,omitempty"`
	Episode       *int   `json:"episode,omitempty"`
	SortEpisode   *int   `json:"sortepisode,omitempty"`
	Duration      int    `json:"duration,omitempty"`
}

// Item is one directory entry of a listing.
type Item struct {
	Label      string            `json:"label"`
	URL        string            `json:"url"`
	Path       string            `json:"path,omitempty"`
	Art        map[string]string `json:"art,omitempty"`
	Fanart     string            `json:"fanart,omitempty"`
	Thumb      string            `json:"thumb,omitempty"`
	Info       *VideoTags        `json:"info,omitempty"`
	Subtitles  []string          `json:"subtitles,omitempty"`
	IsFolder   bool              `json:"is_folder"`
	IsPlayable bool              `json:"is_playable"`
}

func GenreItem(genre ntv.Genre, url string) Item {
	return Item{
		Label:    genre.Title,
		URL:      url,
		IsFolder: true,
	}
}

func ProgramItem(program ntv.Program, url string) Item {
	return Item{
		Label: program.Title,
		URL:   url,
		Info: &VideoTags{
			Title:         program.Title,
			OriginalTitle: program.Title,
			SortTitle:     program.Title,
			Plot:          program.Annotation,
			PlotOutline:   program.Annotation,
			MPAA:          program.Rating.MPAA,
			MediaType:     "tvshow",
		},
		Art:      map[string]string{"poster": program.Img},
		Fanart:   program.Img,
		Thumb:    program.Img,
		IsFolder: true,
	}
}

// SeasonItem renders one season entry. The plot and artwork come from the
// surrounding program metadata because seasons themselves only carry a title.
func SeasonItem(meta ntv.SeasonList, season ntv.Season, url string) Item {
	return Item{
		Label: season.Title,
		URL:   url,
		Info: &VideoTags{
			Title:         season.Title,
			OriginalTitle: season.Title,
			SortTitle:     season.Title,
			Plot:          meta.Description,
			PlotOutline:   meta.Annotation,
			MPAA:          meta.Rating.MPAA,
			MediaType:     "season",
		},
		Art:      map[string]string{"poster": meta.Img},
		Fanart:   meta.Img,
		Thumb:    meta.Img,
		IsFolder: true,
	}
}

// EpisodeItem renders one playable episode entry. With atlNames the label is
// prefixed with the program title, for front-ends that show episodes outside
// their program context.
func EpisodeItem(meta ntv.EpisodeList, episode ntv.Episode, url string, atlNames bool) Item {
	label := episode.Title
	if atlNames && episode.ProgramTitle != "" {
		label = episode.ProgramTitle + ". " + episode.Title
	}
	item := Item{
		Label: label,
		URL:   url,
		Path:  url,
		Info: &VideoTags{
			Title:         episode.Title,
			OriginalTitle: episode.Title,
			SortTitle:     episode.Title,
			TVShowTitle:   episode.ProgramTitle,
			Plot:          episode.Description,
			PlotOutline:   meta.Annotation,
			MPAA:          episode.Rating.MPAA,
			MediaType:     "episode",
			Season:        episode.SeasonNum,
			SortSeason:    episode.SeasonNum,
			Episode:       episode.EpisodeNum,
			SortEpisode:   episode.EpisodeNum,
			Duration:      episode.Duration,
		},
		Art:        map[string]string{"poster": episode.Img},
		Fanart:     episode.Img,
		Thumb:      episode.Img,
		IsPlayable: true,
	}
	if episode.Subtitles != "" {
		item.Subtitles = []string{episode.Subtitles}
	}
	return item
}

// VideoItem renders the resolved playback entry. Path is the selected stream
// URL; an empty Path means the video isn't playable.
func VideoItem(info ntv.VideoInfo, path string) Item {
	item := EpisodeItem(ntv.EpisodeList{}, info.Item, "", false)
	item.Path = path
	return item
}

// PageNav returns the "Previous page..." / "Next page..." pseudo entries for
// a program page. urlFor builds the listing URL for a given offset and limit.
func PageNav(page ntv.ProgramPage, urlFor func(offset, limit int) string) []Item {
	var items []Item
	if page.Offset > 0 {
		prevOffset := page.Offset - page.Limit
		if prevOffset < 0 {
			prevOffset = 0
		}
		items = append(items, Item{
			Label:    "Previous page...",
			URL:      urlFor(prevOffset, page.Limit),
			IsFolder: true,
		})
	}
	if page.Offset+page.Limit < page.Total {
		items = append(items, Item{
			Label:    "Next page...",
			URL:      urlFor(page.Offset+page.Limit, page.Limit),
			IsFolder: true,
		})
	}
	return items
}
