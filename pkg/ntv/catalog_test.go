package ntv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func catalogBody(programCount int) string {
	programs := make([]string, 0, programCount)
	for i := 0; i < programCount; i++ {
		programs = append(programs, fmt.Sprintf(`{
			"id": %v, "shortcat": "prog%v", "title": "Программа %v",
			"annotation": "a", "img": "http://img/%v.jpg", "r": {"k": 0, "v": ""}
		}`, i, i, i, i))
	}
	return fmt.Sprintf(`{
		"data": {
			"genres": [
				{"title": "Сериалы", "programs": [%v]},
				{"title": "Новости", "programs": []}
			]
		}
	}`, strings.Join(programs, ","))
}

func catalogServer(programCount int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogBody(programCount)))
	}))
}

func TestGenres(t *testing.T) {
	server := catalogServer(2)
	defer server.Close()
	client := testClient(server.URL, 0)

	genres, err := client.Genres(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Genre{
		{ID: 0, Title: "Сериалы"},
		{ID: 1, Title: "Новости"},
	}, genres)

	// Positional IDs are stable across calls as long as the payload is.
	again, err := client.Genres(context.Background())
	require.NoError(t, err)
	require.Equal(t, genres, again)
}

func TestProgramsSlicing(t *testing.T) {
	server := catalogServer(25)
	defer server.Close()
	client := testClient(server.URL, 0)

	page, err := client.Programs(context.Background(), 0, 20, 10)
	require.NoError(t, err)
	require.Equal(t, 5, page.Count)
	require.Equal(t, 25, page.Total)
	require.Equal(t, 20, page.Offset)
	require.Equal(t, 10, page.Limit)
	require.Equal(t, "Сериалы", page.Title)
	require.Len(t, page.Items, 5)
	require.Equal(t, "prog20", page.Items[0].Shortcat)
	require.Equal(t, "prog24", page.Items[4].Shortcat)
}

func TestProgramsOffsetPastEnd(t *testing.T) {
	server := catalogServer(3)
	defer server.Close()
	client := testClient(server.URL, 0)

	page, err := client.Programs(context.Background(), 0, 30, 10)
	require.NoError(t, err)
	require.Equal(t, 0, page.Count)
	require.Equal(t, 3, page.Total)
	require.Empty(t, page.Items)
}

func TestProgramsGenreOutOfRange(t *testing.T) {
	server := catalogServer(3)
	defer server.Close()
	client := testClient(server.URL, 0)

	_, err := client.Programs(context.Background(), 7, 0, 10)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
}

func TestSeasons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prog/Segodnya", r.URL.Path)
		w.Write([]byte(`{
			"data": {
				"title": "Сегодня", "type": "prog", "shortcat": "Segodnya",
				"annotation": "Новости", "preview": "http://img/p.jpg", "r": {"k": 1, "v": "6+"},
				"menus": [
					{"type": "about", "data": {"txt": "Информационная программа"}},
					{"type": "archive", "data": {"id": 69020, "title": "Архив 2020"}},
					{"type": "archive", "data": {"id": 69021, "title": "Архив 2021"}}
				]
			}
		}`))
	}))
	defer server.Close()
	client := testClient(server.URL, 0)

	seasons, err := client.Seasons(context.Background(), "Segodnya")
	require.NoError(t, err)
	require.Equal(t, 2, seasons.Count)
	require.Equal(t, []Season{
		{ID: 69020, Title: "Архив 2020"},
		{ID: 69021, Title: "Архив 2021"},
	}, seasons.Items)
	require.Equal(t, "Информационная программа", seasons.Description)
	require.Equal(t, "http://img/p.jpg", seasons.Img)
	require.Equal(t, Rating{RARS: "6+", MPAA: "PG"}, seasons.Rating)
}

func TestSeasonsWithoutAboutMenu(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": {
				"title": "Сегодня", "type": "prog", "shortcat": "Segodnya",
				"r": {"k": 1, "v": "6+"}, "menus": []
			}
		}`))
	}))
	defer server.Close()
	client := testClient(server.URL, 0)

	seasons, err := client.Seasons(context.Background(), "Segodnya")
	require.NoError(t, err)
	require.Equal(t, "", seasons.Description)
	require.Empty(t, seasons.Items)
}

func TestVideoWithLinkedIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v/829700", r.URL.Path)
		w.Write([]byte(`{
			"info": {
				"id": 829700, "r": {"k": 2, "v": "12+"}, "img": "http://img/v.jpg",
				"ts": 1580000000000, "tt": 1500, "allowed": true,
				"video": "http://cdn/sd.mp4", "hi_video": "http://cdn/hd.mp4",
				"linked_entities": {
					"linked_issues": [{"program_title": "Сегодня", "title": "Выпуск", "txt": "..."}]
				}
			}
		}`))
	}))
	defer server.Close()
	client := testClient(server.URL, 0)

	info, err := client.Video(context.Background(), "829700")
	require.NoError(t, err)
	require.Equal(t, "http://cdn/sd.mp4", info.Video)
	require.Equal(t, "http://cdn/hd.mp4", info.HiVideo)
	require.Equal(t, int64(829700), info.Item.ID)
	require.Equal(t, "Сегодня", info.Item.ProgramTitle)
	require.Equal(t, "Выпуск", info.Item.Title)
}

func TestVideoWithoutLinkedIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"info": {
				"id": 829700, "r": {"k": 0, "v": ""},
				"video": "http://cdn/sd.mp4",
				"linked_entities": {"linked_issues": null}
			}
		}`))
	}))
	defer server.Close()
	client := testClient(server.URL, 0)

	info, err := client.Video(context.Background(), "829700")
	require.NoError(t, err)
	require.Equal(t, "", info.Item.ProgramTitle)
	require.Equal(t, "", info.HiVideo)
}

func TestSelectPlaybackURL(t *testing.T) {
	for _, test := range []struct {
		video, hiVideo string
		quality        int
		expected       string
	}{
		{"A", "B", 0, "A"},
		{"A", "B", 1, "B"},
		{"A", "", 1, "A"},
		{"", "B", 0, "B"},
		{"", "", 1, ""},
	} {
		info := VideoInfo{Video: test.video, HiVideo: test.hiVideo}
		require.Equal(t, test.expected, SelectPlaybackURL(info, test.quality),
			"video=%q hiVideo=%q quality=%v", test.video, test.hiVideo, test.quality)
	}
}
