package ntv

// Genre is one entry of the catalog's genre list.
// Its ID is the genre's position in the upstream genre array at fetch time,
// not a server-assigned key, so it's only stable as long as the upstream
// order doesn't change.
type Genre struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Rating is an age rating normalized into the Russian age-board code ("16+")
// and its MPAA equivalent ("R"). MPAA can be empty for codes outside the
// documented table.
type Rating struct {
	RARS string `json:"rars"`
	MPAA string `json:"mpaa"`
}

// Program is a TV program within a genre. Shortcat is the stable key used
// for season and episode lookups.
type Program struct {
	ID         int64  `json:"id"`
	Shortcat   string `json:"shortcat"`
	Title      string `json:"title"`
	Annotation string `json:"annotation"`
	Img        string `json:"img"`
	Rating     Rating `json:"rating"`
}

// Season is one archive of a program. The upstream calls it an "archive".
type Season struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Episode is one playable video of an issue (a broadcast occurrence).
// An issue with multiple video files expands into one Episode per file, with
// Part set to the 1-based file position; a single-file issue has Part == nil.
// EpisodeNum and SeasonNum come from the comScore side channel and are nil
// when the upstream marks them absent.
type Episode struct {
	ID           int64   `json:"id"`
	ProgramTitle string  `json:"program_title"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Rating       Rating  `json:"rating"`
	Allowed      bool    `json:"allowed"`
	Img          string  `json:"img"`
	Timestamp    float64 `json:"timestamp"`
	Duration     int     `json:"duration"`
	Subtitles    string  `json:"subtitles,omitempty"`
	EpisodeNum   *int    `json:"episode"`
	SeasonNum    *int    `json:"season"`
	Genre        string  `json:"genre,omitempty"`
	Part         *int    `json:"part"`
}

// VideoInfo is the result of resolving a single video: the episode record
// plus the playable URLs. HiVideo can be empty.
type VideoInfo struct {
	Item    Episode `json:"item"`
	Video   string  `json:"video"`
	HiVideo string  `json:"hi_video"`
}

// ProgramPage is one page of a genre's program listing.
// Count is the number of items on this page, Total the size of the full
// program array. Offset+Limit compared against Total tells the caller
// whether a next page exists.
type ProgramPage struct {
	Items  []Program `json:"items"`
	Count  int       `json:"count"`
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
	Title  string    `json:"title"`
}

// SeasonList is a program's archive listing plus the program metadata that
// comes with it.
type SeasonList struct {
	Items       []Season `json:"items"`
	Count       int      `json:"count"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Shortcat    string   `json:"shortcat"`
	Annotation  string   `json:"annotation"`
	Description string   `json:"description"`
	Img         string   `json:"img"`
	Rating      Rating   `json:"rating"`
}

// EpisodeList is a season's fully materialized episode listing, ordered by
// timestamp ascending. Count is the server-reported issue count, which can
// exceed len(Items) when the upstream stopped serving pages early.
type EpisodeList struct {
	Items      []Episode `json:"items"`
	Count      int       `json:"count"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Shortcat   string    `json:"shortcat"`
	Annotation string    `json:"annotation"`
	Rating     Rating    `json:"rating"`
}
