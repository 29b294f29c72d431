package ntv

import (
	"context"
	"net/url"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// archivePage is one fetched page of a season's archive.
type archivePage struct {
	// data is the response's whole data object, carrying the program
	// metadata (title, type, shortcat, annotation, rating).
	data       gjson.Result
	issues     []gjson.Result
	issueCount int
}

// archivePager produces the finite, non-restartable sequence of archive
// pages for one season. Pages are inherently sequential: the stop condition
// compares the running issue total against the server-reported issue_count,
// which is only known once the previous page has arrived.
type archivePager struct {
	client    *Client
	shortcat  string
	archiveID string
	offset    int
	fetched   int
	done      bool
}

func newArchivePager(client *Client, shortcat, archiveID string) *archivePager {
	return &archivePager{
		client:    client,
		shortcat:  shortcat,
		archiveID: archiveID,
		// Upstream pages are 1-indexed.
		offset: 1,
	}
}

// next fetches the following page. ok is false when the sequence is
// exhausted. The pager stops when the upstream has no archive data for the
// current page, when the running total has reached issue_count, or - as a
// guard against looping forever on a lying issue_count - when a page comes
// back without any issues.
func (p *archivePager) next(ctx context.Context) (archivePage, bool, error) {
	if p.done {
		return archivePage{}, false, nil
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(p.client.pageSize))
	query.Set("offset", strconv.Itoa(p.offset))
	body, err := p.client.request(ctx, actionArchive, query, map[string]string{
		"prog_id":    p.shortcat,
		"archive_id": p.archiveID,
	})
	if err != nil {
		p.done = true
		return archivePage{}, false, err
	}
	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		p.done = true
		return archivePage{}, false, &APIError{Message: `Response is missing required field "data"`}
	}
	archive := data.Get("archive")
	if !archive.Exists() || archive.Type == gjson.Null {
		// No archive data for this page means end-of-data, not an error.
		p.done = true
		return archivePage{}, false, nil
	}
	if err := requireFields(archive, "issue_count", "issues"); err != nil {
		p.done = true
		return archivePage{}, false, err
	}

	page := archivePage{
		data:       data,
		issues:     archive.Get("issues").Array(),
		issueCount: int(archive.Get("issue_count").Int()),
	}
	p.fetched += len(page.issues)
	p.offset += p.client.pageSize

	if p.fetched >= page.issueCount {
		p.done = true
	} else if len(page.issues) == 0 {
		p.client.logger.Warn("Archive page came back empty before issue_count was reached, returning what was collected",
			zap.String("shortcat", p.shortcat),
			zap.String("archiveID", p.archiveID),
			zap.Int("fetched", p.fetched),
			zap.Int("issueCount", page.issueCount))
		p.done = true
	}
	return page, true, nil
}

// fetchAllIssues drains the pager and returns all issues of the season,
// sorted by their raw timestamp ascending, plus the last page's data object
// and the server-reported issue count.
func (c *Client) fetchAllIssues(ctx context.Context, shortcat, archiveID string) ([]gjson.Result, gjson.Result, int, error) {
	pager := newArchivePager(c, shortcat, archiveID)
	var issues []gjson.Result
	var lastData gjson.Result
	var issueCount int
	for {
		page, ok, err := pager.next(ctx)
		if err != nil {
			return nil, gjson.Result{}, 0, err
		}
		if !ok {
			break
		}
		issues = append(issues, page.issues...)
		lastData = page.data
		issueCount = page.issueCount
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Get("ts").Float() < issues[j].Get("ts").Float()
	})
	return issues, lastData, issueCount, nil
}
