// Package listing defines the normalized job listing returned by searches.
package listing

import (
	"strings"

	"github.com/maauso/jobfeed-api/internal/feed"
)

// JobListing is a normalized job posting from one source.
//
// Date is passed through as the portal reported it; portals disagree on
// date formats and callers only display it.
type JobListing struct {
	Title    string `json:"title"`
	ApplyURL string `json:"applyUrl"`
	Source   string `json:"source"`
	Date     string `json:"date"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

// Normalize converts a raw record into a JobListing stamped with the
// name of the source it came from. The record's description is not
// part of the listing.
//
// Link and date are only trimmed. Title, company and location also have
// internal runs of whitespace collapsed to one space: feed markup often
// wraps these across indented lines, and keyword search matches
// substrings such as "senior engineer" across them.
func Normalize(rec feed.RawRecord, sourceName string) JobListing {
	return JobListing{
		Title:    collapseSpace(rec.Title),
		ApplyURL: strings.TrimSpace(rec.Link),
		Source:   sourceName,
		Date:     strings.TrimSpace(rec.Published),
		Company:  collapseSpace(rec.Company),
		Location: collapseSpace(rec.Location),
	}
}

// NormalizeAll normalizes every record of one source.
func NormalizeAll(recs []feed.RawRecord, sourceName string) []JobListing {
	out := make([]JobListing, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Normalize(rec, sourceName))
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
