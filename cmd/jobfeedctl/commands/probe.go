package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/maauso/jobfeed-api/internal/feed"
	"github.com/maauso/jobfeed-api/internal/listing"
	"github.com/maauso/jobfeed-api/internal/source"
)

// ProbeAction fetches a single portal with the server's adapters and
// prints the normalized listings as JSON. The URL and type go through the
// same validation as the admin API.
func ProbeAction(ctx context.Context, cmd *cli.Command) error {
	draft, err := source.Validate(source.Draft{
		Name:      cmd.String("name"),
		URL:       cmd.String("url"),
		FetchType: source.FetchType(cmd.String("type")),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	src := source.JobSource{Name: draft.Name, URL: draft.URL, FetchType: draft.FetchType, Enabled: true}
	records, err := feed.NewRegistry(feed.NewClient()).Fetch(ctx, src)
	if err != nil {
		return fmt.Errorf("probe %s (%s): %w", src.URL, feed.Classify(err), err)
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(listing.NormalizeAll(records, src.Name))
}
