// Package commands implements the jobfeedctl subcommands.
package commands

import (
	"time"

	"github.com/urfave/cli/v3"
)

// NewApp returns the root jobfeedctl command.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "jobfeedctl",
		Usage: "operator tools for the job feed API",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "issue a bearer token signed with JWT_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "environment file path",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "subject",
						Usage:    "caller identity stored in the sub claim",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "role",
						Usage: "admin, user or guest",
						Value: "user",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "token lifetime (defaults to TOKEN_TTL_HOURS)",
					},
				},
				Action: TokenAction,
			},
			{
				Name:  "probe",
				Usage: "fetch one portal and print its normalized listings",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "portal URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "fetch type: rss or json",
						Value: "rss",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "source name stamped on the listings",
						Value: "probe",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "fetch timeout",
						Value: 10 * time.Second,
					},
				},
				Action: ProbeAction,
			},
		},
	}
}
