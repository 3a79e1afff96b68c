package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/maauso/jobfeed-api/internal/access"
	"github.com/maauso/jobfeed-api/internal/config"
)

// TokenAction issues a bearer token and prints it with its expiry.
func TokenAction(ctx context.Context, cmd *cli.Command) error {
	if err := config.LoadEnvFile(cmd.String("env")); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	role, ok := access.ParseRole(cmd.String("role"))
	if !ok {
		return fmt.Errorf("unknown role %q", cmd.String("role"))
	}

	ttl := cmd.Duration("ttl")
	if ttl <= 0 {
		ttl = cfg.TokenTTL()
	}

	subject := cmd.String("subject")
	token, expiresAt, err := access.NewTokenService([]byte(cfg.JWTSecret), ttl).Issue(subject, role)
	if err != nil {
		return err
	}

	slog.Info("token issued",
		slog.String("subject", subject),
		slog.String("role", string(role)),
		slog.Time("expires_at", expiresAt),
	)

	_, err = fmt.Fprintln(cmd.Root().Writer, token)
	return err
}
