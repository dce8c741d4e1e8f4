package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ifcmat/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login verifies that the configured or given credentials open a backend session.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials
	if u := cmd.String("username"); u != "" {
		creds.Username = u
	}
	if p := cmd.String("password"); p != "" {
		creds.Password = p
	}
	if f := cmd.String("curl-file"); f != "" {
		creds.CurlFile = f
	}

	if creds.Username == "" && creds.CurlFile == "" {
		return fmt.Errorf("%w: set credentials.username or pass --username or --curl-file", shared.ErrMissingCredentials)
	}

	if err := r.authenticate(ctx, creds); err != nil {
		return err
	}
	return r.writePlain("✓ Logged in to %s\n", r.client.BaseURL())
}

// authenticate opens a backend session from creds. With no credentials configured the
// backend is assumed to be open and nothing is sent.
func (r *Runner) authenticate(ctx context.Context, creds shared.CredentialsConfig) error {
	switch {
	case creds.Username != "":
		r.logger.Info("logging in", "user", creds.Username, "server", r.client.BaseURL())
		if err := r.client.Login(ctx, creds.Username, creds.Password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	case creds.CurlFile != "":
		headers, err := shared.ParseCurlFile(creds.CurlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		cookies := headers.Cookies()
		if len(cookies) == 0 {
			return fmt.Errorf("%w: no cookies in %s", shared.ErrMissingCredentials, creds.CurlFile)
		}
		if err := r.client.UseCookies(cookies); err != nil {
			return err
		}
		r.logger.Info("using session cookies from cURL file", "file", creds.CurlFile, "count", len(cookies))
	default:
		r.logger.Debug("no credentials configured, continuing without login")
	}
	return nil
}
