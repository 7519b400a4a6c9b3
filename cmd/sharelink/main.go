package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sendrec/mediashare/internal/auth"
	"github.com/sendrec/mediashare/internal/clipboard"
	"github.com/sendrec/mediashare/internal/database"
	"github.com/sendrec/mediashare/internal/player"
	"github.com/sendrec/mediashare/internal/share"
	"github.com/sendrec/mediashare/internal/validate"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "sharelink",
		Short:        "Create and inspect media share links",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)
	rootCmd.AddCommand(newLinkCmd(), newTokenCmd())
	return rootCmd
}

type linkOptions struct {
	mediaType string
	userAgent string
	touch     int
	copy      bool
	timeout   time.Duration
	share     share.Config
}

func newLinkCmd() *cobra.Command {
	opts := linkOptions{}

	cmd := &cobra.Command{
		Use:   "link <path>",
		Short: "Resolve a share link for a path and print player deep links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if msg := validate.SharePath(path); msg != "" {
				return fmt.Errorf("invalid path: %s", msg)
			}
			if msg := validate.MediaType(opts.mediaType); msg != "" {
				return fmt.Errorf("invalid type: %s", msg)
			}

			databaseURL := os.Getenv("DATABASE_URL")
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			db, err := database.Connect(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			store := share.NewStore(db.Pool)
			resolver := share.NewResolver(store, store, opts.share)

			var writer *clipboard.Writer
			if opts.copy {
				writer = clipboard.NewWriter(clipboard.NewSystemPlatform(cmd.ErrOrStderr()))
			}
			return runLink(ctx, cmd.OutOrStdout(), resolver, writer, getEnv("BASE_URL", "http://localhost:8080"), path, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.mediaType, "type", "video", "media type of the file (video, audio, image, ...)")
	flags.StringVar(&opts.userAgent, "ua", "", "user agent of the client that will open the link")
	flags.IntVar(&opts.touch, "touch", 0, "max touch points reported by the client")
	flags.BoolVar(&opts.copy, "copy", false, "copy the download URL to the clipboard")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall timeout")
	flags.DurationVar(&opts.share.ReuseMinRemaining, "reuse-min-remaining", share.DefaultReuseMinRemaining, "minimum remaining lifetime for an existing link to be reused")
	flags.IntVar(&opts.share.Duration, "duration", share.DefaultDuration, "lifetime of newly created links")
	flags.StringVar(&opts.share.Unit, "unit", share.DefaultUnit, "unit of --duration (seconds, minutes, hours, days)")
	return cmd
}

type linkResolver interface {
	Resolve(ctx context.Context, path string) (share.Link, error)
}

// onceLink resolves the share link at most once, whichever of the clipboard
// or the printer asks first. A failed resolve is remembered too, so a failed
// create is never retried.
type onceLink struct {
	mu       sync.Mutex
	resolver linkResolver
	path     string
	link     share.Link
	err      error
	done     bool
}

func (o *onceLink) get(ctx context.Context) (share.Link, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.done {
		o.link, o.err = o.resolver.Resolve(ctx, o.path)
		o.done = true
	}
	return o.link, o.err
}

func runLink(ctx context.Context, out io.Writer, resolver linkResolver, writer *clipboard.Writer, baseURL, path string, opts linkOptions) error {
	links := &onceLink{resolver: resolver, path: path}

	copied := false
	if writer != nil {
		err := writer.WriteDeferred(ctx, func(ctx context.Context) (string, error) {
			link, err := links.get(ctx)
			if err != nil {
				return "", err
			}
			return share.DownloadURL(baseURL, link.Descriptor(), false), nil
		})
		if err != nil {
			slog.Warn("sharelink: copy to clipboard failed", "error", err)
		} else {
			copied = true
		}
	}

	link, err := links.get(ctx)
	if err != nil {
		return err
	}

	client := player.Client{UserAgent: opts.userAgent, MaxTouchPoints: opts.touch}
	fileURL := share.DownloadURL(baseURL, link.Descriptor(), false)

	fmt.Fprintf(out, "download: %s\n", fileURL)
	if link.Expire != 0 {
		fmt.Fprintf(out, "expires: %s\n", time.Unix(link.Expire, 0).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "platform: %s\n", client.Platform())
	if player.VLCAvailable(client, opts.mediaType) {
		fmt.Fprintf(out, "vlc: %s\n", player.VLCURL(client, fileURL, opts.mediaType))
	}
	if player.JustPlayerAvailable(client, opts.mediaType) {
		fmt.Fprintf(out, "justplayer: %s\n", player.JustPlayerURL(fileURL))
	}
	if copied {
		fmt.Fprintln(out, "copied download URL to clipboard")
	}
	return nil
}

func newTokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an API access token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is required")
			}
			token, err := auth.GenerateAccessToken(secret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", auth.AccessTokenDuration, "token lifetime")
	return cmd
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
