// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/dataport"
	"github.com/poiesic/dataport/auth"
	"github.com/poiesic/dataport/config"
	"github.com/poiesic/dataport/core"
	"github.com/poiesic/dataport/seed"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dataport",
		Usage: "Authenticate users and read feeds through a pluggable data port",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file; DATAPORT_* environment variables override it",
			},
			&cli.DurationFlag{
				Name:  "wait",
				Usage: "Maximum time to wait for a result",
				Value: 30 * time.Second,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load users and posts from a fixtures file",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "fixtures",
						Aliases:  []string{"f"},
						Usage:    "Path to a YAML fixtures file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Records written per backend call",
						Value: seed.DefaultBatchSize,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on stderr",
					},
				},
			},
			{
				Name:   "login",
				Usage:  "Check a username and password",
				Action: loginCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Username",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Plaintext password",
						EnvVars:  []string{"DATAPORT_PASSWORD"},
						Required: true,
					},
				},
			},
			{
				Name:   "feed",
				Usage:  "Print the feed of a user",
				Action: feedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Recipient username",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Print full post bodies instead of previews",
					},
				},
			},
		},
	}
}

// openApp loads configuration and opens the data port.
func openApp(c *cli.Context) (*dataport.App, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	app, err := dataport.Open(c.Context, cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, cfg, nil
}

func seedCommand(c *cli.Context) error {
	fx, err := loadFixtures(c.String("fixtures"))
	if err != nil {
		return err
	}

	app, cfg, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	hasher, err := auth.NewHasher(cfg.Hasher)
	if err != nil {
		return err
	}
	users, err := fx.users(hasher)
	if err != nil {
		return err
	}

	opts := []seed.Option{seed.WithBatchSize(c.Int("batch-size"))}
	if c.Bool("progress") {
		opts = append(opts, seed.WithProgress(c.App.ErrWriter, c.Int("batch-size")))
	}
	loader, err := seed.NewLoader(app.Seeder(), opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("wait"))
	defer cancel()

	res, err := loader.Load(ctx, users, fx.posts())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	slog.Info("seeded", "backend", app.Backend(), "users", res.Users, "posts", res.Posts)
	fmt.Fprintf(c.App.Writer, "seeded %d users and %d posts\n", res.Users, res.Posts)
	return nil
}

func loginCommand(c *cli.Context) error {
	app, _, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("wait"))
	defer cancel()

	ok, err := app.Auth().AuthenticateSync(ctx, c.String("user"), c.String("password"))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.App.Writer, "denied")
		return cli.Exit("authentication failed", 1)
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}

func feedCommand(c *cli.Context) error {
	app, _, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("wait"))
	defer cancel()

	items, err := app.Feed().BuildSync(ctx, c.String("user"))
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.App.Writer, "(no posts)")
		return nil
	}
	for _, item := range items {
		text := item.Preview
		if c.Bool("full") {
			text = item.Body
		}
		fmt.Fprintf(c.App.Writer, "%s: %s\n", item.From, text)
	}
	return nil
}

// setupLogger configures the default slog logger based on the log-level flag.
func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// fixtures is the on-disk seed format.
type fixtures struct {
	Users []userFixture `yaml:"users"`
	Posts []postFixture `yaml:"posts"`
}

type userFixture struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

type postFixture struct {
	Author    string `yaml:"author"`
	Recipient string `yaml:"recipient"`
	Content   string `yaml:"content"`
}

func (fx *fixtures) users(h auth.Hasher) ([]*core.User, error) {
	users := make([]*core.User, 0, len(fx.Users))
	for _, u := range fx.Users {
		hash := u.PasswordHash
		if hash == "" {
			var err error
			hash, err = h.Hash(u.Password)
			if err != nil {
				return nil, fmt.Errorf("hash password for %q: %w", u.Username, err)
			}
		}
		users = append(users, &core.User{Username: u.Username, PasswordHash: hash})
	}
	return users, nil
}

func (fx *fixtures) posts() []*core.Post {
	posts := make([]*core.Post, 0, len(fx.Posts))
	for _, p := range fx.Posts {
		posts = append(posts, &core.Post{Author: p.Author, Recipient: p.Recipient, Content: p.Content})
	}
	return posts
}
