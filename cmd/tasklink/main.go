package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/bobg/mid"
	"github.com/bobg/subcmd/v2"
	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"gopkg.in/yaml.v3"

	"tasklink"
	"tasklink/pg"
	"tasklink/sqlite"
)

func main() {
	var c maincmd
	err := subcmd.Run(context.Background(), c, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

type maincmd struct{}

func (maincmd) Subcmds() subcmd.Map {
	return subcmd.Commands(
		"serve", doServe, "run the tasklink server", subcmd.Params(
			"-config", subcmd.String, "config.yml", "path to config file",
		),
		"admin", doAdmin, "send an admin command to a tasklink server", subcmd.Params(
			"-url", subcmd.String, "", "base URL of tasklink server",
			"-key", subcmd.String, "", "admin key",
		),
		"user", doUser, "manage users", subcmd.Params(
			"-config", subcmd.String, "config.yml", "path to config file",
		),
		"lambda", doLambda, "run as an AWS lambda", subcmd.Params(
			"-config", subcmd.String, "config.yml", "path to config file",
		),
	)
}

type config struct {
	AdminKey             string `yaml:"admin_key"`
	Certfile             string
	Database             string
	GithubAPIURL         string `yaml:"github_api_url"` // "https://api.github.com/" or "https://HOST/api/v3/"
	GithubAppID          int64  `yaml:"github_app_id"`
	GithubInstallationID int64  `yaml:"github_installation_id"`
	GithubPrivateKeyFile string `yaml:"github_private_key_file"`
	GithubSecret         string `yaml:"github_secret"`
	Keyfile              string
	Listen               string
	SlackChannel         string `yaml:"slack_channel"`
	SlackToken           string `yaml:"slack_token"`
}

var defaultConfig = config{
	Database:     "sqlite3:tasklink.db",
	GithubAPIURL: "https://api.github.com/",
	Listen:       ":3981",
}

func loadConfig(path string) (config, error) {
	f, err := os.Open(path)
	if err != nil {
		return config{}, errors.Wrap(err, "opening config file")
	}
	defer f.Close()

	c := defaultConfig
	err = yaml.NewDecoder(f).Decode(&c)
	return c, errors.Wrap(err, "parsing config file")
}

func newService(ctx context.Context, c config) (*tasklink.Service, func() error, error) {
	s := &tasklink.Service{
		AdminKey:     c.AdminKey,
		GHSecret:     []byte(c.GithubSecret),
		SlackChannel: c.SlackChannel,
	}

	dbparts := strings.SplitN(c.Database, ":", 2)
	if len(dbparts) < 2 {
		return nil, nil, fmt.Errorf("bad database config string %s", c.Database)
	}

	var closer func() error

	switch dbparts[0] {
	case "sqlite3":
		stores, err := sqlite.Open(ctx, dbparts[1])
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening database")
		}
		s.Users = stores.Users
		s.Comments = stores.Comments
		s.Tasks = stores.Tasks
		closer = stores.Close

	case "postgresql":
		stores, err := pg.Open(ctx, dbparts[1])
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening database")
		}
		s.Users = stores.Users
		s.Comments = stores.Comments
		s.Tasks = stores.Tasks
		closer = stores.Close

	default:
		return nil, nil, fmt.Errorf("unknown database type %s", dbparts[0])
	}

	if c.GithubAppID != 0 && c.GithubPrivateKeyFile != "" {
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, c.GithubAppID, c.GithubInstallationID, c.GithubPrivateKeyFile)
		if err != nil {
			closer()
			return nil, nil, errors.Wrap(err, "creating GitHub App transport")
		}
		if c.GithubAPIURL == defaultConfig.GithubAPIURL {
			s.GHClient = github.NewClient(&http.Client{Transport: itr})
		} else {
			itr.BaseURL = c.GithubAPIURL
			s.GHClient, err = github.NewEnterpriseClient(c.GithubAPIURL, c.GithubAPIURL, &http.Client{Transport: itr})
			if err != nil {
				closer()
				return nil, nil, errors.Wrap(err, "creating GitHub client")
			}
		}
	}

	if c.SlackToken != "" {
		s.SlackClient = slack.New(c.SlackToken)
	}

	s.Provisioner = tasklink.GHProvisioner{
		Users:  s.Users,
		Client: s.GHClient,
	}

	return s, closer, nil
}

func doServe(ctx context.Context, configPath string, _ []string) error {
	c, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	s, closer, err := newService(ctx, c)
	if err != nil {
		return err
	}
	defer closer()

	mux := http.NewServeMux()
	mux.Handle("/github", mid.Err(s.OnGHWebhook))

	httpServer := &http.Server{
		Addr:    c.Listen,
		Handler: mux,
	}
	ch := make(chan struct{})

	mux.Handle("/admin", mid.JSON(s.OnAdmin(httpServer, ch)))

	log.Printf("Listening on %s", httpServer.Addr)

	if c.Certfile != "" && c.Keyfile != "" {
		err = httpServer.ListenAndServeTLS(c.Certfile, c.Keyfile)
	} else {
		err = httpServer.ListenAndServe()
	}

	<-ch

	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func doAdmin(ctx context.Context, url, key string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tasklink admin -url URL -key KEY COMMAND")
	}
	cmd := tasklink.AdminCmd{
		Key:  key,
		Name: args[0],
	}
	enc, err := json.Marshal(cmd)
	if err != nil {
		return errors.Wrap(err, "marshaling command")
	}
	req, err := http.NewRequestWithContext(ctx, "POST", url+"/admin", bytes.NewReader(enc))
	if err != nil {
		return errors.Wrap(err, "preparing request")
	}
	req.Header.Set("Content-Type", "application/json")
	var cl http.Client
	resp, err := cl.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending command to tasklink service")
	}
	defer resp.Body.Close()
	log.Printf("Response: %s", resp.Status)
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		io.Copy(os.Stdout, resp.Body)
	}
	return nil
}

func doUser(ctx context.Context, configPath string, args []string) error {
	c, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	s, closer, err := newService(ctx, c)
	if err != nil {
		return err
	}
	defer closer()

	return subcmd.Run(ctx, usercmd{s: s}, args)
}

type usercmd struct{ s *tasklink.Service }

func (u usercmd) Subcmds() subcmd.Map {
	return subcmd.Commands(
		"add", u.doAdd, "add a user", subcmd.Params(
			"-github-id", subcmd.Int64, int64(0), "GitHub user ID",
			"-login", subcmd.String, "", "GitHub login",
			"-name", subcmd.String, "", "display name",
			"-email", subcmd.String, "", "e-mail address",
		),
	)
}

func (u usercmd) doAdd(ctx context.Context, githubID int64, login, name, email string, _ []string) error {
	user := &tasklink.User{
		GithubLogin: login,
		Name:        name,
		Email:       email,
	}
	if githubID != 0 {
		user.GithubID = sql.NullInt64{Int64: githubID, Valid: true}
	}
	err := u.s.Users.Add(ctx, user)
	if err != nil {
		return errors.Wrap(err, "adding user")
	}
	log.Printf("Added user %d", user.ID)
	return nil
}
