package main

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bobg/subcmd/v2"
	"github.com/google/go-github/v45/github"
	"github.com/pkg/errors"

	"tasklink"
)

func doLambda(ctx context.Context, configPath string, args []string) error {
	c, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	s, closer, err := newService(ctx, c)
	if err != nil {
		return err
	}
	defer closer()

	return subcmd.Run(ctx, lambdacmd{s: s}, args)
}

type lambdacmd struct {
	s *tasklink.Service
}

func (l lambdacmd) Subcmds() subcmd.Map {
	return subcmd.Commands(
		"github", l.doLambdaGitHub, "run the GitHub webhook lambda", nil,
	)
}

func (l lambdacmd) doLambdaGitHub(ctx context.Context, _ []string) error {
	lambda.StartWithOptions(l.githubLambdaHandler, lambda.WithContext(ctx))
	return nil
}

func (l lambdacmd) githubLambdaHandler(ctx context.Context, req events.APIGatewayV2HTTPRequest) error {
	signature := req.Headers[strings.ToLower(github.SHA256SignatureHeader)]
	if signature == "" {
		signature = req.Headers[strings.ToLower(github.SHA1SignatureHeader)]
	}

	contentType := req.Headers["content-type"]

	payload, err := github.ValidatePayloadFromBody(contentType, strings.NewReader(req.Body), signature, l.s.GHSecret)
	if err != nil {
		return errors.Wrap(err, "validating payload")
	}

	typ := req.Headers[strings.ToLower(github.EventTypeHeader)]

	return l.s.OnValidGHWebhook(ctx, typ, payload)
}
