// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
)

// NewLocalProvider adapts an in-process plugin to Provider. The plugin's
// registration entry points are called once, on first use.
func NewLocalProvider(p Plugin) Provider {
	return &localProvider{plugin: p}
}

type localProvider struct {
	plugin Plugin

	once  sync.Once
	desc  Description
	subs  map[string]Subcommand
	posts map[string]PostCommand
}

func (l *localProvider) collect() {
	l.once.Do(func() {
		l.desc.Name = l.plugin.Name()
		l.subs = make(map[string]Subcommand)
		l.posts = make(map[string]PostCommand)

		if sp, ok := l.plugin.(SubcommandProvider); ok {
			for sub := range sp.Subcommands() {
				l.subs[sub.Name] = sub
				l.desc.Subcommands = append(l.desc.Subcommands, SubcommandInfo{
					Name:    sub.Name,
					Summary: sub.Summary,
					Usage:   sub.Usage,
				})
			}
		}
		if pp, ok := l.plugin.(PostCommandProvider); ok {
			for post := range pp.PostCommands() {
				l.posts[post.Name] = post
				l.desc.PostCommands = append(l.desc.PostCommands, PostCommandInfo{
					Name:   post.Name,
					RunFor: append([]string(nil), post.RunFor...),
				})
			}
		}
	})
}

func (l *localProvider) Describe() (Description, error) {
	l.collect()
	return l.desc, nil
}

func (l *localProvider) Run(req RunRequest) (RunResponse, error) {
	l.collect()
	sub, ok := l.subs[req.Name]
	if !ok || sub.Action == nil {
		return RunResponse{}, oops.In("plugin").With("subcommand", req.Name).New("unknown subcommand")
	}

	var stdout, stderr bytes.Buffer
	env := &Env{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
		Prefix: req.Prefix,
	}
	err := sub.Action(context.Background(), env, req.Args)
	return respond(stdout.String(), stderr.String(), err), nil
}

func (l *localProvider) RunPost(req PostRequest) (RunResponse, error) {
	l.collect()
	post, ok := l.posts[req.Name]
	if !ok || post.Action == nil {
		return RunResponse{}, oops.In("plugin").With("post_command", req.Name).New("unknown post-command")
	}

	var stdout, stderr bytes.Buffer
	env := &Env{
		Stdin:  strings.NewReader(""),
		Stdout: &stdout,
		Stderr: &stderr,
		Prefix: req.Prefix,
	}
	err := post.Action(context.Background(), env, req.Command)
	return respond(stdout.String(), stderr.String(), err), nil
}

func respond(stdout, stderr string, err error) RunResponse {
	resp := RunResponse{Stdout: stdout, Stderr: stderr}
	if err == nil {
		return resp
	}
	var ue *argspec.UsageError
	if errors.As(err, &ue) {
		resp.Usage = ue
		return resp
	}
	resp.Error = err.Error()
	return resp
}
