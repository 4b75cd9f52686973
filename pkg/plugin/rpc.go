// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"
	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/argspec"
)

// ProviderName is the key binary plugins register their Provider under.
const ProviderName = "provider"

// HandshakeConfig is the go-plugin handshake configuration.
// Both host and plugins must use the same values.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "HOOKHOST_PLUGIN",
	MagicCookieValue: "hookhost-v1",
}

// SubcommandInfo describes a subcommand across the process boundary.
type SubcommandInfo struct {
	Name    string
	Summary string
	Usage   string
}

// PostCommandInfo describes a post-command across the process boundary.
type PostCommandInfo struct {
	Name   string
	RunFor []string
}

// Description is everything a binary plugin registers.
type Description struct {
	Name         string
	Subcommands  []SubcommandInfo
	PostCommands []PostCommandInfo
}

// RunRequest asks a binary plugin to run one subcommand.
type RunRequest struct {
	Name   string
	Args   []string
	Prefix string
}

// PostRequest asks a binary plugin to run one post-command.
type PostRequest struct {
	Name    string
	Command string
	Prefix  string
}

// RunResponse carries an action's console output back to the host.
// Usage is set when the action rejected its input; Error is set for any
// other action failure.
type RunResponse struct {
	Stdout string
	Stderr string
	Usage  *argspec.UsageError
	Error  string
}

// Provider is the RPC surface of a binary plugin.
type Provider interface {
	Describe() (Description, error)
	Run(req RunRequest) (RunResponse, error)
	RunPost(req PostRequest) (RunResponse, error)
}

// ProviderPlugin implements go-plugin's Plugin interface over net/rpc.
type ProviderPlugin struct {
	// Impl is used on the plugin side only.
	Impl Provider
}

// Server returns the RPC server (called by the plugin process).
func (p *ProviderPlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	if p.Impl == nil {
		return nil, oops.In("plugin").New("provider implementation is nil")
	}
	return &rpcServer{impl: p.Impl}, nil
}

// Client returns the RPC client (called by the host process).
func (p *ProviderPlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &rpcClient{client: c}, nil
}

// rpcServer exposes a Provider as net/rpc methods.
type rpcServer struct {
	impl Provider
}

func (s *rpcServer) Describe(_ interface{}, resp *Description) error {
	d, err := s.impl.Describe()
	if err != nil {
		return err
	}
	*resp = d
	return nil
}

func (s *rpcServer) Run(req RunRequest, resp *RunResponse) error {
	r, err := s.impl.Run(req)
	if err != nil {
		return err
	}
	*resp = r
	return nil
}

func (s *rpcServer) RunPost(req PostRequest, resp *RunResponse) error {
	r, err := s.impl.RunPost(req)
	if err != nil {
		return err
	}
	*resp = r
	return nil
}

// rpcClient is the host-side Provider.
type rpcClient struct {
	client *rpc.Client
}

func (c *rpcClient) Describe() (Description, error) {
	var resp Description
	if err := c.client.Call("Plugin.Describe", new(interface{}), &resp); err != nil {
		return Description{}, oops.In("plugin").With("method", "Describe").Wrap(err)
	}
	return resp, nil
}

func (c *rpcClient) Run(req RunRequest) (RunResponse, error) {
	var resp RunResponse
	if err := c.client.Call("Plugin.Run", req, &resp); err != nil {
		return RunResponse{}, oops.In("plugin").With("method", "Run").With("subcommand", req.Name).Wrap(err)
	}
	return resp, nil
}

func (c *rpcClient) RunPost(req PostRequest) (RunResponse, error) {
	var resp RunResponse
	if err := c.client.Call("Plugin.RunPost", req, &resp); err != nil {
		return RunResponse{}, oops.In("plugin").With("method", "RunPost").With("post_command", req.Name).Wrap(err)
	}
	return resp, nil
}
