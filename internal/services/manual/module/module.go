// Package module wires manual inserts to the GitHub client and the message store
package module

import (
	"garden/internal/adapters/github"
	"garden/internal/adapters/roster"
	"garden/internal/modkit"
	"garden/internal/platform/config"
	"garden/internal/services/manual/service"
	msgmod "garden/internal/services/messages/module"
)

// Options holds configuration for manual inserts
type Options struct {
	GitHubTokens  string
	GitHubBaseURL string
	Operator      string
	BotUser       string
}

// FromConfig reads options with the CORE_MANUAL_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_MANUAL_")
	return Options{
		GitHubTokens:  c.MayString("GITHUB_TOKENS", ""),
		GitHubBaseURL: c.MayString("GITHUB_BASE_URL", ""),
		Operator:      c.MayString("OPERATOR", ""),
		BotUser:       c.MayString("BOT_USER", ""),
	}
}

// Module implements the manual insert module
type Module struct {
	deps modkit.Deps
	svc  *service.Service
}

// New constructs the module
func New(deps modkit.Deps, r *roster.Roster, messages *msgmod.Module, opts Options) *Module {
	gh := github.NewClient(github.Options{BaseURL: opts.GitHubBaseURL, TokensCSV: opts.GitHubTokens})
	svc := service.New(r, messages.Store(), gh, service.Config{Operator: opts.Operator, BotUser: opts.BotUser})
	return &Module{deps: deps, svc: svc}
}

// Name returns the module name
func (m *Module) Name() string { return "manual" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.svc }

// Service returns the insert service
func (m *Module) Service() *service.Service { return m.svc }
