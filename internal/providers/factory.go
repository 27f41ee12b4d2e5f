package providers

import (
	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

// New builds the provider selected by git.platform.
func New(cfg *config.Config) (Provider, error) {
	switch cfg.Git.Platform {
	case config.PlatformHostedA:
		return NewGitHub(cfg.Git, cfg.Repositories)
	case config.PlatformHostedB:
		return NewGitLab(cfg.Git, cfg.Repositories)
	case config.PlatformEnterprise:
		return NewEnterprise(cfg.Git, cfg.Repositories)
	case config.PlatformLocalClone:
		return NewLocalClone(cfg.Git, cfg.Repositories)
	default:
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "unknown git.platform %q", cfg.Git.Platform)
	}
}
