// Package hostruntime models the application environment the server boots on
// demand. The environment is an external collaborator: konsol only needs a
// boot hook plus optional execute/reload combinators that wrap each
// evaluation, so the host can manage connection checkouts, class reloading,
// and per-request state.
package hostruntime

import (
	"fmt"
	"log"
	"os"
)

// Runtime is the minimal host-runtime surface: a one-shot boot hook. Boot is
// synchronous; if it fails, the caller may retry on a later session create.
type Runtime interface {
	Boot() error
}

// Executor wraps each evaluation. Optional: runtimes that do not implement
// it run evaluations bare.
type Executor interface {
	Execute(fn func() error) error
}

// Reloader wraps each evaluation inside the executor, typically to reload
// changed code before the snippet runs. Optional.
type Reloader interface {
	Reload(fn func() error) error
}

// Wrap runs fn through the runtime's combinators: Execute(Reload(fn)) when
// both are present, Execute(fn) with only an executor, bare otherwise. The
// combinators are opaque; Wrap only composes them.
func Wrap(rt Runtime, fn func() error) error {
	if rt == nil {
		return fn()
	}
	ex, hasExecutor := rt.(Executor)
	if !hasExecutor {
		return fn()
	}
	rl, hasReloader := rt.(Reloader)
	if !hasReloader {
		return ex.Execute(fn)
	}
	return ex.Execute(func() error {
		return rl.Reload(fn)
	})
}

// EnvVar selects the host environment profile.
const EnvVar = "KONSOL_ENV"

// DefaultProfile is used when the environment variable is unset and no
// config file overrides it.
const DefaultProfile = "development"

// ProfileFromEnv reads the host environment profile from the process
// environment, falling back to the default.
func ProfileFromEnv() string {
	if profile := os.Getenv(EnvVar); profile != "" {
		return profile
	}
	return DefaultProfile
}

// Default is the host runtime used when no application-specific runtime is
// registered. It treats the working directory at launch as the application
// root and boots an empty environment there.
type Default struct {
	Profile string
	Root    string
}

// NewDefault creates a Default runtime for the given profile and application
// root.
func NewDefault(profile, root string) *Default {
	if profile == "" {
		profile = ProfileFromEnv()
	}
	return &Default{Profile: profile, Root: root}
}

// Boot validates the application root and logs the profile. It carries no
// application environment of its own, so there is nothing else to load.
func (d *Default) Boot() error {
	if d.Root != "" {
		info, err := os.Stat(d.Root)
		if err != nil {
			return fmt.Errorf("application root %s: %w", d.Root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("application root %s is not a directory", d.Root)
		}
	}
	log.Printf("host runtime booted (profile=%s, root=%s)", d.Profile, d.Root)
	return nil
}
