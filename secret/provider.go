package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as an environment variable name,
// optionally prefixed.
//
//	secretref:env:REDIS_PASSWORD
type EnvProvider struct {
	prefix string
	lookup LookupFunc
}

// NewEnvProvider creates an env provider reading the process environment.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: prefix, lookup: os.LookupEnv}
}

// Name implements Provider.
func (p *EnvProvider) Name() string { return "env" }

// Resolve implements Provider.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := p.lookup(p.prefix + ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s%s", ErrSecretNotFound, p.prefix, ref)
	}
	return v, nil
}

// Close implements Provider.
func (p *EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file below a base directory, the
// layout used by mounted container secrets. One trailing newline is trimmed.
//
//	secretref:file:redis/password   ->  <dir>/redis/password
type FileProvider struct {
	root *os.Root
}

// NewFileProvider opens dir. References cannot escape it.
func NewFileProvider(dir string) (*FileProvider, error) {
	root, err := os.OpenRoot(filepath.Clean(dir))
	if err != nil {
		return nil, fmt.Errorf("secret: open file provider dir: %w", err)
	}
	return &FileProvider{root: root}, nil
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Resolve implements Provider.
func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := p.root.ReadFile(filepath.FromSlash(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: file %s", ErrSecretNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	s := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// Close implements Provider.
func (p *FileProvider) Close() error { return p.root.Close() }

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*FileProvider)(nil)
)
