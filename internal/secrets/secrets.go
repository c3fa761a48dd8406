package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ErrNotFound is returned when a secret is absent or empty.
var ErrNotFound = errors.New("secret not found")

// Store resolves named secrets such as API keys.
type Store interface {
	Lookup(name string) (string, error)
}

// EnvStore reads secrets from the process environment first and then from a
// dotenv-format secrets file.
type EnvStore struct {
	file map[string]string
}

// NewEnvStore loads the optional secrets file. A missing file is not an error.
func NewEnvStore(path string) (*EnvStore, error) {
	s := &EnvStore{file: map[string]string{}}
	if path == "" {
		return s, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	s.file = values
	return s, nil
}

func (s *EnvStore) Lookup(name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	if v := strings.TrimSpace(s.file[name]); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Static is an in-memory store, used for explicit keys and tests.
type Static map[string]string

func (s Static) Lookup(name string) (string, error) {
	if v := strings.TrimSpace(s[name]); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
