package secrets

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are omitted from the result map.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// DotenvLoader returns a Loader that reads keys from a .env file, falling
// back to the process environment for keys the file does not set. The file
// wins so that rotating a key means editing it and reloading. A missing file
// is not an error.
func DotenvLoader(path string, keys ...string) Loader {
	env := EnvLoader(keys...)
	return func() (map[string]string, error) {
		vals, _ := env()
		file, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for _, k := range keys {
			if v := file[k]; v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
