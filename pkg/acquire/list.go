package acquire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyList is returned when a repository list has no entries.
var ErrEmptyList = errors.New("repository list is empty")

// ReadRepoList reads one repository per line from the file at path.
func ReadRepoList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open repository list: %w", err)
	}
	defer f.Close()

	repos, err := ParseRepoList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return repos, nil
}

// ParseRepoList reads one repository per line. Blank lines and lines
// starting with # are ignored.
func ParseRepoList(r io.Reader) ([]string, error) {
	var repos []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		repos = append(repos, line)
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read repository list: %w", err)
	}

	if len(repos) == 0 {
		return nil, ErrEmptyList
	}

	return repos, nil
}
