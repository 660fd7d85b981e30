// Package framelist loads the per-camera index file that assigns an output
// name to each decoded frame, by position.
package framelist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads an index file and returns one output name per non-empty line,
// in file order. Line N of the result names decoded frame N.
//
// Only truly empty lines are skipped; a line of spaces is a legal (if odd)
// file name and is kept as-is. Windows line endings are tolerated. Names are
// not deduplicated: a repeated name means the later frame overwrites the
// earlier file, matching the legacy tool.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	return names, nil
}
