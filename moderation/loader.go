package moderation

import (
	"bufio"
	"bytes"
	"campus-chat/errors"
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed censored/*.txt
var censoredFolder embed.FS

// Dictionary is the merged content of the censored word lists.
type Dictionary struct {
	Words     []string
	Languages []string
}

// LoadEmbedded reads the dictionaries shipped with the binary.
func LoadEmbedded() (Dictionary, error) {
	return LoadDictionary(censoredFolder, "censored")
}

// LoadDictionary reads every .txt file of dir, one word per line, the file name being the language.
func LoadDictionary(fsys fs.FS, dir string) (Dictionary, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return Dictionary{}, err
	}

	var languages []string
	var words []string
	seen := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return Dictionary{}, err
		}

		// Scanner copes with both \n and \r\n
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			words = append(words, line)
		}
		if err := scanner.Err(); err != nil {
			return Dictionary{}, err
		}
	}

	if len(words) == 0 {
		return Dictionary{}, errors.ErrEmptyWords
	}
	return Dictionary{Words: words, Languages: languages}, nil
}
