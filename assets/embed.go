// Package assets embeds the default word bank and the SQL migrations.
package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed words.txt
var words embed.FS

//go:embed sql/*.sql
var migrations embed.FS

func readLines(name string) ([]string, error) {
	f, err := words.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// WordList returns the embedded word bank, one raw entry per line.
func WordList() ([]string, error) {
	return readLines("words.txt")
}

// Migrations returns the SQL migration files, rooted so that names are
// plain file names ("001_init.sql").
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "sql")
	if err != nil {
		panic(err) // the embed pattern guarantees the directory exists
	}
	return sub
}
