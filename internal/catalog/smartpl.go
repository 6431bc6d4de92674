package catalog

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// SmartPlaylist is the parsed form of a smart-playlist definition file
// (spec §3 Playlist lifecycle: "smart-playlist body is parsed to a
// WHERE/ORDER/LIMIT triple and stored").
type SmartPlaylist struct {
	Title string
	Where string
	Having string
	Order string
	Limit int
}

// ParseSmartPlaylist reads a smart-playlist definition in the form:
//
//	Title { My Smart Playlist }
//	WHERE media_kind = 1 AND play_count > 0
//	HAVING COUNT(*) > 1
//	ORDER BY artist_sort, album_sort
//	LIMIT 200
//
// one directive per line, case-insensitive keywords; WHERE/Title are
// required, HAVING/ORDER/LIMIT optional. This is a line-oriented
// reinterpretation of the original grammar's title/query_where/
// having/order/limit output, not a reimplementation of its boolean
// expression lexer — the stored triple is what query.Build ultimately
// consumes either way.
func ParseSmartPlaylist(text string) (SmartPlaylist, error) {
	var sp SmartPlaylist
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case hasKeyword(line, "Title"):
			sp.Title = strings.Trim(strings.TrimSpace(trimKeyword(line, "Title")), "{} ")
		case hasKeyword(line, "WHERE"):
			sp.Where = strings.TrimSpace(trimKeyword(line, "WHERE"))
		case hasKeyword(line, "HAVING"):
			sp.Having = strings.TrimSpace(trimKeyword(line, "HAVING"))
		case hasKeyword(line, "ORDER BY"):
			sp.Order = strings.TrimSpace(trimKeyword(line, "ORDER BY"))
		case hasKeyword(line, "LIMIT"):
			n, err := strconv.Atoi(strings.TrimSpace(trimKeyword(line, "LIMIT")))
			if err != nil {
				return sp, fmt.Errorf("catalog: smart playlist: bad LIMIT: %w", err)
			}
			sp.Limit = n
		}
	}
	if err := scanner.Err(); err != nil {
		return sp, fmt.Errorf("catalog: smart playlist: %w", err)
	}
	if sp.Title == "" {
		return sp, fmt.Errorf("catalog: smart playlist: missing Title")
	}
	if sp.Where == "" {
		return sp, fmt.Errorf("catalog: smart playlist: missing WHERE")
	}
	return sp, nil
}

// Reserialize renders sp back into the same directive form
// ParseSmartPlaylist reads, so that parse(parse(body).Reserialize())
// == parse(body) (spec §8 "Smart-playlist body round trip").
func (sp SmartPlaylist) Reserialize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title { %s }\n", sp.Title)
	fmt.Fprintf(&b, "WHERE %s\n", sp.Where)
	if sp.Having != "" {
		fmt.Fprintf(&b, "HAVING %s\n", sp.Having)
	}
	if sp.Order != "" {
		fmt.Fprintf(&b, "ORDER BY %s\n", sp.Order)
	}
	if sp.Limit != 0 {
		fmt.Fprintf(&b, "LIMIT %d\n", sp.Limit)
	}
	return b.String()
}

func hasKeyword(line, keyword string) bool {
	return len(line) >= len(keyword) && strings.EqualFold(line[:len(keyword)], keyword)
}

func trimKeyword(line, keyword string) string {
	return line[len(keyword):]
}
