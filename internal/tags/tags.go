package tags

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Key identifies one entry of the closed tag vocabulary.
type Key string

const (
	KeyTitle       Key = "TITLE"
	KeyArtist      Key = "ARTIST"
	KeyAlbum       Key = "ALBUM"
	KeyTrackNumber Key = "TRACKNUMBER"
	KeyYear        Key = "DATE"
	KeyGenre       Key = "GENRE"
	KeyComment     Key = "COMMENT"
	KeyAlbumArtist Key = "ALBUMARTIST"
	KeyComposer    Key = "COMPOSER"
	KeyDiscNumber  Key = "DISCNUMBER"
)

// writerFlags maps each vocabulary key to the tag writer's argument. Keys
// outside this table are dropped, never passed through.
var writerFlags = map[Key]string{
	KeyTitle:       "--title",
	KeyArtist:      "--artist",
	KeyAlbum:       "--album",
	KeyTrackNumber: "--tracknum",
	KeyYear:        "--year",
	KeyGenre:       "--genre",
	KeyComment:     "--comment",
	KeyAlbumArtist: "--albumArtist",
	KeyComposer:    "--composer",
	KeyDiscNumber:  "--disk",
}

// exportAliases folds alternate export spellings onto the vocabulary.
var exportAliases = map[string]Key{
	"YEAR": KeyYear,
}

// Pair is one mapped tag entry; order follows the export file.
type Pair struct {
	Key   Key
	Value string
}

// TagSet is the transient tag collection built per conversion.
type TagSet struct {
	Pairs       []Pair
	ArtworkPath string
}

// Empty reports whether nothing was mapped.
func (t TagSet) Empty() bool {
	return len(t.Pairs) == 0 && t.ArtworkPath == ""
}

// ParseExport reads a flat KEY=VALUE export and keeps the first occurrence of
// every recognized key. Unrecognized keys and malformed lines are dropped;
// values pass through unchanged.
func ParseExport(r io.Reader) TagSet {
	var set TagSet
	seen := make(map[Key]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rawKey, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, known := mapExportKey(rawKey)
		if !known {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		seen[key] = struct{}{}
		set.Pairs = append(set.Pairs, Pair{Key: key, Value: value})
	}
	return set
}

func mapExportKey(raw string) (Key, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := exportAliases[upper]; ok {
		return alias, true
	}
	key := Key(upper)
	if _, ok := writerFlags[key]; ok {
		return key, true
	}
	return "", false
}

var genreCaser = cases.Title(language.Und)

// TitleCaseGenre rewrites the genre value as title-cased words ("progressive
// rock" → "Progressive Rock"). Opt-in via encoding.title_case_genre; by
// default tag values are never mutated.
func TitleCaseGenre(set TagSet) TagSet {
	for i, pair := range set.Pairs {
		if pair.Key == KeyGenre {
			set.Pairs[i].Value = genreCaser.String(strings.ToLower(pair.Value))
		}
	}
	return set
}

// WriterArgs renders the mapped tag set as tag-writer arguments, artwork
// included. An empty set renders no arguments.
func WriterArgs(set TagSet) []string {
	args := make([]string, 0, len(set.Pairs)*2+2)
	for _, pair := range set.Pairs {
		args = append(args, writerFlags[pair.Key], pair.Value)
	}
	if set.ArtworkPath != "" {
		args = append(args, "--artwork", set.ArtworkPath)
	}
	return args
}

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
)

// SniffImageExtension inspects exported artwork bytes and picks a file
// extension the tag writer will accept.
func SniffImageExtension(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return ".png"
	case bytes.HasPrefix(data, jpegMagic):
		return ".jpg"
	default:
		return ".img"
	}
}
