package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"
)

type Comment struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// String renders the comment the way it is shown under a post.
func (c Comment) String() string {
	if c.Author == "" {
		return c.Text
	}
	return c.Author + ": " + c.Text
}

const legacySeparator = ": "

// ParseLegacyComment splits a flattened "author: text" entry on the first separator.
// Entries without one keep their whole content as text.
func ParseLegacyComment(s string) Comment {
	author, text, ok := strings.Cut(s, legacySeparator)
	if !ok {
		return Comment{Text: s}
	}
	return Comment{Author: author, Text: text}
}

// EncodeComments serialises comments as a JSON array of objects.
func EncodeComments(comments []Comment) (datatypes.JSON, error) {
	if comments == nil {
		comments = []Comment{}
	}
	b, err := json.Marshal(comments)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// DecodeComments reads the comment column. Besides the JSON array of objects it
// accepts JSON arrays of "author: text" strings and the older stringified list form
// (['alice: hi', "bob: it's"]).
func DecodeComments(raw []byte) ([]Comment, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err == nil {
		comments := make([]Comment, 0, len(elems))
		for i, e := range elems {
			c, err := decodeElement(e)
			if err != nil {
				return nil, fmt.Errorf("comment %d: %w", i, err)
			}
			comments = append(comments, c)
		}
		return comments, nil
	}

	entries, err := parseLiteralList(string(raw))
	if err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(entries))
	for _, e := range entries {
		comments = append(comments, ParseLegacyComment(e))
	}
	return comments, nil
}

func decodeElement(e json.RawMessage) (Comment, error) {
	e = bytes.TrimSpace(e)
	if len(e) == 0 {
		return Comment{}, errors.New("empty element")
	}
	switch e[0] {
	case '"':
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			return Comment{}, err
		}
		return ParseLegacyComment(s), nil
	case '{':
		var c Comment
		if err := json.Unmarshal(e, &c); err != nil {
			return Comment{}, err
		}
		return c, nil
	default:
		return Comment{}, fmt.Errorf("unexpected element %s", e)
	}
}

var errBadLiteral = errors.New("malformed comment list literal")

// hexEscapeWidth is the digit count after \x, \u and \U.
var hexEscapeWidth = map[byte]int{'x': 2, 'u': 4, 'U': 8}

// parseLiteralList tokenizes a bracketed list of single or double quoted strings.
func parseLiteralList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errBadLiteral
	}
	body := s[1 : len(s)-1]
	n := len(body)
	out := []string{}

	skipSpace := func(i int) int {
		for i < n && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n' || body[i] == '\r') {
			i++
		}
		return i
	}

	i := skipSpace(0)
	for i < n {
		quote := body[i]
		if quote != '\'' && quote != '"' {
			return nil, errBadLiteral
		}
		i++

		var b strings.Builder
		closed := false
		for i < n {
			c := body[i]
			if c == '\\' && i+1 < n {
				i++
				switch body[i] {
				case 'n':
					b.WriteByte('\n')
				case 'r':
					b.WriteByte('\r')
				case 't':
					b.WriteByte('\t')
				case '\\', '\'', '"':
					b.WriteByte(body[i])
				case 'x', 'u', 'U':
					width := hexEscapeWidth[body[i]]
					if i+width >= n {
						return nil, errBadLiteral
					}
					code, err := strconv.ParseUint(body[i+1:i+1+width], 16, 32)
					if err != nil || !utf8.ValidRune(rune(code)) {
						return nil, errBadLiteral
					}
					b.WriteRune(rune(code))
					i += width
				default:
					b.WriteByte('\\')
					b.WriteByte(body[i])
				}
				i++
				continue
			}
			if c == quote {
				closed = true
				i++
				break
			}
			b.WriteByte(c)
			i++
		}
		if !closed {
			return nil, errBadLiteral
		}
		out = append(out, b.String())

		i = skipSpace(i)
		if i < n {
			if body[i] != ',' {
				return nil, errBadLiteral
			}
			i = skipSpace(i + 1)
		}
	}
	return out, nil
}
