package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// stripMarks lowercases s and removes combining accent marks.
func stripMarks(s string) string {
	t := norm.NFD.String(s)
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

func GenerateSlug(name string) string {
	s := nonAlnum.ReplaceAllString(stripMarks(name), "-")
	return strings.Trim(s, "-")
}

// FoldName is the case and accent-insensitive form used for name search,
// so "Nguyễn Văn Ánh" matches "nguyen van anh".
func FoldName(name string) string {
	s := strings.ReplaceAll(stripMarks(name), "đ", "d")
	return strings.Join(strings.Fields(s), " ")
}

func ParseBoolQuery(value string) (*bool, error) {
	if value == "" {
		return nil, nil // not provided
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Page clamps raw page/limit query values and returns the skip offset.
func Page(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit int, skip int64) {
	page = ParseIntDefault(pageStr, 1)
	limit = ParseIntDefault(limitStr, defaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit, int64((page - 1) * limit)
}
