package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDatePrefix  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	usDatePrefix   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	slashISOPrefix = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})`)
)

// ToSortableDate canonicalizes a date-like cell to YYYY-MM-DD.
//
// Recognized prefixes are YYYY-M-D, M/D/YYYY and YYYY/M/D, each possibly
// followed by a time or other text. Anything else is returned trimmed and
// otherwise unchanged, so lexicographic ordering of such values is best effort.
func ToSortableDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if m := isoDatePrefix.FindStringSubmatch(s); m != nil {
		return formatYMD(m[1], m[2], m[3])
	}
	if m := usDatePrefix.FindStringSubmatch(s); m != nil {
		return formatYMD(m[3], m[1], m[2])
	}
	if m := slashISOPrefix.FindStringSubmatch(s); m != nil {
		return formatYMD(m[1], m[2], m[3])
	}
	return s
}

func formatYMD(year, month, day string) string {
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%s-%02d-%02d", year, mo, d)
}
