package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	hsrPattern   = regexp.MustCompile(`(?i)HSR-?(\d+[RFW]?)`)
	modelPattern = regexp.MustCompile(`(?i)^\d+[RFW]?$`)
	partSplit    = regexp.MustCompile(`[_\s]`)
)

// ExtractModelNumber derives a model number from a file name, e.g.
// "HSR-520R_datasheet.pdf" gives "520R". It returns "" when nothing matches.
func ExtractModelNumber(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if m := hsrPattern.FindStringSubmatch(stem); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, part := range partSplit.Split(stem, -1) {
		if modelPattern.MatchString(part) {
			return strings.ToUpper(part)
		}
	}
	return ""
}
