package student

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	registrationCodePrefix = "PPM"
	applicationNoPrefix    = "APP"
	deletedCodePrefix      = "DEL"

	firstRegistrationSeq = 1000
)

var registrationCodeRegex = regexp.MustCompile(`^PPM(\d+)$`)

func formatRegistrationCode(seq int64) string {
	return fmt.Sprintf("%s%d", registrationCodePrefix, seq)
}

// applicationNoBatch identifies the month a candidate applied in, eg. "APP2608".
// Application sequences restart from 0001 for every batch.
func applicationNoBatch(t time.Time) string {
	return applicationNoPrefix + t.Format("0601")
}

func formatApplicationNo(batch string, seq int64) string {
	return fmt.Sprintf("%s%04d", batch, seq)
}

// deletedCode rewrites a live code so partial unique indexes no longer see it
// while the original stays recoverable, eg. "DELPPM1004-1719838233123".
func deletedCode(code string, t time.Time) string {
	return fmt.Sprintf("%s%s-%d", deletedCodePrefix, code, t.UnixNano()/int64(time.Millisecond))
}

// OriginalCode recovers the live code from its deleted rewrite.
// Codes that were never rewritten come back unchanged.
func OriginalCode(code string) string {
	if !strings.HasPrefix(code, deletedCodePrefix) {
		return code
	}
	code = strings.TrimPrefix(code, deletedCodePrefix)
	if i := strings.LastIndex(code, "-"); i > 0 {
		if _, err := strconv.ParseInt(code[i+1:], 10, 64); err == nil {
			return code[:i]
		}
	}
	return code
}

// ParseRegistrationSeq extracts the numeric part of a live registration code.
func ParseRegistrationSeq(code string) (int64, bool) {
	m := registrationCodeRegex.FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// ParseApplicationSeq extracts the numeric tail of an application number
// belonging to the given batch.
func ParseApplicationSeq(batch, appNo string) (int64, bool) {
	if !strings.HasPrefix(appNo, batch) {
		return 0, false
	}
	seq, err := strconv.ParseInt(appNo[len(batch):], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
