package epub

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mrlokans/rustypages/internal/progress"
)

var cfiPattern = regexp.MustCompile(`^epubcfi\(/6/(\d+)(?:\[[^\]]*\])?!/4(?:/\d+)*(?::(\d+))?\)$`)

// FormatLocator builds the locator of a character offset in a spine unit.
func FormatLocator(unit, offset int) progress.Locator {
	return progress.Locator(fmt.Sprintf("epubcfi(/6/%d!/4:%d)", (unit+1)*2, offset))
}

// ParseLocator returns the zero-based spine unit and character offset of a
// locator.
func ParseLocator(loc progress.Locator) (unit, offset int, err error) {
	m := cfiPattern.FindStringSubmatch(string(loc))
	if m == nil {
		return 0, 0, fmt.Errorf("malformed locator %q", loc)
	}
	step, err := strconv.Atoi(m[1])
	if err != nil || step < 2 || step%2 != 0 {
		return 0, 0, fmt.Errorf("malformed locator %q", loc)
	}
	if m[2] != "" {
		if offset, err = strconv.Atoi(m[2]); err != nil {
			return 0, 0, fmt.Errorf("malformed locator %q", loc)
		}
	}
	return step/2 - 1, offset, nil
}
