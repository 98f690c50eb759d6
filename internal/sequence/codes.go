// Package sequence generates the sequential business codes assigned to
// customers and projects.
package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedCode indicates a project code that does not match
// "<customerCode>.<serial4><letter>".
var ErrMalformedCode = errors.New("sequence: malformed project code")

// CustomerCode formats the n-th customer code, zero-padded to 4 digits.
// n is the 1-indexed counter value.
func CustomerCode(n int64) string {
	return fmt.Sprintf("%04d", n)
}

// ProjectCode formats the initial code for the serial-th project
// (0-indexed running counter) under the given customer code. The serial
// letter starts at 'A'.
func ProjectCode(customerCode string, serial int64) string {
	letter := rune('A' + serial%26)
	return fmt.Sprintf("%s.%04d%c", customerCode, serial+1, letter)
}

// BumpCode derives the next code for a materially changed project by
// incrementing the serial. The letter restarts from base 'B' rather than
// 'A'; the asymmetry against ProjectCode is long-standing observed
// behaviour and must not be "fixed" here.
func BumpCode(code string) (string, error) {
	base, serial, err := splitCode(code)
	if err != nil {
		return "", err
	}
	letter := rune('B' + (serial-1)%26)
	return fmt.Sprintf("%s.%04d%c", base, serial+1, letter), nil
}

func splitCode(code string) (base string, serial int64, err error) {
	base, suffix, ok := strings.Cut(code, ".")
	if !ok || len(suffix) < 2 {
		return "", 0, ErrMalformedCode
	}
	digits := suffix[:len(suffix)-1]
	last := suffix[len(suffix)-1]
	if last < 'A' || last > 'Z' {
		return "", 0, ErrMalformedCode
	}
	serial, err = strconv.ParseInt(digits, 10, 64)
	if err != nil || serial < 1 {
		return "", 0, ErrMalformedCode
	}
	return base, serial, nil
}
