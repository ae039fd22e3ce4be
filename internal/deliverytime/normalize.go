// Package deliverytime は配達時刻の文字列を HH:MM:SS にそろえる。
// 表示・スケジュール用の壁時計の値で、タイムゾーンは持たない。
package deliverytime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// H[H]:MM[:SS]
	re24 = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	// H[H]:MM AM|PM（大文字小文字は問わない）
	re12 = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*([ap]m)$`)
)

// MalformedTimeError は解釈できない時刻文字列。
type MalformedTimeError struct {
	Input string
}

func (e *MalformedTimeError) Error() string {
	return fmt.Sprintf("invalid delivery time format: %q", e.Input)
}

// Normalize は24時間表記、12時間表記の順に試す。
func Normalize(s string) (string, error) {
	in := strings.TrimSpace(s)

	if m := re24.FindStringSubmatch(in); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		sec := 0
		if m[3] != "" {
			sec, _ = strconv.Atoi(m[3])
		}
		if h > 23 || mi > 59 || sec > 59 {
			return "", &MalformedTimeError{Input: s}
		}
		return format(h, mi, sec), nil
	}

	if m := re12.FindStringSubmatch(in); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])
		//12時間表記に0時はない
		if h < 1 || h > 12 || mi > 59 {
			return "", &MalformedTimeError{Input: s}
		}
		pm := strings.EqualFold(m[3], "pm")
		switch {
		case h == 12 && !pm:
			h = 0
		case h != 12 && pm:
			h += 12
		}
		return format(h, mi, 0), nil
	}

	return "", &MalformedTimeError{Input: s}
}

func format(h, m, s int) string {
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
