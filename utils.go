package mapf

import (
	"fmt"
	"regexp"
)

func SanitizeJsonArrayLineBreaks(json string) string {
	res := fmt.Sprintf("%s", json)
	var numbers = regexp.MustCompile(`\s*(-?[0-9.]+),\s+(-?[0-9.]+)(,)?`)
	var brackets = regexp.MustCompile(`\[((-?[0-9.]+,)+-?[0-9.]+)\s+\](,?)(\s+)`)
	for numbers.MatchString(res) {
		res = numbers.ReplaceAllString(res, "$1,$2$3")
	}
	for brackets.MatchString(res) {
		res = brackets.ReplaceAllString(res, "[$1]$3$4")
	}
	return res
}
