package news

import (
	"regexp"
	"strings"
)

// Keywords that mark a story as Indian domestic cricket. Team/tournament
// names beat venue names here: venue names show up in world coverage too.
var domesticKeywords = []string{
	"india", "indian", "team india", "bcci",
	"ipl", "indian premier league",
	"ranji", "ranji trophy",
	"duleep trophy", "irani cup", "irani trophy",
	"vijay hazare", "syed mushtaq ali", "deodhar trophy",
	"wpl", "women's premier league",
	"men in blue",
	"eden gardens", "wankhede", "chinnaswamy", "chepauk",
}

var shortTokenRe = map[string]*regexp.Regexp{}

func init() {
	for _, k := range domesticKeywords {
		if !strings.Contains(k, " ") && len(k) <= 3 {
			shortTokenRe[k] = regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
		}
	}
}

// Classify assigns a category from title and description alone. It is pure
// and deterministic so selection stays idempotent for a given input.
func Classify(title, description string) Category {
	text := strings.ToLower(title + " " + description)

	if containsAny(text, domesticKeywords) {
		return CategoryDomestic
	}
	return CategoryWorld
}

// containsAny matches phrases as substrings and short tokens ("ipl", "wpl")
// as whole words, so "ipl" never matches inside "triple".
func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") {
			if strings.Contains(text, k) {
				return true
			}
			continue
		}

		if re, ok := shortTokenRe[k]; ok {
			if re.MatchString(text) {
				return true
			}
			continue
		}

		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
