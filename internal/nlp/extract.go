package nlp

import (
	"regexp"
	"strings"

	"github.com/agrisahel/smartagribot/internal/domain"
)

// cropCatalog maps each canonical crop name to its surface-form variants,
// including common misspellings. Order is significant: crops are scanned in
// this order and the first variant hit wins.
var cropCatalog = []struct {
	name     string
	variants []string
}{
	{"coton", []string{"coton", "cotonnier"}},
	{"mais", []string{"mais", "maiz", "maïs", "maïz"}},
	{"mil", []string{"mil", "millet"}},
	{"soja", []string{"soja", "soya"}},
	{"tomate", []string{"tomate", "tomates"}},
	{"pomme de terre", []string{"pomme de terre", "patate", "pommes de terre"}},
}

// cropPatterns holds one word-boundary regexp per normalized variant,
// compiled once at startup.
var cropPatterns = func() []struct {
	name string
	res  []*regexp.Regexp
} {
	out := make([]struct {
		name string
		res  []*regexp.Regexp
	}, 0, len(cropCatalog))
	for _, crop := range cropCatalog {
		res := make([]*regexp.Regexp, 0, len(crop.variants))
		for _, v := range crop.variants {
			res = append(res, regexp.MustCompile(`\b`+regexp.QuoteMeta(Normalize(v))+`\b`))
		}
		out = append(out, struct {
			name string
			res  []*regexp.Regexp
		}{crop.name, res})
	}
	return out
}()

// ExtractCrop resolves a canonical crop name from free text, matching each
// variant with word boundaries against the normalized message. Returns ""
// when no crop is mentioned.
func ExtractCrop(message string) string {
	msg := Normalize(message)
	for _, crop := range cropPatterns {
		for _, re := range crop.res {
			if re.MatchString(msg) {
				return crop.name
			}
		}
	}
	return ""
}

// ExtractRegion resolves a region record from free text. A region matches
// when its normalized name appears as a contiguous substring of the
// normalized message, or when every token of the name appears somewhere in
// the message (so "centre sud" is found in "au sud du centre"). The first
// matching region in list order wins.
func ExtractRegion(message string, regions []domain.Region) *domain.Region {
	if len(regions) == 0 {
		return nil
	}

	msg := Normalize(message)
	for i := range regions {
		name := Normalize(regions[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(msg, name) {
			return &regions[i]
		}
		if allTokensPresent(msg, strings.Fields(name)) {
			return &regions[i]
		}
	}
	return nil
}

func allTokensPresent(msg string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(msg, tok) {
			return false
		}
	}
	return true
}
