package nlp

import (
	"regexp"
	"strings"
)

// Intent is the closed-set category describing what the user asks about.
type Intent string

const (
	IntentMeteo      Intent = "meteo"
	IntentPlantation Intent = "plantation"
	IntentRecolte    Intent = "recolte"
	IntentMaladie    Intent = "maladie"
	IntentConseil    Intent = "conseil"
	IntentAlerte     Intent = "alerte"
	IntentGeneral    Intent = "general"
)

// intentPatterns are matched against the normalized message, so the patterns
// themselves are accent-free.
var intentPatterns = map[Intent][]*regexp.Regexp{
	IntentMeteo: {
		regexp.MustCompile(`\b(meteo|temps|temperature|pluie|chaleur|climat|previsions?)\b`),
		regexp.MustCompile(`\bfait[- ]il\b`),
		regexp.MustCompile(`\bquel\s+(temps|meteo)\b`),
		regexp.MustCompile(`\bconditions?\s+(climatiques?|meteo)\b`),
	},
	IntentPlantation: {
		regexp.MustCompile(`\b(planter|semer|semis|plantation|cultiver)\b`),
		regexp.MustCompile(`\bquand\s+(?:puis[- ]je\s+)?(?:planter|semer|cultiver)\b`),
		regexp.MustCompile(`\bperiode\s+(?:de\s+)?(?:plantation|semis|pour\s+(?:planter|semer|cultiver))\b`),
		regexp.MustCompile(`\bmoment\s+(?:pour|de)\s+(?:planter|semer|cultiver)\b`),
		regexp.MustCompile(`\bculture\s+d[eu]\b`),
		regexp.MustCompile(`\badapter?\s+pour\s+(?:la\s+)?culture\b`),
	},
	IntentRecolte: {
		regexp.MustCompile(`\b(recolter?|recolte|cueillir|ramasser)\b`),
		regexp.MustCompile(`\bperiode\s+(?:de\s+)?recolte\b`),
		regexp.MustCompile(`\bquand\s+recolter\b`),
		regexp.MustCompile(`\bmaturite\b`),
	},
	IntentMaladie: {
		regexp.MustCompile(`\b(maladie|parasite|traiter?|probleme|insecte|ravageur)\b`),
		regexp.MustCompile(`\battaque\s+de\b`),
		regexp.MustCompile(`\binfection\b`),
		regexp.MustCompile(`\bsoigner\b`),
		regexp.MustCompile(`\btraitement\s+(?:contre|pour)\b`),
	},
	IntentConseil: {
		regexp.MustCompile(`\b(conseil|astuce|recommandation|aide|technique|methode)\b`),
		regexp.MustCompile(`\bcomment\s+(?:faire|cultiver)\b`),
		regexp.MustCompile(`\bbonnes?\s+pratiques?\b`),
	},
}

// intentPriority resolves multi-intent messages: disease questions are the
// most urgent, weather the least specific.
var intentPriority = []Intent{IntentMaladie, IntentPlantation, IntentRecolte, IntentConseil, IntentMeteo}

// ClassifyIntent scores each pattern category against the normalized message
// and returns the winning intent, or IntentGeneral when nothing matches.
func ClassifyIntent(message string) Intent {
	msg := Normalize(message)

	scores := make(map[Intent]int)
	for intent, patterns := range intentPatterns {
		score := 0
		for _, re := range patterns {
			score += len(re.FindAllString(msg, -1))
		}
		if score > 0 {
			scores[intent] = score
		}
	}

	if len(scores) == 0 {
		return IntentGeneral
	}

	for _, intent := range intentPriority {
		if scores[intent] > 0 {
			return intent
		}
	}

	// The priority list covers every pattern category, so this is unreachable;
	// kept as a best-score fallback should a category ever be added without a
	// priority slot.
	best, bestScore := IntentGeneral, 0
	for intent, score := range scores {
		if score > bestScore {
			best, bestScore = intent, score
		}
	}
	return best
}

// Fallback keyword lists keep their accents: they are matched against the raw
// lowercased message, not the normalized form, to recover colloquial phrasing
// the regex set misses.
var fallbackKeywords = []struct {
	intent   Intent
	keywords []string
}{
	{IntentPlantation, []string{"planter", "semer", "cultiver", "culture", "semis", "période", "moment", "quand", "adapter"}},
	{IntentRecolte, []string{"récolter", "récolte", "ramasser", "cueillir", "maturité"}},
	{IntentMaladie, []string{"maladie", "parasite", "traiter", "traitement", "insecte", "pest", "infection", "attaque"}},
	{IntentConseil, []string{"conseil", "recommandation", "technique", "méthode", "astuce", "comment"}},
	{IntentMeteo, []string{"météo", "temps", "climat", "température", "pluie", "chaleur"}},
	{IntentAlerte, []string{"alerte", "danger", "risque", "urgence", "problème", "sécheresse", "inondation", "vent", "orage"}},
}

// RefineIntent is the fallback pass, run only when the primary classification
// is inconclusive. It scans the keyword lists in order and returns the first
// hit; plantation only wins when no harvest keyword is present in the same
// message (harvest takes precedence in this pass only).
func RefineIntent(message string) (Intent, bool) {
	lower := strings.ToLower(message)

	for _, group := range fallbackKeywords {
		if !containsAny(lower, group.keywords) {
			continue
		}
		if group.intent == IntentPlantation && containsAny(lower, fallbackKeywords[1].keywords) {
			continue
		}
		return group.intent, true
	}
	return IntentGeneral, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
