package chatbot

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/nlp"
	"github.com/agrisahel/smartagribot/internal/store"
)

func (s *Service) handleMeteo(ctx context.Context, region *domain.Region, regions []domain.Region, sentiment nlp.Sentiment) domain.Reply {
	if region == nil {
		return regionClarification("Pour quelle région souhaitez-vous connaître la météo ?", "Météo", regions)
	}

	weather, err := s.weather.ForRegion(ctx, region.ID)
	if err != nil {
		return domain.Reply{Response: fmt.Sprintf("❌ Désolé, je n'ai pas pu récupérer la météo : %v", err)}
	}

	var b strings.Builder
	if sentiment == nlp.SentimentNegative {
		fmt.Fprintf(&b, "Je comprends votre inquiétude. Voici la météo actuelle pour %s :\n\n", weather.Region)
	} else {
		fmt.Fprintf(&b, "Météo actuelle pour %s :\n\n", weather.Region)
	}
	fmt.Fprintf(&b, "🌡️ Température : %s°C (ressenti %s°C)\n", num(weather.Temperature), num(weather.FeelsLike))
	fmt.Fprintf(&b, "💧 Humidité : %s%%\n", num(weather.Humidity))
	fmt.Fprintf(&b, "☁️ Conditions : %s\n", cleanText(capitalize(weather.Description)))
	fmt.Fprintf(&b, "💨 Vent : %s m/s\n", num(weather.WindSpeed))
	fmt.Fprintf(&b, "Pression : %s hPa", num(weather.Pressure))

	alerts := s.alerts.Detect(ctx, region.ID)
	switch {
	case len(alerts) > 0:
		fmt.Fprintf(&b, "\n\n🚨 **%d ALERTE(S) ACTIVE(S) POUR CETTE RÉGION**\n", len(alerts))
		for _, a := range alerts[:min(len(alerts), 2)] {
			fmt.Fprintf(&b, "• %s\n", a.Title)
		}
		b.WriteString("\nTapez 'alertes' pour plus de détails.")
	case weather.Temperature > 35:
		b.WriteString("\n\n⚠️ Attention : Forte chaleur. Arrosez vos cultures en fin de journée.")
	case weather.Humidity > 80:
		b.WriteString("\n\n💡 Conseil : Humidité élevée. Surveillez les maladies fongiques.")
	}

	return domain.Reply{
		Response:    b.String(),
		Data:        weather,
		HasAlerts:   len(alerts) > 0,
		Suggestions: []string{"Calendrier de plantation", "Conseils culture", "Voir les alertes"},
	}
}

func (s *Service) handlePlantation(ctx context.Context, cropName string, region *domain.Region, regions []domain.Region) domain.Reply {
	if cropName == "" {
		crops, err := s.store.Crops(ctx)
		if err != nil {
			return errorReply(err.Error())
		}
		var b strings.Builder
		b.WriteString("🌱 Pour quelle culture voulez-vous connaître la période de plantation ?\n\n")
		b.WriteString("Cultures disponibles:\n")
		for _, c := range crops {
			fmt.Fprintf(&b, "• %s\n", cleanText(capitalize(c.Name)))
		}
		var suggestions []string
		for _, c := range crops[:min(len(crops), 3)] {
			suggestions = append(suggestions, "Planter "+c.Name)
		}
		return domain.Reply{Response: b.String(), Suggestions: suggestions}
	}

	crop, err := s.store.CropByName(ctx, cropName)
	if err != nil {
		return errorReply(err.Error())
	}
	if crop == nil {
		return domain.Reply{
			Response: fmt.Sprintf("Désolé, je ne connais pas cette culture : %s\n\n"+
				"Cultures disponibles : coton, maïs, mil, soja, tomate, pomme de terre", cropName),
			Suggestions: []string{"Voir toutes les cultures"},
		}
	}

	var regionInfo string
	if region == nil {
		if len(regions) == 0 {
			return domain.Reply{Response: "Aucune région disponible dans la base de données."}
		}
		region = &regions[0]
		regionInfo = fmt.Sprintf(" (région par défaut : %s)", cleanText(region.Name))
	} else {
		regionInfo = fmt.Sprintf(" dans la région %s", cleanText(region.Name))
	}

	calendar, err := s.store.Calendar(ctx, crop.ID, region.ID)
	if err != nil {
		return errorReply(err.Error())
	}
	if calendar == nil {
		return domain.Reply{Response: fmt.Sprintf("Pas d'information de calendrier pour %s%s", cropName, regionInfo)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌱 **Plantation de %s**%s\n\n", cleanText(capitalize(cropName)), regionInfo)
	fmt.Fprintf(&b, " Période de semis : %s\n\n", cleanText(calendar.SowingPeriod))

	// Weather context is a nice-to-have; a provider outage must not block the
	// calendar answer.
	if weather, err := s.weather.ForRegion(ctx, region.ID); err == nil {
		fmt.Fprintf(&b, "Conditions actuelles : %s°C, %s\n\n", num(weather.Temperature), cleanText(weather.Description))
		if alerts := s.alerts.Detect(ctx, region.ID); len(alerts) > 0 {
			b.WriteString("🚨 **CONSEIL SPÉCIAL** : Consultez les alertes météo actuelles avant de planter.\n\n")
		}
	}

	advice, err := s.store.Advice(ctx, crop.ID)
	if err != nil {
		return errorReply(err.Error())
	}
	if len(advice) > 0 {
		fmt.Fprintf(&b, "Conseil pratique : %s", truncate(cleanText(advice[0].BestPractice), 300))
	}

	return domain.Reply{
		Response: b.String(),
		Data:     map[string]any{"calendrier": calendar, "culture": crop},
		Suggestions: []string{
			"Récolte " + cropName,
			"Maladies " + cropName,
			"Météo " + region.Name,
			"Alertes météo",
		},
	}
}

func (s *Service) handleRecolte(ctx context.Context, cropName string, region *domain.Region, regions []domain.Region) domain.Reply {
	if cropName == "" {
		return domain.Reply{
			Response:    "🌾 Pour quelle culture voulez-vous connaître la période de récolte ?",
			Suggestions: []string{"Récolte maïs", "Récolte coton", "Récolte mil"},
		}
	}

	crop, err := s.store.CropByName(ctx, cropName)
	if err != nil {
		return errorReply(err.Error())
	}
	if crop == nil {
		return domain.Reply{
			Response:    fmt.Sprintf("❌ Désolé, je ne connais pas cette culture : %s", cropName),
			Suggestions: []string{"Voir toutes les cultures"},
		}
	}

	if region == nil {
		if len(regions) == 0 {
			return domain.Reply{Response: "Aucune région disponible dans la base de données."}
		}
		region = &regions[0]
	}

	calendar, err := s.store.Calendar(ctx, crop.ID, region.ID)
	if err != nil {
		return errorReply(err.Error())
	}
	if calendar == nil {
		return domain.Reply{Response: fmt.Sprintf("Pas d'information de récolte pour %s dans la région %s", cropName, region.Name)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌾 **Récolte de %s** dans la région %s\n\n", cleanText(capitalize(cropName)), cleanText(region.Name))
	fmt.Fprintf(&b, "Période de récolte : %s\n\n", cleanText(calendar.HarvestPeriod))

	if alerts := s.alerts.Detect(ctx, region.ID); len(alerts) > 0 {
		b.WriteString("⚠️ **ATTENTION** : Conditions météo défavorables détectées. Consultez les alertes avant de récolter.\n\n")
	} else {
		b.WriteString("✅ Conditions météo favorables pour la récolte.\n\n")
	}
	b.WriteString("Conseil : Surveillez bien la maturité de vos plants avant de récolter.")

	return domain.Reply{
		Response:    b.String(),
		Data:        calendar,
		Suggestions: []string{"Maladies " + cropName, "Conseils récolte", "Alertes météo"},
	}
}

func (s *Service) handleMaladie(ctx context.Context, cropName string, sentiment nlp.Sentiment) domain.Reply {
	if cropName == "" {
		return domain.Reply{
			Response:    "Pour quelle culture voulez-vous connaître les maladies et parasites ?",
			Suggestions: []string{"Maladies coton", "Maladies maïs", "Maladies tomate"},
		}
	}

	crop, err := s.store.CropByName(ctx, cropName)
	if err != nil {
		return errorReply(err.Error())
	}
	if crop == nil {
		return domain.Reply{
			Response:    fmt.Sprintf("❌ Désolé, je ne connais pas cette culture : %s", cropName),
			Suggestions: []string{"Voir toutes les cultures"},
		}
	}

	diseases, err := s.store.Diseases(ctx, crop.ID)
	if err != nil {
		return errorReply(err.Error())
	}
	if len(diseases) == 0 {
		return domain.Reply{Response: fmt.Sprintf("Bonne nouvelle ! Aucune maladie majeure enregistrée pour %s.", cropName)}
	}

	var b strings.Builder
	if sentiment == nlp.SentimentNegative {
		fmt.Fprintf(&b, "Je comprends votre inquiétude. Voici les maladies courantes du %s et leurs traitements :\n\n", cleanText(cropName))
	} else {
		fmt.Fprintf(&b, "Maladies et parasites du %s :\n\n", cleanText(capitalize(cropName)))
	}
	for i, d := range diseases {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, cleanText(d.Name))
		fmt.Fprintf(&b, "Traitement : %s\n\n", truncate(cleanText(d.Treatment), 250))
	}

	return domain.Reply{
		Response:    b.String(),
		Data:        diseases,
		Suggestions: []string{"Conseils " + cropName, "Prévention maladies", "Alertes météo"},
	}
}

func (s *Service) handleConseil(ctx context.Context, cropName string) domain.Reply {
	if cropName == "" {
		return domain.Reply{
			Response:    "Pour quelle culture voulez-vous des conseils pratiques ?",
			Suggestions: []string{"Conseils coton", "Conseils maïs", "Conseils soja"},
		}
	}

	crop, err := s.store.CropByName(ctx, cropName)
	if err != nil {
		return errorReply(err.Error())
	}
	if crop == nil {
		return domain.Reply{
			Response:    fmt.Sprintf("Désolé, je ne connais pas cette culture : %s", cropName),
			Suggestions: []string{"Voir toutes les cultures"},
		}
	}

	advice, err := s.store.Advice(ctx, crop.ID)
	if err != nil {
		return errorReply(err.Error())
	}
	if len(advice) == 0 {
		return domain.Reply{Response: fmt.Sprintf("Aucun conseil disponible pour %s pour le moment.", cropName)}
	}

	return domain.Reply{
		Response: fmt.Sprintf("Conseils pratiques pour la culture de %s :\n\n%s",
			cleanText(capitalize(cropName)), cleanText(advice[0].BestPractice)),
		Data:        advice,
		Suggestions: []string{"Planter " + cropName, "Maladies " + cropName, "Alertes météo"},
	}
}

func (s *Service) handleAlerte(ctx context.Context, region *domain.Region, regions []domain.Region) domain.Reply {
	if region == nil {
		return regionClarification("Pour quelle région souhaitez-vous vérifier les alertes météo ?", "Alertes", regions)
	}
	return s.listAlerts(ctx, region.ID)
}

// listAlerts renders the unread alerts, optionally scoped to one region.
func (s *Service) listAlerts(ctx context.Context, regionID int64) domain.Reply {
	alerts, err := s.alerts.ListForUser(ctx, store.AlertFilter{RegionID: regionID, UnreadOnly: true})
	if err != nil {
		s.metrics.StoreErrors.Inc()
		s.logger.Error("alert listing failed", "region_id", regionID, "error", err)
		return domain.Reply{
			Response:    "❌ Impossible de récupérer les alertes météo pour le moment. Veuillez réessayer plus tard.",
			Suggestions: []string{"Météo actuelle", "Réessayer alertes"},
		}
	}

	if len(alerts) == 0 {
		return domain.Reply{
			Response:    "✅ Aucune alerte météo active pour le moment. Les conditions sont favorables.",
			Data:        map[string]any{"alertes": []domain.Alert{}},
			Suggestions: []string{"Météo actuelle", "Calendrier de plantation", "Vérifier alertes"},
		}
	}

	var b strings.Builder
	b.WriteString("🚨 **ALERTES MÉTÉO ACTIVES** 🚨\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "%s %s **%s**\n", levelEmoji(a.Level), typeIcon(a.Type), a.Title)
		regionName := a.RegionName
		if regionName == "" {
			regionName = "Non spécifiée"
		}
		fmt.Fprintf(&b, "   📍 Région: %s\n", regionName)
		fmt.Fprintf(&b, "   📅 Détecté: %s\n", a.CreatedAt.UTC().Format("2006-01-02 15:04"))
		fmt.Fprintf(&b, "   %s\n", a.Message)
		if len(a.Advice) > 0 {
			b.WriteString("\n   💡 **Conseils pratiques :**\n")
			for _, c := range a.Advice {
				fmt.Fprintf(&b, "   • %s\n", c)
			}
		}
		b.WriteString("\n" + strings.Repeat("─", 40) + "\n\n")
	}
	b.WriteString("**Recommandation :** Suivez ces conseils pour protéger vos cultures.")

	return domain.Reply{
		Response:    b.String(),
		Data:        map[string]any{"alertes": alerts},
		HasAlerts:   true,
		Suggestions: []string{"Météo détaillée", "Conseils de protection", "Marquer comme lues"},
	}
}

var greetings = []string{"bonjour", "salut", "bonsoir", "hello", "hi", "hey", "bsr", "bjr", "coucou"}

var generalAlertKeywords = []string{"alerte", "alertes", "danger", "problème", "urgence"}

func (s *Service) handleGeneral(ctx context.Context, message string, regions []domain.Region) domain.Reply {
	lower := strings.ToLower(strings.TrimSpace(message))

	unread, err := s.alerts.ListForUser(ctx, store.AlertFilter{UnreadOnly: true})
	if err != nil {
		s.metrics.StoreErrors.Inc()
		s.logger.Error("unread alert count failed", "error", err)
		unread = nil
	}

	if containsAnyKeyword(lower, greetings) || utf8.RuneCountInString(lower) < 20 {
		var b strings.Builder
		b.WriteString("Bonjour ! Je suis **SmartAgriBot**, votre assistant agricole intelligent pour le Burkina Faso. 🇧🇫\n\n")
		if len(unread) > 0 {
			fmt.Fprintf(&b, "🚨 **ATTENTION : %d ALERTE(S) MÉTÉO ACTIVE(S)**\n", len(unread))
			b.WriteString("Tapez 'alertes' pour consulter les détails.\n\n")
		}
		b.WriteString("Je peux vous aider avec :\n\n")
		b.WriteString("🌤️  La météo de votre région\n")
		b.WriteString("🌱  Les périodes de plantation\n")
		b.WriteString("🌾  Les périodes de récolte\n")
		b.WriteString("🐛  Les maladies et traitements\n")
		b.WriteString("💡  Les conseils de culture\n")
		b.WriteString("🚨  Les alertes météo\n\n")
		b.WriteString("**Exemple de questions :**\n")
		b.WriteString("• \"Quelle est la météo au Nord ?\"\n")
		b.WriteString("• \"Quand planter le maïs ?\"\n")
		b.WriteString("• \"Y a-t-il des alertes météo ?\"\n")
		b.WriteString("• \"Comment traiter les parasites du coton ?\"")

		suggestions := []string{"Météo aujourd'hui", "Calendrier de plantation", "Conseils de culture"}
		if len(unread) > 0 {
			suggestions = append([]string{"Voir les alertes"}, suggestions...)
		}
		return domain.Reply{Response: b.String(), Suggestions: suggestions, HasAlerts: len(unread) > 0}
	}

	if containsAnyKeyword(lower, generalAlertKeywords) {
		return s.handleAlerte(ctx, nil, regions)
	}

	var b strings.Builder
	b.WriteString("Je suis désolé, je ne peux répondre qu'aux questions concernant :\n\n")
	b.WriteString("🌤️  La météo agricole\n")
	b.WriteString("🌱  Les périodes de plantation\n")
	b.WriteString("🌾  Les périodes de récolte\n")
	b.WriteString("🐛  Les maladies des cultures\n")
	b.WriteString("💡  Les conseils de culture\n")
	b.WriteString("🚨  Les alertes météo\n\n")
	if len(unread) > 0 {
		fmt.Fprintf(&b, "💡 **Astuce :** Il y a %d alerte(s) active(s). Tapez 'alertes' pour les consulter.\n\n", len(unread))
	}
	b.WriteString("Pourriez-vous reformuler votre question sur l'un de ces sujets ?")

	suggestions := []string{"Météo aujourd'hui", "Quand planter le maïs ?", "Maladies du coton"}
	if len(unread) > 0 {
		suggestions = append([]string{"Voir les alertes"}, suggestions...)
	}
	return domain.Reply{Response: b.String(), Suggestions: suggestions, HasAlerts: len(unread) > 0}
}

// regionClarification asks the user to pick a region, listing the catalog.
func regionClarification(question, prefix string, regions []domain.Region) domain.Reply {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\nRégions disponibles:\n")
	for _, r := range regions {
		fmt.Fprintf(&b, "• %s\n", r.Name)
	}
	var suggestions []string
	for _, r := range regions[:min(len(regions), 3)] {
		suggestions = append(suggestions, prefix+" "+r.Name)
	}
	return domain.Reply{Response: strings.TrimRight(b.String(), "\n"), Suggestions: suggestions}
}

func typeIcon(t domain.AlertType) string {
	switch t {
	case domain.AlertDrought:
		return "🌵"
	case domain.AlertFlood:
		return "🌧️"
	case domain.AlertViolentWind:
		return "💨"
	case domain.AlertIntenseCold:
		return "❄️"
	default:
		return "⚠️"
	}
}

func levelEmoji(l domain.AlertLevel) string {
	switch l {
	case domain.LevelDanger:
		return "🔴"
	case domain.LevelWarning:
		return "🟡"
	default:
		return "⚪"
	}
}

func containsAnyKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

var (
	lineBreakRe  = regexp.MustCompile(`[\r\n\t]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// cleanText flattens line breaks and collapses runs of whitespace, so multi
// line database text renders on one line inside a reply.
func cleanText(s string) string {
	s = lineBreakRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	return string(r)
}

// truncate caps a reply fragment at max runes, ellipsis included.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// num renders a measurement without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
