package chatbot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/agrisahel/smartagribot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeStore struct {
	regions    []domain.Region
	regionsErr error
	crops      []domain.Crop
	calendars  map[[2]int64]*domain.CalendarEntry
	diseases   map[int64][]domain.Disease
	advice     map[int64][]domain.AdviceEntry
}

func (f *fakeStore) Regions(context.Context) ([]domain.Region, error) {
	return f.regions, f.regionsErr
}

func (f *fakeStore) Crops(context.Context) ([]domain.Crop, error) {
	return f.crops, nil
}

func (f *fakeStore) CropByName(_ context.Context, name string) (*domain.Crop, error) {
	for i := range f.crops {
		if strings.EqualFold(f.crops[i].Name, name) {
			return &f.crops[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) Calendar(_ context.Context, cropID, regionID int64) (*domain.CalendarEntry, error) {
	return f.calendars[[2]int64{cropID, regionID}], nil
}

func (f *fakeStore) Diseases(_ context.Context, cropID int64) ([]domain.Disease, error) {
	return f.diseases[cropID], nil
}

func (f *fakeStore) Advice(_ context.Context, cropID int64) ([]domain.AdviceEntry, error) {
	return f.advice[cropID], nil
}

type fakeWeather struct {
	reading      domain.WeatherReading
	err          error
	lastRegionID int64
}

func (f *fakeWeather) ForRegion(_ context.Context, regionID int64) (domain.WeatherReading, error) {
	f.lastRegionID = regionID
	return f.reading, f.err
}

type panicWeather struct{}

func (panicWeather) ForRegion(context.Context, int64) (domain.WeatherReading, error) {
	panic("weather backend misbehaved")
}

type fakeAlerts struct {
	detected   []domain.Alert
	listed     []domain.Alert
	listErr    error
	lastFilter store.AlertFilter
}

func (f *fakeAlerts) Detect(context.Context, int64) []domain.Alert {
	return f.detected
}

func (f *fakeAlerts) ListForUser(_ context.Context, filter store.AlertFilter) ([]domain.Alert, error) {
	f.lastFilter = filter
	return f.listed, f.listErr
}

// --- fixtures ---

func testRegions() []domain.Region {
	return []domain.Region{
		{ID: 1, Name: "Centre Sud", ClimateZone: "soudanienne"},
		{ID: 2, Name: "Boucle de Mouhoun", ClimateZone: "soudano-sahelienne"},
		{ID: 3, Name: "Nord", ClimateZone: "sahelienne"},
	}
}

func testCrops() []domain.Crop {
	return []domain.Crop{
		{ID: 1, Name: "coton", Type: "rente"},
		{ID: 2, Name: "mais", Type: "cereale"},
		{ID: 3, Name: "tomate", Type: "maraichage"},
	}
}

func fixtureStore() *fakeStore {
	return &fakeStore{
		regions: testRegions(),
		crops:   testCrops(),
		calendars: map[[2]int64]*domain.CalendarEntry{
			{2, 1}: {ID: 1, CropID: 2, RegionID: 1, SowingPeriod: "Mai - Juin", HarvestPeriod: "Septembre - Octobre"},
			{2, 3}: {ID: 2, CropID: 2, RegionID: 3, SowingPeriod: "Juin - Juillet", HarvestPeriod: "Octobre - Novembre"},
		},
		diseases: map[int64][]domain.Disease{
			1: {
				{ID: 1, Name: "Chenille légionnaire", Treatment: "Traitement biologique à base de neem."},
				{ID: 2, Name: "Puceron du cotonnier", Treatment: strings.Repeat("x", 260)},
			},
		},
		advice: map[int64][]domain.AdviceEntry{
			2: {{ID: 1, CropID: 2, Name: "Semis", BestPractice: "Semer en poquets de 3 graines espacés de 40 cm."}},
		},
	}
}

func newTestService(st Store, weather WeatherSource, alerts AlertSource) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(st, weather, alerts, observability.NewMetricsForTesting(), logger)
}

// --- dispatch ---

func TestProcessMessage_Meteo(t *testing.T) {
	weather := &fakeWeather{reading: domain.WeatherReading{
		Region: "Nord", Temperature: 31.5, FeelsLike: 34, Humidity: 45,
		Description: "ciel dégagé", WindSpeed: 3.2, Pressure: 1012,
	}}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quelle est la météo au Nord ?", nil)

	assert.Equal(t, int64(3), weather.lastRegionID)
	assert.Contains(t, reply.Response, "Météo actuelle pour Nord")
	assert.Contains(t, reply.Response, "🌡️ Température : 31.5°C (ressenti 34°C)")
	assert.Contains(t, reply.Response, "💧 Humidité : 45%")
	assert.Contains(t, reply.Response, "☁️ Conditions : Ciel dégagé")
	assert.Contains(t, reply.Response, "💨 Vent : 3.2 m/s")
	assert.Contains(t, reply.Response, "Pression : 1012 hPa")
	assert.False(t, reply.HasAlerts)
	assert.Equal(t, weather.reading, reply.Data)
}

func TestProcessMessage_MeteoAsksForRegion(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quel temps fait-il ?", nil)

	assert.Contains(t, reply.Response, "Pour quelle région souhaitez-vous connaître la météo ?")
	assert.Contains(t, reply.Response, "• Centre Sud")
	assert.Contains(t, reply.Response, "• Boucle de Mouhoun")
	assert.Contains(t, reply.Response, "• Nord")
	assert.Equal(t, []string{"Météo Centre Sud", "Météo Boucle de Mouhoun", "Météo Nord"}, reply.Suggestions)
}

func TestProcessMessage_MeteoDefaultRegionFromContext(t *testing.T) {
	weather := &fakeWeather{reading: domain.WeatherReading{Region: "Nord", Temperature: 30}}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quel temps fait-il ?", &domain.UserContext{DefaultRegionID: 3})

	assert.Equal(t, int64(3), weather.lastRegionID)
	assert.Contains(t, reply.Response, "Météo actuelle pour Nord")
}

func TestProcessMessage_MeteoEmpathyOnNegativeSentiment(t *testing.T) {
	weather := &fakeWeather{reading: domain.WeatherReading{Region: "Nord", Temperature: 30}}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Je suis inquiet pour la météo au Nord", nil)

	assert.Contains(t, reply.Response, "Je comprends votre inquiétude. Voici la météo actuelle pour Nord")
}

func TestProcessMessage_MeteoProviderFailure(t *testing.T) {
	weather := &fakeWeather{err: errors.New("api indisponible")}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Météo au Nord", nil)

	assert.Contains(t, reply.Response, "❌ Désolé, je n'ai pas pu récupérer la météo : api indisponible")
}

func TestProcessMessage_MeteoShowsAtMostTwoAlertTitles(t *testing.T) {
	alerts := &fakeAlerts{detected: []domain.Alert{
		{Type: domain.AlertDrought, Title: "🌵 Alerte Sécheresse"},
		{Type: domain.AlertViolentWind, Title: "💨 Vent Violent"},
		{Type: domain.AlertIntenseCold, Title: "❄️ Froid Intense"},
	}}
	weather := &fakeWeather{reading: domain.WeatherReading{Region: "Nord", Temperature: 30}}
	svc := newTestService(fixtureStore(), weather, alerts)

	reply := svc.ProcessMessage(context.Background(), "Météo au Nord", nil)

	assert.True(t, reply.HasAlerts)
	assert.Contains(t, reply.Response, "🚨 **3 ALERTE(S) ACTIVE(S) POUR CETTE RÉGION**")
	assert.Contains(t, reply.Response, "• 🌵 Alerte Sécheresse")
	assert.Contains(t, reply.Response, "• 💨 Vent Violent")
	assert.NotContains(t, reply.Response, "• ❄️ Froid Intense")
}

func TestProcessMessage_MeteoHeatHint(t *testing.T) {
	weather := &fakeWeather{reading: domain.WeatherReading{Region: "Nord", Temperature: 38, Humidity: 20}}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Météo au Nord", nil)

	assert.Contains(t, reply.Response, "⚠️ Attention : Forte chaleur. Arrosez vos cultures en fin de journée.")
}

// --- plantation ---

func TestProcessMessage_Plantation(t *testing.T) {
	weather := &fakeWeather{reading: domain.WeatherReading{Region: "Nord", Temperature: 29, Description: "ciel dégagé"}}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quand planter le maïs au Nord ?", nil)

	assert.Contains(t, reply.Response, "🌱 **Plantation de Mais** dans la région Nord")
	assert.Contains(t, reply.Response, "Période de semis : Juin - Juillet")
	assert.Contains(t, reply.Response, "Conditions actuelles : 29°C, ciel dégagé")
	assert.Contains(t, reply.Suggestions, "Récolte mais")
	assert.Contains(t, reply.Suggestions, "Météo Nord")
}

func TestProcessMessage_PlantationListsCropsWhenNoneGiven(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Je veux planter quelque chose", nil)

	assert.Contains(t, reply.Response, "🌱 Pour quelle culture voulez-vous connaître la période de plantation ?")
	assert.Contains(t, reply.Response, "• Coton")
	assert.Contains(t, reply.Response, "• Mais")
	assert.Contains(t, reply.Response, "• Tomate")
	assert.Equal(t, []string{"Planter coton", "Planter mais", "Planter tomate"}, reply.Suggestions)
}

func TestProcessMessage_PlantationDefaultRegion(t *testing.T) {
	weather := &fakeWeather{err: errors.New("down")}
	svc := newTestService(fixtureStore(), weather, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quand planter le maïs ?", nil)

	assert.Contains(t, reply.Response, "(région par défaut : Centre Sud)")
	assert.Contains(t, reply.Response, "Période de semis : Mai - Juin")
	// Provider outage: no weather line, the calendar answer still goes out.
	assert.NotContains(t, reply.Response, "Conditions actuelles")
	assert.Contains(t, reply.Response, "Conseil pratique : Semer en poquets de 3 graines")
}

func TestProcessMessage_PlantationNoCalendar(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	// No calendar row for coton anywhere.
	reply := svc.ProcessMessage(context.Background(), "Quand planter le coton au Nord ?", nil)

	assert.Contains(t, reply.Response, "Pas d'information de calendrier pour coton dans la région Nord")
}

// --- recolte ---

func TestProcessMessage_RecolteFavorable(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quand récolter le maïs au Nord ?", nil)

	assert.Contains(t, reply.Response, "🌾 **Récolte de Mais** dans la région Nord")
	assert.Contains(t, reply.Response, "Période de récolte : Octobre - Novembre")
	assert.Contains(t, reply.Response, "✅ Conditions météo favorables pour la récolte.")
}

func TestProcessMessage_RecolteWithActiveAlerts(t *testing.T) {
	alerts := &fakeAlerts{detected: []domain.Alert{{Type: domain.AlertFlood, Title: "🌧️ Alerte Inondation"}}}
	svc := newTestService(fixtureStore(), &fakeWeather{}, alerts)

	reply := svc.ProcessMessage(context.Background(), "Quand récolter le maïs au Nord ?", nil)

	assert.Contains(t, reply.Response, "⚠️ **ATTENTION** : Conditions météo défavorables détectées.")
	assert.NotContains(t, reply.Response, "favorables pour la récolte")
}

func TestProcessMessage_RecolteAsksForCrop(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "C'est quand la récolte ?", nil)

	assert.Contains(t, reply.Response, "🌾 Pour quelle culture voulez-vous connaître la période de récolte ?")
}

// --- maladie ---

func TestProcessMessage_Maladie(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quelles sont les maladies du coton ?", nil)

	assert.Contains(t, reply.Response, "Maladies et parasites du Coton :")
	assert.Contains(t, reply.Response, "**1. Chenille légionnaire**")
	assert.Contains(t, reply.Response, "Traitement : Traitement biologique à base de neem.")
	assert.Contains(t, reply.Response, "**2. Puceron du cotonnier**")
	// Long treatments are capped at 250 characters, ellipsis included.
	assert.Contains(t, reply.Response, strings.Repeat("x", 247)+"...")
	assert.NotContains(t, reply.Response, strings.Repeat("x", 248))
}

func TestProcessMessage_MaladieEmpathyOnNegativeSentiment(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Grave attaque sur mon coton, il faut traiter", nil)

	assert.Contains(t, reply.Response, "Je comprends votre inquiétude. Voici les maladies courantes du coton")
}

func TestProcessMessage_MaladieNoneRecorded(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Quelles sont les maladies de la tomate ?", nil)

	assert.Contains(t, reply.Response, "Bonne nouvelle ! Aucune maladie majeure enregistrée pour tomate.")
}

// --- conseil ---

func TestProcessMessage_Conseil(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Des conseils pour le maïs ?", nil)

	assert.Contains(t, reply.Response, "Conseils pratiques pour la culture de Mais :")
	assert.Contains(t, reply.Response, "Semer en poquets de 3 graines espacés de 40 cm.")
	assert.Equal(t, []string{"Planter mais", "Maladies mais", "Alertes météo"}, reply.Suggestions)
}

func TestProcessMessage_ConseilNoneAvailable(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Des conseils pour le coton ?", nil)

	assert.Contains(t, reply.Response, "Aucun conseil disponible pour coton pour le moment.")
}

// --- alerte ---

func TestProcessMessage_AlerteAsksForRegion(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Y a-t-il un risque d'orage quelque part ?", nil)

	assert.Contains(t, reply.Response, "Pour quelle région souhaitez-vous vérifier les alertes météo ?")
	assert.Equal(t, []string{"Alertes Centre Sud", "Alertes Boucle de Mouhoun", "Alertes Nord"}, reply.Suggestions)
}

func TestProcessMessage_AlerteListsUnread(t *testing.T) {
	created := time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)
	alerts := &fakeAlerts{listed: []domain.Alert{{
		ID: 7, Type: domain.AlertDrought, Level: domain.LevelDanger,
		Title: "🌵 Alerte Sécheresse", Message: "Conditions de sécheresse détectées dans la région Nord.",
		Advice: []string{"Arrosez vos cultures en fin de journée"}, RegionID: 3, RegionName: "Nord",
		CreatedAt: created,
	}}}
	svc := newTestService(fixtureStore(), &fakeWeather{}, alerts)

	reply := svc.ProcessMessage(context.Background(), "Des alertes sécheresse au Nord ?", nil)

	assert.Equal(t, store.AlertFilter{RegionID: 3, UnreadOnly: true}, alerts.lastFilter)
	assert.True(t, reply.HasAlerts)
	assert.Contains(t, reply.Response, "🚨 **ALERTES MÉTÉO ACTIVES** 🚨")
	assert.Contains(t, reply.Response, "🔴 🌵 **🌵 Alerte Sécheresse**")
	assert.Contains(t, reply.Response, "📍 Région: Nord")
	assert.Contains(t, reply.Response, "📅 Détecté: 2026-04-10 09:30")
	assert.Contains(t, reply.Response, "• Arrosez vos cultures en fin de journée")
	assert.Contains(t, reply.Response, "**Recommandation :** Suivez ces conseils pour protéger vos cultures.")
}

func TestProcessMessage_AlerteNoneActive(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Y a-t-il des alertes au Nord ?", nil)

	assert.False(t, reply.HasAlerts)
	assert.Contains(t, reply.Response, "✅ Aucune alerte météo active pour le moment.")
}

func TestProcessMessage_AlerteListingFailure(t *testing.T) {
	alerts := &fakeAlerts{listErr: errors.New("db locked")}
	svc := newTestService(fixtureStore(), &fakeWeather{}, alerts)

	reply := svc.ProcessMessage(context.Background(), "Y a-t-il des alertes au Nord ?", nil)

	assert.Contains(t, reply.Response, "❌ Impossible de récupérer les alertes météo pour le moment.")
}

// --- general ---

func TestProcessMessage_GeneralGreeting(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Bonjour !", nil)

	assert.Contains(t, reply.Response, "Je suis **SmartAgriBot**, votre assistant agricole intelligent")
	assert.Contains(t, reply.Response, "🌱  Les périodes de plantation")
	assert.NotContains(t, reply.Response, "ATTENTION")
	assert.Equal(t, []string{"Météo aujourd'hui", "Calendrier de plantation", "Conseils de culture"}, reply.Suggestions)
	assert.False(t, reply.HasAlerts)
}

func TestProcessMessage_GreetingWithUnreadAlerts(t *testing.T) {
	alerts := &fakeAlerts{listed: []domain.Alert{
		{ID: 1, Type: domain.AlertDrought}, {ID: 2, Type: domain.AlertFlood},
	}}
	svc := newTestService(fixtureStore(), &fakeWeather{}, alerts)

	reply := svc.ProcessMessage(context.Background(), "Salut", nil)

	assert.True(t, reply.HasAlerts)
	assert.Contains(t, reply.Response, "🚨 **ATTENTION : 2 ALERTE(S) MÉTÉO ACTIVE(S)**")
	assert.Equal(t, "Voir les alertes", reply.Suggestions[0])
}

func TestProcessMessage_GeneralOffTopic(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Parle-moi de la capitale de la France", nil)

	assert.Contains(t, reply.Response, "Je suis désolé, je ne peux répondre qu'aux questions concernant :")
	assert.Contains(t, reply.Response, "Pourriez-vous reformuler votre question sur l'un de ces sujets ?")
	assert.Equal(t, []string{"Météo aujourd'hui", "Quand planter le maïs ?", "Maladies du coton"}, reply.Suggestions)
}

func TestProcessMessage_FallbackRefinesIntent(t *testing.T) {
	svc := newTestService(fixtureStore(), &fakeWeather{}, &fakeAlerts{})

	// No primary pattern matches, the keyword fallback lands on plantation.
	reply := svc.ProcessMessage(context.Background(), "Quand est le bon moment ?", nil)

	assert.Contains(t, reply.Response, "🌱 Pour quelle culture voulez-vous connaître la période de plantation ?")
}

// --- failure handling ---

func TestProcessMessage_RecoversFromPanic(t *testing.T) {
	svc := newTestService(fixtureStore(), panicWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Météo au Nord", nil)

	assert.True(t, reply.Error)
	assert.Contains(t, reply.Response, "❌ Une erreur s'est produite")
	assert.Equal(t, []string{"Météo aujourd'hui", "Calendrier de plantation", "Vérifier alertes"}, reply.Suggestions)
}

func TestProcessMessage_RegionCatalogFailure(t *testing.T) {
	st := fixtureStore()
	st.regionsErr = errors.New("db unavailable")
	svc := newTestService(st, &fakeWeather{}, &fakeAlerts{})

	reply := svc.ProcessMessage(context.Background(), "Bonjour", nil)

	assert.True(t, reply.Error)
	assert.Contains(t, reply.Response, "db unavailable")
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "une ligne propre", cleanText("une\nligne\t\tpropre"))
	require.Equal(t, "", cleanText("  \r\n "))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Maïs", capitalize("maïs"))
	assert.Equal(t, "Pomme de terre", capitalize("POMME DE TERRE"))
	assert.Equal(t, "", capitalize(""))
}
