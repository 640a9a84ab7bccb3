// Package chatbot dispatches analyzed user messages to the business
// handlers and assembles the French-language replies.
//
// The flow is: fetch the region catalog, run the NLP analysis, resolve the
// caller's default region, refine an inconclusive intent with the keyword
// fallback, then hand off to the intent handler. Every path ends in a
// domain.Reply; a panicking handler is recovered into the generic error
// reply so one bad message never takes the request down.
package chatbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agrisahel/smartagribot/internal/domain"
	"github.com/agrisahel/smartagribot/internal/nlp"
	"github.com/agrisahel/smartagribot/internal/observability"
	"github.com/agrisahel/smartagribot/internal/store"
)

// Store is the reference-data surface the handlers read from.
type Store interface {
	Regions(ctx context.Context) ([]domain.Region, error)
	Crops(ctx context.Context) ([]domain.Crop, error)
	CropByName(ctx context.Context, name string) (*domain.Crop, error)
	Calendar(ctx context.Context, cropID, regionID int64) (*domain.CalendarEntry, error)
	Diseases(ctx context.Context, cropID int64) ([]domain.Disease, error)
	Advice(ctx context.Context, cropID int64) ([]domain.AdviceEntry, error)
}

// WeatherSource yields the current reading for a region.
type WeatherSource interface {
	ForRegion(ctx context.Context, regionID int64) (domain.WeatherReading, error)
}

// AlertSource runs on-demand detection and serves the stored alerts.
type AlertSource interface {
	Detect(ctx context.Context, regionID int64) []domain.Alert
	ListForUser(ctx context.Context, f store.AlertFilter) ([]domain.Alert, error)
}

// Service is the conversational core.
type Service struct {
	store    Store
	weather  WeatherSource
	alerts   AlertSource
	analyzer *nlp.Analyzer
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires the conversational core.
func NewService(st Store, weather WeatherSource, alerts AlertSource, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    st,
		weather:  weather,
		alerts:   alerts,
		analyzer: nlp.NewAnalyzer(),
		metrics:  metrics,
		logger:   logger,
	}
}

// ProcessMessage analyzes one user message and returns the reply. userCtx may
// be nil.
func (s *Service) ProcessMessage(ctx context.Context, message string, userCtx *domain.UserContext) (reply domain.Reply) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.HandlerErrors.Inc()
			s.logger.Error("handler panicked", "error", fmt.Sprint(r))
			reply = errorReply(fmt.Sprint(r))
		}
	}()

	regions, err := s.store.Regions(ctx)
	if err != nil {
		s.metrics.StoreErrors.Inc()
		s.logger.Error("region catalog unavailable", "error", err)
		return errorReply(err.Error())
	}

	analysis := s.analyzer.Analyze(message, regions)
	intent := analysis.Intent
	region := analysis.Region

	if region == nil && userCtx != nil && userCtx.DefaultRegionID != 0 {
		for i := range regions {
			if regions[i].ID == userCtx.DefaultRegionID {
				region = &regions[i]
				break
			}
		}
	}

	if intent == nlp.IntentGeneral {
		if refined, ok := nlp.RefineIntent(message); ok {
			intent = refined
			s.metrics.FallbackRefined.Inc()
		}
	}

	s.metrics.MessagesHandled.WithLabelValues(string(intent)).Inc()
	s.logger.Debug("message analyzed",
		"intent", intent,
		"crop", analysis.Crop,
		"region", regionName(region),
		"sentiment", analysis.Sentiment)

	switch intent {
	case nlp.IntentMeteo:
		return s.handleMeteo(ctx, region, regions, analysis.Sentiment)
	case nlp.IntentPlantation:
		return s.handlePlantation(ctx, analysis.Crop, region, regions)
	case nlp.IntentRecolte:
		return s.handleRecolte(ctx, analysis.Crop, region, regions)
	case nlp.IntentMaladie:
		return s.handleMaladie(ctx, analysis.Crop, analysis.Sentiment)
	case nlp.IntentConseil:
		return s.handleConseil(ctx, analysis.Crop)
	case nlp.IntentAlerte:
		return s.handleAlerte(ctx, region, regions)
	default:
		return s.handleGeneral(ctx, message, regions)
	}
}

// AlertsReply renders the unread alerts as a chat reply, scoped to one
// region when regionID is nonzero. Used by the chat alert endpoint, which
// bypasses message analysis.
func (s *Service) AlertsReply(ctx context.Context, regionID int64) domain.Reply {
	return s.listAlerts(ctx, regionID)
}

func regionName(r *domain.Region) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func errorReply(cause string) domain.Reply {
	return domain.Reply{
		Response: fmt.Sprintf("❌ Une erreur s'est produite : %s\n\n"+
			"Veuillez réessayer ou reformuler votre question.", cause),
		Error:       true,
		Suggestions: []string{"Météo aujourd'hui", "Calendrier de plantation", "Vérifier alertes"},
	}
}
