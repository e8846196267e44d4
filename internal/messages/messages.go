package messages

import "vn.io.arda/notifengine/internal/domain"

// ─── Fallback builders ───────────────────────────────────────────────────────

// CategoryFallback returns the phrase shown when a notification carries no
// usable title or message. Unmapped categories yield "".
func CategoryFallback(category domain.Category) string {
	switch category {
	case domain.CategoryMessage:
		return MessageFallback
	case domain.CategoryEmail:
		return EmailFallback
	case domain.CategoryCall:
		return CallFallback
	case domain.CategoryAlarm:
		return AlarmFallback
	case domain.CategoryReminder:
		return ReminderFallback
	case domain.CategoryEvent:
		return EventFallback
	case domain.CategoryPromo:
		return PromoFallback
	case domain.CategoryTransport:
		return MediaPlayingFallback
	case domain.CategorySystem:
		return SystemFallback
	case domain.CategoryService:
		return ServiceFallback
	case domain.CategoryError:
		return ErrorFallback
	case domain.CategoryProgress:
		return ProgressFallback
	case domain.CategorySocial:
		return SocialFallback
	case domain.CategoryStatus:
		return StatusFallback
	case domain.CategoryRecommendation:
		return RecommendationFallback
	}
	return ""
}

