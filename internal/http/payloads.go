package httpx

import (
	"time"

	"github.com/steadyhq/steady/internal/domain"
)

// Response payload builders. Domain structs stay tag-free; the HTTP layer
// decides the wire shape.

func marshalLink(link *domain.ShortLink) map[string]any {
	return map[string]any{
		"id":              link.ID,
		"code":            link.Code,
		"destination_url": link.DestinationURL,
		"domain":          link.Domain,
		"campaign":        link.Campaign,
		"created_by":      link.CreatedBy,
		"active":          link.Active,
		"created_at":      link.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":      link.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func marshalLinksWithStats(links []domain.LinkWithStats) []map[string]any {
	out := make([]map[string]any, 0, len(links))
	for i := range links {
		item := marshalLink(&links[i].ShortLink)
		item["click_count"] = links[i].ClickCount
		out = append(out, item)
	}
	return out
}

func marshalClicks(clicks []domain.LinkClick) []map[string]any {
	out := make([]map[string]any, 0, len(clicks))
	for _, click := range clicks {
		out = append(out, map[string]any{
			"id":          click.ID,
			"link_id":     click.LinkID,
			"referrer":    click.Referrer,
			"user_agent":  click.UserAgent,
			"occurred_at": click.OccurredAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func marshalSubmission(submission *domain.ContactSubmission) map[string]any {
	return map[string]any{
		"id":         submission.ID,
		"name":       submission.Name,
		"email":      submission.Email,
		"company":    submission.Company,
		"budget":     submission.Budget,
		"message":    submission.Message,
		"status":     submission.Status,
		"created_at": submission.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": submission.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func marshalSubmissions(submissions []domain.ContactSubmission) []map[string]any {
	out := make([]map[string]any, 0, len(submissions))
	for i := range submissions {
		out = append(out, marshalSubmission(&submissions[i]))
	}
	return out
}

func marshalScore(score *domain.ComponentScore) map[string]any {
	return map[string]any{
		"id":            score.ID,
		"component":     score.Component,
		"score":         score.Score,
		"accessibility": score.Accessibility,
		"performance":   score.Performance,
		"summary":       score.Summary,
		"model":         score.Model,
		"updated_at":    score.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func marshalScores(scores []domain.ComponentScore) []map[string]any {
	out := make([]map[string]any, 0, len(scores))
	for i := range scores {
		out = append(out, marshalScore(&scores[i]))
	}
	return out
}

func marshalPreference(pref *domain.PaymentPreference) map[string]any {
	return map[string]any{
		"id":           pref.ID,
		"reference":    pref.Reference,
		"title":        pref.Title,
		"amount_cents": pref.AmountCents,
		"currency":     pref.Currency,
		"checkout_url": pref.CheckoutURL,
		"status":       pref.Status,
		"created_at":   pref.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func marshalSetting(setting *domain.SiteSetting) map[string]any {
	return map[string]any{
		"key":        setting.Key,
		"value":      setting.Value,
		"source":     setting.Source,
		"updated_at": setting.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
