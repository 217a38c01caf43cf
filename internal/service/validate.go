package service

import (
	"strings"
	"unicode/utf8"

	"todo-planner/internal/model"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000

	titleMessage = "Title is required and must be 1-200 characters"
)

// normalizeTitle trims the title and checks its length in characters.
func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(title); n == 0 || n > MaxTitleLength {
		return "", model.NewValidationError("title", titleMessage)
	}
	return title, nil
}

func validateDescription(desc *string) error {
	if desc != nil && utf8.RuneCountInString(*desc) > MaxDescriptionLength {
		return model.NewValidationError("description", "Description must be 0-1000 characters")
	}
	return nil
}

func validatePriority(p *model.Priority) error {
	if p != nil && !p.Valid() {
		return model.NewValidationError("priority", "Priority must be one of high, medium, low")
	}
	return nil
}

// normalizeTags trims every tag and drops empty ones. Order is preserved.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
