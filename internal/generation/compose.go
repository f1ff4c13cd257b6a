package generation

import (
	"fmt"
	"strings"

	"socialloom.io/internal/briefing"
)

// compose synthesizes the draft deterministically from the briefing's tone,
// audience and keywords plus the requested subject. Same inputs, same draft.
func compose(brief *briefing.Briefing, subject string, platforms []string) Content {
	tone := brief.Data.Tone
	if tone == "" {
		tone = "engaging"
	}
	audience := brief.Data.Audience
	if audience == "" {
		audience = "your audience"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: a %s take for %s.", subject, tone, audience)
	if brief.Data.Objective != "" {
		fmt.Fprintf(&sb, " %s.", strings.TrimRight(brief.Data.Objective, "."))
	}
	if len(brief.Data.Keywords) > 0 {
		fmt.Fprintf(&sb, " Spotlight on %s.", strings.Join(brief.Data.Keywords, ", "))
	}

	hashtags := make([]string, 0, len(brief.Data.Keywords)+1)
	for _, kw := range brief.Data.Keywords {
		hashtags = append(hashtags, hashtag(kw))
	}
	hashtags = append(hashtags, hashtag(brief.Name))

	return Content{
		Text:      sb.String(),
		Hashtags:  hashtags,
		Platforms: platforms,
	}
}

// hashtag turns a free-form phrase into a CamelCase hashtag.
func hashtag(phrase string) string {
	words := strings.Fields(strings.TrimSpace(phrase))
	var sb strings.Builder
	sb.WriteByte('#')
	for _, w := range words {
		w = strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, w)
		if w == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(strings.ToLower(w[1:]))
	}
	return sb.String()
}
