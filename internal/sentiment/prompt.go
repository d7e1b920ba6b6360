package sentiment

import (
	"fmt"
	"strings"
)

const analysisSchema = `Return this exact structure:
{
  "overall_sentiment": "positive" | "negative" | "mixed" | "neutral",
  "sentiment_score": <number 1-10>,
  "confidence": "high" | "medium" | "low",
  "themes": ["<theme1>", "<theme2>"],
  "sentiment_per_theme": { "<theme>": "positive" | "negative" | "mixed" | "neutral" },
  "pain_points": ["<complaint>"],
  "praise_points": ["<positive>"],
  "competitor_mentions": ["<competitor>"],
  "feature_requests": ["<request>"],
  "key_quote": "<%s>",
  "summary": "<2-3 sentence stakeholder summary>"
}`

// reviewsPrompt asks for an analysis of customer reviews about label.
func reviewsPrompt(text, label string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a brand sentiment analyst. Analyze the following customer reviews for %q and return ONLY valid JSON with no markdown, no code blocks, no explanation.\n\n", label)
	fmt.Fprintf(&b, analysisSchema, "most representative sentence from the reviews")
	b.WriteString("\n\nReviews:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---")
	return b.String()
}

// contentPrompt asks for an analysis of scraped content from sourceType.
func contentPrompt(text, sourceType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a brand sentiment analyst. Analyze the following content from %s and return ONLY valid JSON with no markdown, no code blocks, no explanation.\n\n", sourceType)
	fmt.Fprintf(&b, analysisSchema, "most representative sentence")
	b.WriteString("\n\nContent:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---")
	return b.String()
}

// insightFacts is the aggregated data an insights prompt is built from.
type insightFacts struct {
	ClientName string
	Platforms  []string
	Themes     []string
	Pains      []string
	Praise     []string
	Summaries  []string
}

const insightSchema = `Generate strategic insights in this EXACT JSON format with no markdown, no code blocks:
{
  "executive_summary": "<3-4 sentence executive summary of the overall sentiment picture and what it means strategically>",
  "recommendations": [
    {
      "platform": "<platform name e.g. Google, Yelp, Reddit, All Platforms>",
      "priority": "high" | "medium" | "low",
      "action": "<specific actionable recommendation in 1-2 sentences>",
      "rationale": "<why this matters based on the data, 1 sentence>"
    }
  ],
  "patient_prompts": [
    {
      "question": "<a real question a patient would search or ask, e.g. 'How long is the ER wait at University Hospital?'>",
      "theme": "<which pain point or theme this reflects>",
      "opportunity": "<what the hospital could do to address this information need, 1 sentence>"
    }
  ]
}

Generate 4-5 recommendations and 5-6 patient prompts. Be specific to the data, not generic. Focus on what is actionable.`

func insightsPrompt(f insightFacts) string {
	name := f.ClientName
	if strings.TrimSpace(name) == "" {
		name = "a hospital client"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a healthcare reputation analyst preparing strategic insights for %s.\n\n", name)
	b.WriteString("Here is aggregated patient sentiment data from public review platforms:\n\n")
	b.WriteString("PLATFORM BREAKDOWN:\n")
	b.WriteString(strings.Join(f.Platforms, "\n"))
	b.WriteString("\n\nTOP THEMES (frequency):\n")
	b.WriteString(strings.Join(f.Themes, ", "))
	b.WriteString("\n\nTOP PAIN POINTS:\n- ")
	b.WriteString(strings.Join(f.Pains, "\n- "))
	b.WriteString("\n\nTOP PRAISE:\n- ")
	b.WriteString(strings.Join(f.Praise, "\n- "))
	b.WriteString("\n\nANALYSIS SUMMARIES:\n")
	b.WriteString(strings.Join(f.Summaries, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString(insightSchema)
	return b.String()
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
