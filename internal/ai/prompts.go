package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const promptDateLayout = "January 2, 2006"

func personaPrompt(audience string) string {
	return fmt.Sprintf(`You are an expert marketing strategist. Based on the following user-provided description of a target audience, generate a detailed and actionable user persona.

User Input: "%s"

Your generated persona should be well-structured and include the following sections in markdown format:
- **Name & Archetype:** A fictional name and a descriptive archetype (e.g., "Alex the Ambitious Founder").
- **Demographics:** A brief overview of age, location, and profession.
- **Goals & Motivations:** What are their primary objectives and what drives them?
- **Pain Points & Challenges:** What problems are they trying to solve?
- **Content Preferences:** What kind of content do they consume and on which platforms?

Keep the entire description concise, under 200 words.`, audience)
}

func topicsPrompt(titles []string) string {
	return fmt.Sprintf(`You are an expert content analyst. Based on the following list of recent post titles from a single creator, please perform an analysis.
Post Titles:
- %s

Your Tasks:
1. Identify the top 3 to 5 recurring content pillars or themes.
2. Provide a concise, one-sentence summary of this creator's overall content strategy.

The output MUST be a valid JSON object with the exact structure below. Do not add any other text.
{
  "themes": ["Theme 1", "Theme 2", "Theme 3"],
  "summary": "This channel focuses on..."
}`, strings.Join(titles, "\n- "))
}

func durationSection(in PlanInput, days int, capped bool) string {
	switch {
	case capped:
		return "Generate a 90-day content strategy plan. The user requested a longer period, but we are capping it at 90 days."
	case in.StartDate != nil && in.EndDate != nil:
		return fmt.Sprintf("Generate a content strategy plan for the period from %s to %s. The plan must cover all %d days.",
			in.StartDate.Format(promptDateLayout), in.EndDate.Format(promptDateLayout), days)
	default:
		return fmt.Sprintf("Generate a complete %d-day content strategy plan.", days)
	}
}

func planPrompt(in PlanInput, days int, capped bool) string {
	trends := ""
	if len(in.TrendingKeywords) > 0 {
		trends = fmt.Sprintf(`In addition, to make the strategy highly relevant, consider incorporating some of these currently trending topics and titles related to "%s":
- %s
It is not necessary to use all of them, but the plan should reflect these current interests where appropriate.`,
			in.Topic, strings.Join(in.TrendingKeywords, "\n- "))
	}
	return fmt.Sprintf(`You are an expert content strategist AI. Your task is to generate a content strategy based on the user's requirements.

%s

User Requirements:
- Target Audience Persona: %s
- Primary Topic/Industry: %s
- Core Goals: %s
%s

The output MUST be a valid JSON object with the exact structure below.
{
  "blogTitle": "A catchy, SEO-friendly blog title related to the topic.",
  "suggestedFormats": ["An array of 2-3 recommended content formats like 'IG Reel' or 'Blog Post'."],
  "postFrequency": "A recommended weekly post frequency, like '3 posts/week'.",
  "calendar": [
    {
      "day": 1,
      "title": "A specific content title for Day 1.",
      "format": "The format for Day 1's content (must be one of the suggestedFormats).",
      "platform": "The best platform for this post (e.g., 'Instagram', 'YouTube', 'Blog').",
      "postTime": "The optimal post time (e.g., '9-11 AM EST').",
      "rationale": "A concise, one-sentence explanation for WHY this content is a good idea."
    }
  ]
}

Instructions for the calendar:
- Create a plan for the full duration requested (%d days).
- Ensure the 'day' property in the calendar array goes from 1 to %d, exactly once each.
- The 'rationale' MUST be included for every single calendar item and should be specific.
- Vary the content titles and formats to keep the audience engaged.
- Ensure the content ideas align with the target audience persona, goals, and provided trends.`,
		durationSection(in, days, capped), in.Persona, in.Topic, in.Goals, trends, days, days)
}

func sentimentPrompt(trends []models.Trend) string {
	lines := make([]string, 0, len(trends))
	for i, t := range trends {
		lines = append(lines, fmt.Sprintf("%d: %q", i, t.Keyword))
	}
	return fmt.Sprintf(`You are a sentiment analysis expert. For the following list of keywords and topics, classify each one as 'Positive', 'Negative', or 'Neutral'.
Your response MUST be a valid JSON object where keys are the numeric indices from the input list and values are the sentiment strings.

Keywords to analyze:
%s

Example Response:
{
  "0": "Neutral",
  "1": "Positive",
  "2": "Negative"
}`, strings.Join(lines, "\n"))
}

func gapsPrompt(competitorThemes, userTopics []string) string {
	covered := "(none yet)"
	if len(userTopics) > 0 {
		covered = "- " + strings.Join(userTopics, "\n- ")
	}
	return fmt.Sprintf(`You are a content strategy consultant. A competitor regularly publishes about these themes:
- %s

The user has already planned content about these topics:
%s

Identify 3 to 5 specific content opportunities the competitor covers that the user does not. Each suggestion must be one actionable sentence.
The output MUST be a valid JSON object with a single key "gaps", which is an array of strings. Do not add any other text.`,
		strings.Join(competitorThemes, "\n- "), covered)
}

// IdeaType is the closed set of idea-bank generators.
type IdeaType string

const (
	IdeaBlogTitles       IdeaType = "Blog Titles"
	IdeaYouTubeIdeas     IdeaType = "YouTube Ideas"
	IdeaTweetHooks       IdeaType = "Tweet Hooks"
	IdeaShortFormScripts IdeaType = "Short Form Video Scripts"
)

var ideaTasks = map[IdeaType]string{
	IdeaBlogTitles:       `Generate 5 catchy, SEO-friendly blog post titles about "%s".`,
	IdeaYouTubeIdeas:     `Generate 5 engaging YouTube video ideas for a channel focused on "%s". Include a mix of tutorial, listicle, and review-style videos.`,
	IdeaTweetHooks:       `Generate 5 compelling tweet hooks (the first sentence of a tweet) designed to capture attention about "%s".`,
	IdeaShortFormScripts: `Generate 3 short-form video scripts (for TikTok/Reels) about "%s". Each script should have three scenes: a strong hook, the core value, and a call-to-action.`,
}

func (t IdeaType) Valid() bool {
	_, ok := ideaTasks[t]
	return ok
}

func ideasPrompt(topic string, t IdeaType) string {
	return fmt.Sprintf(`You are an expert content creator AI. Your task is to generate content ideas.

Task: %s

The output MUST be a valid JSON object with a single key "ideas", which is an array of strings.
For "Short Form Video Scripts", each string in the array should be a complete script formatted with scenes.

Example for "Blog Titles":
{
  "ideas": [
    "Title 1...",
    "Title 2..."
  ]
}`, fmt.Sprintf(ideaTasks[t], topic))
}

type expansionKind int

const (
	expandGeneric expansionKind = iota
	expandBlog
	expandTweet
	expandVideo
)

// expansionFor picks the sub-prompt by case-insensitive substring of the free-text format.
func expansionFor(format string) expansionKind {
	f := strings.ToLower(format)
	switch {
	case strings.Contains(f, "blog"):
		return expandBlog
	case strings.Contains(f, "tweet"):
		return expandTweet
	case strings.Contains(f, "video"), strings.Contains(f, "reel"):
		return expandVideo
	default:
		return expandGeneric
	}
}

func expandPrompt(title, format string) string {
	var task string
	switch expansionFor(format) {
	case expandBlog:
		task = "Write a detailed blog post outline in markdown with an introduction, 4-6 H2 sections with bullet points for each, and a conclusion with a call-to-action."
	case expandTweet:
		task = "Write a Twitter/X thread of 5-7 tweets in markdown as a numbered list. The first tweet must be a strong hook and the last a call-to-action."
	case expandVideo:
		task = "Write a short-form video script in markdown with scenes. For each scene give the visual, the on-screen text and the voiceover. Start with a hook in the first 3 seconds."
	default:
		task = "Elaborate on this content idea in markdown: the key message, 3-5 talking points, a suggested structure and a call-to-action."
	}
	return fmt.Sprintf(`You are an expert content creator. Expand the following content idea.

Title: "%s"
Format: %s

%s
Respond with markdown only.`, title, format, task)
}

func trendsPrompt(topic string) string {
	return fmt.Sprintf(`You are an expert trend analysis AI. Your task is to generate a list of plausible trending search queries related to a given topic.
Based on the topic "%s", generate a list of 10 related search queries that a user might search for on Google.
Include a mix of:
1. **Top Queries:** Broad, popular, and consistently searched terms (e.g., "skincare routine").
2. **Rising Queries:** More specific, newer, or breakout terms (e.g., "retinol sandwich method").
The output MUST be a valid JSON object with a single key "trends", which is an array of strings. Do not include any other text, explanations, or markdown formatting.`, topic)
}

// PlanDuration is the inclusive day count between start and end, capped at MaxPlanDays.
// Without both dates it is DefaultPlanDays.
func PlanDuration(start, end *time.Time) (days int, capped bool) {
	if start == nil || end == nil {
		return DefaultPlanDays, false
	}
	diff := end.Sub(*start)
	if diff < 0 {
		diff = -diff
	}
	days = int((diff+24*time.Hour-1)/(24*time.Hour)) + 1
	if days > MaxPlanDays {
		return MaxPlanDays, true
	}
	return days, false
}
