// Package tone styles assistant responses: it builds personality guidance
// for system prompts and polishes generated text into a short, friendly
// register.
package tone

import (
	"regexp"
	"strings"

	"github.com/voxa-labs/voxa/internal/models"
)

// emojiRunes is the set we treat as "already has an emoji".
const emojiRunes = "😊🎬🗽📍✨🎨🚀💡🎯🎉🍕☕🍔🍣🌮☀️🌧️☁️⚡👍🌤️🔍🔗⏰"

// emojiIntents are the intents where a closing emoji is appropriate.
var emojiIntents = map[models.IntentTag]bool{
	models.IntentFactual: true,
	models.IntentClarify: true,
}

// formalReplacements strips stiff assistant boilerplate. Applied in order.
var formalReplacements = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)Based on what you (?:told me|mentioned|said)(?:,?\s+(?:previously|earlier|before))?,?\s*`), ""},
	{regexp.MustCompile(`(?i)According to (?:my records|your profile),?\s*`), ""},
	{regexp.MustCompile(`(?i)I have made a note that\s+`), ""},
	{regexp.MustCompile(`(?i)I will remember that for you\.?\s*`), "Got it! "},
	{regexp.MustCompile(`(?i)I am here to assist you\.?\s*`), ""},
	{regexp.MustCompile(`(?i)How may I assist you today\??\.?\s*`), "How can I help? "},
	{regexp.MustCompile(`(?i)Is there anything else I can help you with (?:today)?\??\.?\s*`), ""},
	{regexp.MustCompile(`(?i)It is wonderful to\s+`), "Great to "},
	{regexp.MustCompile(`(?i)Thank you for sharing that (?:information)?\.?\s*`), "Thanks! "},
	{regexp.MustCompile(`(?i)(?:please )?(?:don't hesitate to|feel free to)\s+`), ""},
}

// wordSimplifications swap formal words for plain ones.
var wordSimplifications = [][2]string{
	{"approximately", "about"},
	{"currently", "now"},
	{"however", "but"},
	{"therefore", "so"},
	{"utilize", "use"},
	{"commence", "start"},
}

// Content-keyed emoji, first match wins.
var contentEmojis = []struct {
	re    *regexp.Regexp
	emoji string
}{
	{regexp.MustCompile(`(?i)\bpizza\b`), "🍕"},
	{regexp.MustCompile(`(?i)\bcoffee\b`), "☕"},
	{regexp.MustCompile(`(?i)\bsushi\b`), "🍣"},
	{regexp.MustCompile(`(?i)\bsunny\b|\bclear sky\b`), "☀️"},
	{regexp.MustCompile(`(?i)\brain\b`), "🌧️"},
	{regexp.MustCompile(`(?i)\bcloud`), "☁️"},
}

var (
	// Newlines survive so formatted lists keep their layout.
	reMultiSpace     = regexp.MustCompile(`[ \t]+`)
	reSpaceBeforePun = regexp.MustCompile(`[ \t]+([.!?,])`)
	reLeadingJunk    = regexp.MustCompile(`^[,\s]+`)
	reRepeatTerminal = regexp.MustCompile(`([.!?])[.!?]+$`)
)

// Guidelines builds the personality instruction block injected into system
// prompts, personalized from whatever profile facts are known.
func Guidelines(profile models.UserProfile) string {
	name := profile.Name
	if name == "" {
		name = "Not yet shared"
	}
	interests := "Getting to know them"
	if len(profile.Interests) > 0 {
		top := profile.Interests
		if len(top) > 3 {
			top = top[:3]
		}
		interests = strings.Join(top, ", ")
	}
	location := profile.Location
	if location == "" {
		location = "Unknown"
	}

	var b strings.Builder
	b.WriteString("**Voxa's Personality Guidelines:**\n\n")
	b.WriteString("**Your Character:**\n")
	b.WriteString("- You're Voxa, a warm, intelligent friend who genuinely cares\n")
	b.WriteString("- You're helpful but never pushy or overly formal\n")
	b.WriteString("- You remember everything about the user and show it naturally\n")
	b.WriteString("- You're smart but explain things simply\n\n")
	b.WriteString("**Communication Style (CRITICAL):**\n")
	b.WriteString("- KEEP IT SHORT: 1-2 sentences max unless they ask for details\n")
	b.WriteString("- BE WARM: use friendly language, not robotic\n")
	b.WriteString("- SHOW MEMORY NATURALLY: never say \"I've made a note\" or \"based on what you told me\"\n")
	b.WriteString("- STAY RELEVANT: answer directly, don't over-explain\n\n")
	b.WriteString("**NEVER SAY:**\n")
	b.WriteString("- \"I have made a note that...\"\n")
	b.WriteString("- \"Based on what you told me...\"\n")
	b.WriteString("- \"I am here to assist you...\"\n")
	b.WriteString("- \"Is there anything else I can help you with today?\"\n\n")
	b.WriteString("**User Context:**\n")
	b.WriteString("- Name: " + name + "\n")
	b.WriteString("- Location: " + location + "\n")
	b.WriteString("- Interests: " + interests + "\n")
	return b.String()
}

// Polish cleans up a generated response: formal boilerplate goes, spacing
// and punctuation get normalized, and emoji-friendly intents may gain one
// closing emoji.
func Polish(response string, intent models.IntentTag) string {
	out := response

	for _, fr := range formalReplacements {
		out = fr.re.ReplaceAllString(out, fr.replacement)
	}
	for _, ws := range wordSimplifications {
		out = strings.ReplaceAll(out, ws[0], ws[1])
		out = strings.ReplaceAll(out, capitalize(ws[0]), capitalize(ws[1]))
	}

	out = reMultiSpace.ReplaceAllString(out, " ")
	out = reSpaceBeforePun.ReplaceAllString(out, "$1")
	out = reLeadingJunk.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	out = reRepeatTerminal.ReplaceAllString(out, "$1")
	out = capitalize(out)

	if out != "" && emojiIntents[intent] && !HasEmoji(out) {
		out = addContextualEmoji(out)
	}
	return out
}

// HasEmoji reports whether the response already carries one of the emoji
// the assistant uses.
func HasEmoji(s string) bool {
	return strings.ContainsAny(s, emojiRunes)
}

// addContextualEmoji appends at most one emoji keyed off the response
// content, defaulting to a friendly face.
func addContextualEmoji(response string) string {
	for _, ce := range contentEmojis {
		if ce.re.MatchString(response) {
			return strings.TrimRight(response, ".!") + "! " + ce.emoji
		}
	}
	if !strings.HasSuffix(response, "?") {
		return response + " 😊"
	}
	return response
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
