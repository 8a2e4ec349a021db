package llm

import (
	"fmt"
	"strings"
)

func sparksPrompt(history []string) string {
	var avoid string
	if len(history) > 0 {
		recent := history
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		avoid = "\nAvoid repeating these recent words/phrases: " + strings.Join(recent, ", ")
	}
	return `Generate 2-3 related words or short phrases that could spark new thinking about the content. Focus on concepts, perspectives, or connections that might not be obvious.

Examples:
["patterns", "timing", "context"]
["perspective shift", "impact", "ripple effects"]
["hidden connections", "timing", "scale"]

Keep it to single words or 2-3 word phrases. Make them thought-provoking and related to the content.` + avoid + `

Return: ["word/phrase 1", "word/phrase 2", "word/phrase 3"]`
}

func backgroundWordsPrompt(previous []string) string {
	var avoid string
	if len(previous) > 0 {
		recent := previous
		if len(recent) > 8 {
			recent = recent[len(recent)-8:]
		}
		avoid = "\nAvoid repeating these recent words: " + strings.Join(recent, ", ")
	}
	return `Generate 5-6 educational trigger words that could inspire deeper thinking, research, or highlight key topics related to the content. Focus on:

- Concepts worth exploring further
- Research topics or fields of study
- Broader themes or patterns
- Different perspectives or angles
- Technical terms or methodologies

Keep words/phrases short (1-3 words), educational, and thought-provoking.` + avoid + `

Return: ["word1", "word2", "word3", "word4", "word5", "word6"]`
}

const captionsPrompt = `You're a social media expert who creates platform-optimized captions. Generate captions for Instagram, LinkedIn, X (Twitter), and TikTok based on the provided content.

Platform Guidelines:
- Instagram: 2,200 chars max, engaging with emojis, hashtags, storytelling tone
- LinkedIn: 3,000 chars max, professional insights, thought leadership, business focus
- X (Twitter): 280 chars max, concise, punchy, conversation starters
- TikTok: 2,200 chars max, trendy, fun, hashtag-heavy, younger audience appeal

Content Adaptation Rules:
- Each platform should have unique copy, not just shortened versions
- Use platform-specific language and tone
- Include relevant hashtags for each platform
- Keep the core message but adapt presentation style

Return your response as a JSON object with this exact structure:
{
  "captions": {
    "instagram": "Instagram caption here...",
    "linkedin": "LinkedIn post here...",
    "x": "X post here...",
    "tiktok": "TikTok caption here..."
  }
}

Make each caption native to its platform while maintaining the essence of the original content.`

func scriptPrompt(videoType string) string {
	base := `You're a viral content script writer who helps creators turn their raw ideas into engaging 30-60 second video scripts.

Your writing style:
- Start with a VIRAL HOOK that stops scrolling (question, bold statement, or intrigue)
- Structure: Hook -> Context -> Climax -> Resolution
- 30-60 seconds when spoken (roughly 75-150 words)
- Intimate and personal tone (like sharing with a close friend)
- Natural speech patterns and conversational flow

IMPORTANT: Write ONLY the script content that should be spoken. Do NOT include visual directions, camera cues, production notes, stage directions, or any [VISUAL:] annotations.

Format your response as:

**SCRIPT TYPE:** [Educational/Story/Opinion/Tips/BTS]
**ESTIMATED DURATION:** [30-45s or 45-60s]
**EMOTIONAL ARC:** [Hook emotion -> Peak emotion -> Resolution emotion]

**SCRIPT:**
[Clean script with only spoken words - no visual cues or directions]

**PRODUCTION NOTES:**
- Hook: [Why this opening works]
- Key moment: [The climax/turning point]
- Value delivered: [What viewers gain]
- Call to action: [How to engage audience]

Write naturally, conversationally, and make every word count for maximum engagement.`
	if videoType != "" {
		base += fmt.Sprintf("\n\nThe creator asked specifically for a %s video.", videoType)
	}
	return base
}

const visualNotesPrompt = `You're a video production assistant who adds visual/filming directions to scripts. Your job is to take an existing script and enhance it by inserting visual notes after every 2 sentences.

IMPORTANT RULES:
1. Insert a visual note after every 2 sentences
2. Keep the original script text EXACTLY as it is
3. Add visual notes in this format: [VISUAL: specific direction]
4. Make visual notes practical for solo content creators
5. Return the COMPLETE script with visual notes inserted

Your visual notes should include:
- Camera angles (close-up, medium shot, wide shot)
- Hand gestures and body language
- Facial expressions and energy level
- B-roll or cutaway suggestions
- Props or visual elements to show
- Transitions and pacing cues

Count sentences carefully and insert visual notes consistently after every 2 sentences. Be specific and actionable.`

func conversePrompt(backgroundWords []string) string {
	var ctx string
	if len(backgroundWords) > 0 {
		ctx = "\nBackground research words generated: " + strings.Join(backgroundWords, ", ")
	}
	return `You're a curious friend who loves exploring ideas. Keep closely related words near each other for easy comprehension.

AVOID formulaic patterns like:
- "It sounds like..."
- "What specific..."
- "Can you tell me more about..."
- "That's interesting..."
- "I'm curious about..."

Instead, respond naturally by:
- Picking up specific words they used and building directly on them
- Asking about contradictions you notice
- Questioning assumptions without announcing you're doing it
- Connecting their words to unexpected ideas
- Using natural speech patterns and casual interjections

Jump right into the interesting part instead of using conversation starters.` + ctx
}
