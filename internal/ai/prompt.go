// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"fmt"
	"strings"
)

// outputFormatAddendum pins the HTML conventions the post-processor
// depends on. It is appended to every prompt, including fully custom
// client instructions: without the placeholder marker contract, image
// materialization cannot find its insertion points.
const outputFormatAddendum = `

MANDATORY OUTPUT FORMAT (always follow, regardless of other instructions):
- Write the article as clean HTML fragments (h2/h3 headings, p paragraphs, ul/ol lists). Do not include <html>, <head> or <body> tags.
- After each major section, insert exactly one image placeholder on its own line in this form:
  <p class="image-placeholder">[IMAGE: short description of a fitting photo]</p>
- End each major section with a one-sentence summary inside:
  <div class="section-summary">...</div>
- Close the article with a footer block:
  <div class="article-footer"><p>...</p></div>
- Return only the article HTML. No markdown, no code fences, no commentary.`

// defaultPromptTemplate is used when the client has no custom
// instructions. Keywords and the optional title are interpolated.
const defaultPromptTemplate = `You are a professional content marketer writing a blog post for a business website.

%s

Structural requirements:
- One main title as an <h1> heading, then 4-6 sections with <h2> headings and <h3> subheadings where useful.
- Total length between 1,500 and 2,500 words.
- Work each keyword into the text naturally, around 1-2%% keyword density. Never stuff keywords.
- Include a FAQ section near the end with 3-5 question/answer pairs.
- Finish with a call-to-action paragraph inviting the reader to get in touch.
- Add a block of 5-8 relevant hashtags at the very end inside <p class="hashtags">.
- Friendly, expert tone. Short paragraphs, no filler.`

// BuildPrompt constructs the text-generation prompt. Non-empty client
// instructions take absolute precedence over the default template; the
// output-format addendum is appended in every case.
func BuildPrompt(keywords []string, title, clientInstructions string) string {
	var b strings.Builder

	instructions := strings.TrimSpace(clientInstructions)
	if instructions != "" {
		b.WriteString("Follow these client instructions exactly. They override any other stylistic guidance:\n\n")
		b.WriteString(instructions)
		b.WriteString("\n\n")
		b.WriteString(keywordContext(keywords, title))
	} else {
		b.WriteString(fmt.Sprintf(defaultPromptTemplate, keywordContext(keywords, title)))
	}

	b.WriteString(outputFormatAddendum)
	return b.String()
}

// keywordContext renders the keyword/title block shared by both strategies.
func keywordContext(keywords []string, title string) string {
	var b strings.Builder
	b.WriteString("Target keywords (in priority order): ")
	b.WriteString(strings.Join(keywords, ", "))
	if strings.TrimSpace(title) != "" {
		b.WriteString("\nUse this exact title: ")
		b.WriteString(strings.TrimSpace(title))
	}
	return b.String()
}

// BuildImagePrompt constructs the image-generation prompt for one
// placeholder description.
func BuildImagePrompt(description string, keywords []string) string {
	var b strings.Builder
	b.WriteString("A high-quality, photorealistic image for a blog article: ")
	b.WriteString(strings.TrimSpace(description))
	if len(keywords) > 0 {
		b.WriteString(". Article topic: ")
		b.WriteString(strings.Join(keywords, ", "))
	}
	b.WriteString(". No text, no watermarks, no logos.")
	return b.String()
}
