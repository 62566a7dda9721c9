package generator

import (
	"fmt"
	"strings"
)

// StoryPrompt returns the system and user prompts for a short fairy tale.
func StoryPrompt(subject, attribute, language, format string) (string, string) {
	markup := "clean HTML (use <h2>, <p>, <ul>, <li>)"
	layout := "1) <h2>A short title, at most five words</h2>\n" +
		"2) <p>An introduction of at most three sentences</p>\n" +
		"3) Three to six <p> paragraphs telling the story\n" +
		"4) <p><i>A closing moral in one sentence</i></p>"
	if format == "markdown" {
		markup = "Markdown"
		layout = "1) A level-two heading (## ) with a short title, at most five words\n" +
			"2) An introduction of at most three sentences\n" +
			"3) Three to six paragraphs telling the story\n" +
			"4) A closing moral in italics"
	}

	system := fmt.Sprintf(
		"You are a warm, witty children's author who writes modern fairy tales about animals. "+
			"Write in %s. Respond only with %s and no surrounding commentary or code fences. "+
			"Avoid generic titles; the title must be specific to the story.",
		language, markup)

	user := fmt.Sprintf(
		"Write an original fairy tale whose hero is a %s %s. "+
			"Let the %s trait drive the plot and resolve it kindly.\n\n"+
			"Use exactly this structure:\n%s",
		strings.TrimSpace(attribute), strings.TrimSpace(subject), strings.TrimSpace(attribute), layout)

	return system, user
}

// ImagePrompt describes an illustration for the story title.
func ImagePrompt(subject, attribute, title string) string {
	return fmt.Sprintf(
		"Create a stunning, highly detailed storybook illustration for the fairy tale %q, "+
			"featuring a %s %s as the hero. The image should be vibrant and immersive, "+
			"with striking colors, dynamic composition, and a sense of atmosphere. "+
			"Do not include any text, letters, or numbers in the image.",
		title, strings.TrimSpace(attribute), strings.TrimSpace(subject))
}
