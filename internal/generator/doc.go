// Package generator produces the story, illustration, and narration for a
// candidate.
//
// Service composes a TextModel, an ImageModel, and a Speaker. OpenAI backs all
// three through the official SDK; ElevenLabs is an alternative Speaker. Model
// output is cleaned before use: code fences are dropped, markdown is rendered
// when configured, unsafe markup is sanitized, and the title is read from the
// first <h2>. Every failure carries ErrGeneration.
package generator
