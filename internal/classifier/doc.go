// Package classifier provides image classifiers answering whether a camera
// frame shows a cat: Fake guesses at random, Gemini asks a Google Gemini model.
package classifier
