package exchange

import "strings"

// InferFormat guesses the audio container format from the declared
// MIME type, then the filename extension, falling back to the given
// default. The m4a checks run first: iOS uploads often declare
// audio/x-m4a while naming the file .m4a.
func InferFormat(mimeType, filename, fallback string) string {
	mt := strings.ToLower(mimeType)
	name := strings.ToLower(filename)

	switch {
	case strings.Contains(mt, "m4a"), strings.HasSuffix(name, ".m4a"):
		return "m4a"
	case strings.Contains(mt, "wav"):
		return "wav"
	case strings.Contains(mt, "mp3"), strings.Contains(mt, "mpeg"):
		return "mp3"
	case strings.Contains(mt, "ogg"):
		return "ogg"
	}

	return fallback
}
