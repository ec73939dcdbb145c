package model

import "regexp"

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([^&]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([^?]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([^?]+)`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([^?]+)`),
}

// ExtractVideoID returns the YouTube video id of a watch, short, embed or /v/ URL.
func ExtractVideoID(url string) (string, bool) {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}
