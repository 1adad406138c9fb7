package utils

import (
	"html/template"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VideoExtensions lists the media types the player can show.
var VideoExtensions = []string{".mp4", ".avi", ".mov"}

// IsVideoPath reports whether p ends in an allowed video extension.
func IsVideoPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range VideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// EnhanceHTMLContent adds lazy-loading to images and turns paragraphs that contain
// only a video link into an embedded player.
func EnhanceHTMLContent(htmlStr string) template.HTML {
	if htmlStr == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return template.HTML(htmlStr)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if strings.Contains(text, " ") || !strings.HasPrefix(text, "http") {
			return
		}

		var embedHTML string
		switch {
		case strings.Contains(text, "youtube.com/watch?v="):
			videoID := strings.Split(strings.SplitN(text, "v=", 2)[1], "&")[0]
			embedHTML = youtubeEmbed(videoID)
		case strings.Contains(text, "youtu.be/"):
			videoID := strings.Split(strings.SplitN(text, "youtu.be/", 2)[1], "?")[0]
			embedHTML = youtubeEmbed(videoID)
		case IsVideoPath(strings.Split(text, "?")[0]):
			embedHTML = videoTag(text)
		}

		if embedHTML != "" {
			s.ReplaceWithHtml(embedHTML)
		}
	})

	// goquery renders full document tags if missing, we just want the body content
	html, _ := doc.Find("body").Html()
	if html == "" {
		html, _ = doc.Html()
	}

	return template.HTML(html)
}

// MediaPlayer renders the player for an uploaded media reference.
func MediaPlayer(ref string) template.HTML {
	if ref == "" || !IsVideoPath(ref) {
		return ""
	}
	return template.HTML(videoTag("/" + strings.TrimPrefix(ref, "/")))
}

func videoTag(src string) string {
	return `<div class="video-container"><video controls preload="metadata" src="` +
		template.HTMLEscapeString(src) + `"></video></div>`
}

func youtubeEmbed(videoID string) string {
	return `<div class="video-container"><iframe src="https://www.youtube.com/embed/` +
		template.HTMLEscapeString(videoID) +
		`" frameborder="0" allowfullscreen allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture"></iframe></div>`
}
