package fetcher

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"reelscript/internal/reel"
)

// reelLink is a video reference found on a search or tag page.
type reelLink struct {
	ID   string
	Path string
}

// parseTagPage returns the video links of pr in document order without
// duplicates.
func parseTagPage(body []byte, pr profile) []reelLink {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	seen := make(map[string]struct{})
	var links []reelLink
	for _, a := range findElements(doc, "a") {
		href := getAttr(a, "href")
		if i := strings.IndexAny(href, "?#"); i >= 0 {
			href = href[:i]
		}
		if strings.HasPrefix(href, "http") {
			if idx := strings.Index(href, "://"); idx >= 0 {
				rest := href[idx+3:]
				if slash := strings.Index(rest, "/"); slash >= 0 {
					href = rest[slash:]
				}
			}
		}
		m := pr.link.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		id := m[1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, reelLink{ID: id, Path: pr.permalink(id)})
	}
	return links
}

// reelPage is everything read from one reel page.
type reelPage struct {
	Caption  string
	Likes    int64
	Comments int64
	Views    int64
	AudioURL string
	VideoURL string
	PostedAt time.Time
	Thread   []reel.Comment
}

// videoObject is the schema.org JSON-LD block embedded in reel pages.
type videoObject struct {
	Type                 any               `json:"@type"`
	Caption              string            `json:"caption"`
	Description          string            `json:"description"`
	ContentURL           string            `json:"contentUrl"`
	UploadDate           string            `json:"uploadDate"`
	InteractionStatistic []interactionStat `json:"interactionStatistic"`
	CommentCount         json.RawMessage   `json:"commentCount"`
	Comment              []ldComment       `json:"comment"`
	Audio                *struct {
		ContentURL string `json:"contentUrl"`
	} `json:"audio"`
}

type interactionStat struct {
	InteractionType      any             `json:"interactionType"`
	UserInteractionCount json.RawMessage `json:"userInteractionCount"`
}

type ldComment struct {
	Identifier string `json:"identifier"`
	Text       string `json:"text"`
	Author     struct {
		AlternateName string `json:"alternateName"`
		Name          string `json:"name"`
	} `json:"author"`
}

var ogCountsPattern = regexp.MustCompile(`(?i)([\d.,]+\s*[kmb]?)\s+likes?,\s*([\d.,]+\s*[kmb]?)\s+comments?`)

// parseReelPage prefers the JSON-LD VideoObject and falls back to Open Graph
// meta tags for anything it lacks.
func parseReelPage(body []byte) reelPage {
	var page reelPage
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return page
	}

	for _, script := range findElements(doc, "script") {
		if !strings.EqualFold(getAttr(script, "type"), "application/ld+json") {
			continue
		}
		if obj, ok := decodeVideoObject(textContent(script)); ok {
			applyVideoObject(&page, obj)
			break
		}
	}

	for _, meta := range findElements(doc, "meta") {
		key := getAttr(meta, "property")
		if key == "" {
			key = getAttr(meta, "name")
		}
		content := strings.TrimSpace(getAttr(meta, "content"))
		switch key {
		case "og:video", "og:video:secure_url":
			if page.VideoURL == "" {
				page.VideoURL = content
			}
		case "og:audio":
			if page.AudioURL == "" {
				page.AudioURL = content
			}
		case "og:description", "description":
			if m := ogCountsPattern.FindStringSubmatch(content); m != nil {
				if page.Likes == 0 {
					page.Likes = reel.ParseCount(m[1])
				}
				if page.Comments == 0 {
					page.Comments = reel.ParseCount(m[2])
				}
			}
			if page.Caption == "" {
				if _, caption, ok := strings.Cut(content, ": "); ok {
					page.Caption = strings.Trim(strings.TrimSpace(caption), `"“”`)
				}
			}
		}
	}

	if page.PostedAt.IsZero() {
		for _, t := range findElements(doc, "time") {
			if ts, err := time.Parse(time.RFC3339, getAttr(t, "datetime")); err == nil {
				page.PostedAt = ts.UTC()
				break
			}
		}
	}
	return page
}

func decodeVideoObject(raw string) (videoObject, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return videoObject{}, false
	}
	var single videoObject
	if err := json.Unmarshal([]byte(raw), &single); err == nil && isVideoObject(single.Type) {
		return single, true
	}
	var list []videoObject
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for _, obj := range list {
			if isVideoObject(obj.Type) {
				return obj, true
			}
		}
	}
	return videoObject{}, false
}

func isVideoObject(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "VideoObject" || v == "SocialMediaPosting"
	case []any:
		for _, item := range v {
			if isVideoObject(item) {
				return true
			}
		}
	}
	return false
}

func applyVideoObject(page *reelPage, obj videoObject) {
	page.Caption = strings.TrimSpace(obj.Caption)
	if page.Caption == "" {
		page.Caption = strings.TrimSpace(obj.Description)
	}
	page.VideoURL = strings.TrimSpace(obj.ContentURL)
	if obj.Audio != nil {
		page.AudioURL = strings.TrimSpace(obj.Audio.ContentURL)
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(obj.UploadDate)); err == nil {
		page.PostedAt = ts.UTC()
	}
	for _, stat := range obj.InteractionStatistic {
		count := rawCount(stat.UserInteractionCount)
		switch interactionKind(stat.InteractionType) {
		case "like":
			page.Likes = count
		case "comment":
			page.Comments = count
		case "watch":
			page.Views = count
		}
	}
	if page.Comments == 0 {
		page.Comments = rawCount(obj.CommentCount)
	}
	for i, c := range obj.Comment {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		id := strings.TrimSpace(c.Identifier)
		if id == "" {
			id = "c" + strconv.Itoa(i)
		}
		author := c.Author.AlternateName
		if author == "" {
			author = c.Author.Name
		}
		page.Thread = append(page.Thread, reel.Comment{ID: id, Author: strings.TrimSpace(author), Text: text})
	}
}

func interactionKind(t any) string {
	var name string
	switch v := t.(type) {
	case string:
		name = v
	case map[string]any:
		if s, ok := v["@type"].(string); ok {
			name = s
		}
	}
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "likeaction"):
		return "like"
	case strings.Contains(name, "commentaction"):
		return "comment"
	case strings.Contains(name, "watchaction"), strings.Contains(name, "viewaction"):
		return "watch"
	}
	return ""
}

// rawCount accepts JSON numbers and display strings such as "1.2K".
func rawCount(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if v, err := n.Int64(); err == nil {
			return v
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return reel.ParseCount(s)
	}
	return 0
}

func findElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
