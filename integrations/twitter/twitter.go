package twitter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

var tweetIDPattern = regexp.MustCompile(`status/(\d+)`)

// TweetInfo es el contenido relevante de un tweet para el bot: su
// texto y las imágenes adjuntas.
type TweetInfo struct {
	TweetID   string
	Text      string
	ImageURLs []string
}

// Helper obtiene el contenido de tweets raspando la versión web.
type Helper struct {
	client *http.Client
}

func NewHelper(client *http.Client) *Helper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Helper{client: client}
}

// FetchInfo descarga la página del tweet y extrae texto e imágenes.
func (h *Helper) FetchInfo(ctx context.Context, tweetURL string) (TweetInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tweetURL, nil)
	if err != nil {
		return TweetInfo{}, err
	}
	// Twitter devuelve el HTML legacy (sin JS) a user agents antiguos
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 6.1; WOW64; Trident/7.0; rv:11.0) like Gecko")

	resp, err := h.client.Do(req)
	if err != nil {
		return TweetInfo{}, fmt.Errorf("fetch tweet %s: %w", tweetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TweetInfo{}, fmt.Errorf("fetch tweet %s: unexpected status %d", tweetURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TweetInfo{}, err
	}

	info, err := ParseTweet(string(body), tweetURL)
	if err != nil {
		return TweetInfo{}, err
	}
	logrus.Debugf("[TWITTER] Tweet %s: %d images, text %q", info.TweetID, len(info.ImageURLs), info.Text)
	return info, nil
}

// ParseTweet extrae texto e imágenes del HTML de un tweet.
func ParseTweet(html, tweetURL string) (TweetInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return TweetInfo{}, fmt.Errorf("parse tweet html: %w", err)
	}

	info := TweetInfo{TweetID: TweetID(tweetURL)}

	info.Text = strings.TrimSpace(doc.Find("p.tweet-text").First().Text())

	doc.Find(".AdaptiveMedia-container img[data-aria-label-part]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.TrimSpace(src) != "" {
			info.ImageURLs = append(info.ImageURLs, src)
		}
	})

	return info, nil
}

// TweetID extrae el ID numérico de la URL de un estado, o cadena vacía.
func TweetID(tweetURL string) string {
	m := tweetIDPattern.FindStringSubmatch(tweetURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
