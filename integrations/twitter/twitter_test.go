package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tweetFixture = `
<html>
<body>
<div class="tweet">
  <p class="tweet-text">Mirá qué atardecer increíble en la costa 🌅</p>
  <div class="AdaptiveMedia-container">
    <img data-aria-label-part src="https://pbs.twimg.com/media/abc123.jpg">
    <img data-aria-label-part src="https://pbs.twimg.com/media/def456.jpg">
    <img src="https://pbs.twimg.com/profile/avatar.jpg">
  </div>
</div>
<p class="tweet-text">Texto de un tweet citado que no debe usarse</p>
</body>
</html>`

func TestParseTweet(t *testing.T) {
	info, err := ParseTweet(tweetFixture, "https://twitter.com/user/status/987654321")
	require.NoError(t, err)

	assert.Equal(t, "987654321", info.TweetID)
	assert.Equal(t, "Mirá qué atardecer increíble en la costa 🌅", info.Text,
		"debe tomar el primer tweet-text, no el citado")
	require.Len(t, info.ImageURLs, 2, "el avatar sin data-aria-label-part no cuenta")
	assert.Equal(t, "https://pbs.twimg.com/media/abc123.jpg", info.ImageURLs[0])
}

func TestParseTweetSinMedia(t *testing.T) {
	info, err := ParseTweet(`<html><body><p class="tweet-text">solo texto</p></body></html>`,
		"https://x.com/u/status/1")
	require.NoError(t, err)

	assert.Equal(t, "solo texto", info.Text)
	assert.Empty(t, info.ImageURLs)
}

func TestTweetID(t *testing.T) {
	assert.Equal(t, "12345", TweetID("https://twitter.com/user/status/12345?s=20"))
	assert.Equal(t, "", TweetID("https://twitter.com/user"))
}
