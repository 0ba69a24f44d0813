package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	AppVersion = "v1.2.0"
	AppPort    = "3000"
	AppDebug   = false

	BotName  = ""
	BotToken = ""

	PathTemp     = "statics/temp"
	PathStorages = "storages"

	DBURI = "file:storages/mediaext.db?_foreign_keys=on"

	// Media batching settings
	MediaGroupDebounceMs = 1000
	MediaGroupTimeoutMs  = 5000
	CaptionFreshnessMs   = 1000

	// External tools
	YtdlpPath   = "yt-dlp"
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"

	// Limits
	MaxDownloadSize int64 = 500000000 // 500MB
	MaxMessageLen         = 4096

	// Access control
	AllowedUserIDs []int64
	BannedUserIDs  []int64
	AllowAnonymous = false

	// Message Worker Pool settings
	MessageWorkerPoolSize  int = 6
	MessageWorkerQueueSize int = 250
)

func init() {
	if v := strings.TrimSpace(os.Getenv("BOT_TOKEN")); v != "" {
		BotToken = v
	}
	if v := strings.TrimSpace(os.Getenv("BOT_NAME")); v != "" {
		BotName = v
	}
	if v := strings.TrimSpace(os.Getenv("MEDIA_GROUP_DEBOUNCE_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			MediaGroupDebounceMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("MEDIA_GROUP_TIMEOUT_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			MediaGroupTimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CAPTION_FRESHNESS_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			CaptionFreshnessMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("YTDLP_PATH")); v != "" {
		YtdlpPath = v
	}
	if v := strings.TrimSpace(os.Getenv("FFMPEG_PATH")); v != "" {
		FfmpegPath = v
	}
	if v := strings.TrimSpace(os.Getenv("FFPROBE_PATH")); v != "" {
		FfprobePath = v
	}
	if v := strings.TrimSpace(os.Getenv("MAX_DOWNLOAD_SIZE")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			MaxDownloadSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_USER_IDS")); v != "" {
		AllowedUserIDs = parseUserIDs(v)
	}
	if v := strings.TrimSpace(os.Getenv("BANNED_USER_IDS")); v != "" {
		BannedUserIDs = parseUserIDs(v)
	}
	if v := strings.TrimSpace(os.Getenv("ALLOW_ANONYMOUS")); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y", "on":
			AllowAnonymous = true
		case "0", "false", "no", "n", "off":
			AllowAnonymous = false
		}
	}
	if val := os.Getenv("MESSAGE_WORKER_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			MessageWorkerPoolSize = parsed
		}
	}
	if val := os.Getenv("MESSAGE_WORKER_QUEUE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			MessageWorkerQueueSize = parsed
		}
	}
}

// AdminID devuelve el primer usuario permitido, que actúa como administrador.
func AdminID() int64 {
	if len(AllowedUserIDs) == 0 {
		return 0
	}
	return AllowedUserIDs[0]
}

func parseUserIDs(raw string) []int64 {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil && n != 0 {
			ids = append(ids, n)
		}
	}
	return ids
}
