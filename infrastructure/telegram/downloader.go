package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AzielCF/az-mediaext/config"
	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
	"github.com/AzielCF/az-mediaext/pkg/msgworker"
	"github.com/AzielCF/az-mediaext/pkg/urlclassify"
	"github.com/AzielCF/az-mediaext/pkg/utils"
	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// handleURL clasifica la URL y despacha la descarga al worker pool:
// el update loop nunca se bloquea con I/O pesado.
func (b *Bot) handleURL(ctx context.Context, msg *tgbotapi.Message, rawURL string) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	kind := urlclassify.Classify(rawURL)

	// Snapshot del caption prestable antes de que caduque la ventana
	comment := strings.TrimSpace(strings.Replace(msg.Text, rawURL, "", 1))
	if comment == "" {
		comment = b.sessions.Get(userID).RecentText()
	}

	b.SendMessage(chatID, "⏳ Please wait, fetching media...")
	logrus.Infof("[BOT] URL %s classified as %s for chat %d", rawURL, kind, chatID)

	ok := b.pool.TryDispatch(msgworker.MessageJob{
		ChatID: chatID,
		Handler: func(jobCtx context.Context) error {
			var err error
			switch kind {
			case urlclassify.KindTweet:
				err = b.downloadTweet(jobCtx, chatID, rawURL, comment)
			case urlclassify.KindYoutube, urlclassify.KindGeneric:
				err = b.downloadWithYtdlp(jobCtx, chatID, rawURL, comment)
			case urlclassify.KindBinary:
				err = b.downloadBinary(jobCtx, chatID, rawURL, comment)
			}
			if err != nil {
				b.SendMessage(chatID, "❌ "+err.Error())
			}
			return err
		},
	})
	if !ok {
		b.SendMessage(chatID, "❌ Too many downloads in progress, try again later")
	}
}

// downloadTweet intenta primero el video del tweet vía yt-dlp; si no
// hay video, cae a las imágenes raspadas del HTML.
func (b *Bot) downloadTweet(ctx context.Context, chatID int64, rawURL, comment string) error {
	info, infoErr := b.twitter.FetchInfo(ctx, rawURL)
	title := ""
	if infoErr == nil {
		title = info.Text
	}

	if path, _, err := b.ytdl.Download(ctx, rawURL); err == nil {
		defer utils.RemoveFile(path)
		return b.uploadVideo(ctx, chatID, path, resolveCaption(comment, title))
	}

	if infoErr != nil {
		return fmt.Errorf("could not read the tweet: %w", infoErr)
	}
	if len(info.ImageURLs) == 0 {
		return fmt.Errorf("the tweet has no downloadable media")
	}

	paths := make([]string, 0, len(info.ImageURLs))
	defer func() { utils.RemoveFile(paths...) }()
	for _, imgURL := range info.ImageURLs {
		dest := filepath.Join(config.PathTemp, uuid.NewString()+".jpg")
		size, err := utils.DownloadFile(b.http, imgURL, dest)
		if err != nil {
			return fmt.Errorf("could not download tweet image: %w", err)
		}
		logrus.Debugf("[BOT] Tweet image downloaded (%s)", humanize.Bytes(uint64(size)))
		paths = append(paths, dest)
	}

	return b.uploadPhotos(chatID, paths, resolveCaption(comment, title))
}

// downloadWithYtdlp cubre YouTube y cualquier sitio que yt-dlp sepa
// extraer.
func (b *Bot) downloadWithYtdlp(ctx context.Context, chatID int64, rawURL, comment string) error {
	path, info, err := b.ytdl.Download(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("could not extract media from that link: %w", err)
	}
	defer utils.RemoveFile(path)

	return b.uploadVideo(ctx, chatID, path, resolveCaption(comment, info.Title))
}

// downloadBinary baja un archivo directo y lo sube según su extensión.
func (b *Bot) downloadBinary(ctx context.Context, chatID int64, rawURL, comment string) error {
	ext := utils.ExtFromURL(rawURL)
	mediaType := urlclassify.MediaTypeForExt(ext)

	dest := filepath.Join(config.PathTemp, uuid.NewString()+"."+ext)
	size, err := utils.DownloadFile(b.http, rawURL, dest)
	if err != nil {
		return fmt.Errorf("could not download the file: %w", err)
	}
	defer utils.RemoveFile(dest)

	if config.MaxDownloadSize > 0 && size > config.MaxDownloadSize {
		return fmt.Errorf("file is too big: %s (limit %s)",
			humanize.Bytes(uint64(size)), humanize.Bytes(uint64(config.MaxDownloadSize)))
	}
	logrus.Infof("[BOT] Binary %s downloaded (%s)", rawURL, humanize.Bytes(uint64(size)))

	caption := resolveCaption(comment, filepath.Base(dest))
	switch mediaType {
	case mediagroup.TypePhoto:
		return b.uploadPhotos(chatID, []string{dest}, caption)
	case mediagroup.TypeVideo:
		return b.uploadVideo(ctx, chatID, dest, caption)
	case mediagroup.TypeAudio:
		cfg := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(dest))
		cfg.Caption = caption
		return b.uploadAndRemember(chatID, cfg, caption)
	case mediagroup.TypeAnimation:
		cfg := tgbotapi.NewAnimation(chatID, tgbotapi.FilePath(dest))
		cfg.Caption = caption
		return b.uploadAndRemember(chatID, cfg, caption)
	default:
		cfg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(dest))
		cfg.Caption = caption
		return b.uploadAndRemember(chatID, cfg, caption)
	}
}

// uploadVideo sube un video local con thumbnail generado por ffmpeg.
func (b *Bot) uploadVideo(ctx context.Context, chatID int64, path, caption string) error {
	cfg := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	cfg.Caption = caption
	cfg.SupportsStreaming = true

	thumbPath := path + ".thumb.jpg"
	if err := b.ffmpeg.Thumbnail(ctx, path, thumbPath); err == nil {
		cfg.Thumb = tgbotapi.FilePath(thumbPath)
		defer utils.RemoveFile(thumbPath)
	} else {
		logrus.WithError(err).Debugf("[BOT] Thumbnail for %s skipped", path)
	}

	if dur, err := b.ffmpeg.Duration(ctx, path); err == nil {
		cfg.Duration = int(dur)
	} else {
		logrus.WithError(err).Debugf("[BOT] Duration probe for %s skipped", path)
	}

	if fi, err := os.Stat(path); err == nil {
		logrus.Infof("[BOT] Uploading video %s (%s) to chat %d", filepath.Base(path), humanize.Bytes(uint64(fi.Size())), chatID)
	}

	return b.uploadAndRemember(chatID, cfg, caption)
}

// uploadPhotos sube imágenes locales, como álbum si hay más de una.
func (b *Bot) uploadPhotos(chatID int64, paths []string, caption string) error {
	if len(paths) == 1 {
		cfg := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(paths[0]))
		cfg.Caption = caption
		return b.uploadAndRemember(chatID, cfg, caption)
	}

	media := make([]interface{}, 0, len(paths))
	for i, p := range paths {
		item := tgbotapi.NewInputMediaPhoto(tgbotapi.FilePath(p))
		if i == 0 {
			item.Caption = caption
		}
		media = append(media, &item)
	}

	sent, err := b.api.SendMediaGroup(tgbotapi.MediaGroupConfig{
		ChatID: chatID,
		Media:  media,
	})
	if err != nil {
		return err
	}
	b.rememberSent(chatID, sent, caption)
	return nil
}

// uploadAndRemember envía un archivo local y registra los file IDs que
// respondió Telegram para reenvíos y ediciones posteriores.
func (b *Bot) uploadAndRemember(chatID int64, cfg tgbotapi.Chattable, caption string) error {
	sent, err := b.api.Send(cfg)
	if err != nil {
		return err
	}
	b.rememberSent(chatID, []tgbotapi.Message{sent}, caption)
	return nil
}

// rememberSent extrae los file IDs de mensajes ya enviados y los deja
// disponibles para /sendto y /edit.
func (b *Bot) rememberSent(chatID int64, sent []tgbotapi.Message, caption string) {
	var files []mediagroup.MediaFile
	for _, m := range sent {
		switch {
		case len(m.Photo) > 0:
			files = append(files, mediagroup.Photo(largestPhoto(m.Photo)))
		case m.Video != nil:
			files = append(files, mediagroup.Video(m.Video.FileID))
		case m.Audio != nil:
			files = append(files, mediagroup.Audio(m.Audio.FileID))
		case m.Animation != nil:
			files = append(files, mediagroup.Animation(m.Animation.FileID))
		case m.Document != nil:
			files = append(files, mediagroup.Document(m.Document.FileID))
		}
	}
	if len(files) == 0 {
		return
	}

	b.recent.Set(chatID, files, caption)
	b.delayer.SeedDispatched(chatID, files, caption)
}

// resolveCaption combina el comentario del usuario con el título de la
// fuente: "@" dentro del comentario se sustituye por el título.
func resolveCaption(comment, sourceTitle string) string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return sourceTitle
	}
	if strings.Contains(comment, "@") {
		return strings.ReplaceAll(comment, "@", sourceTitle)
	}
	return comment
}
