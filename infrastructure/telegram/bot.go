package telegram

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AzielCF/az-mediaext/config"
	"github.com/AzielCF/az-mediaext/integrations/twitter"
	"github.com/AzielCF/az-mediaext/integrations/ytdlp"
	pkgError "github.com/AzielCF/az-mediaext/pkg/error"
	"github.com/AzielCF/az-mediaext/pkg/ffmpeg"
	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
	"github.com/AzielCF/az-mediaext/pkg/msgworker"
	"github.com/AzielCF/az-mediaext/pkg/recentmedia"
	"github.com/AzielCF/az-mediaext/pkg/usersession"
	"github.com/AzielCF/az-mediaext/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// apiSender es el subconjunto de *tgbotapi.BotAPI que usa el bot.
// Permite sustituir el transporte en los tests.
type apiSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	SendMediaGroup(cfg tgbotapi.MediaGroupConfig) ([]tgbotapi.Message, error)
}

// chatRef identifica un chat destino: por ID numérico o por username
// de canal (@canal).
type chatRef struct {
	id       int64
	username string
}

func (c chatRef) base() tgbotapi.BaseChat {
	return tgbotapi.BaseChat{ChatID: c.id, ChannelUsername: c.username}
}

// parseChatRef interpreta un destino persistido como string.
func parseChatRef(raw string) chatRef {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "@") {
		return chatRef{username: raw}
	}
	id, _ := strconv.ParseInt(raw, 10, 64)
	return chatRef{id: id}
}

// Bot es el front-end de Telegram: recibe updates, agrupa medios con el
// Delayer y despacha descargas pesadas al worker pool.
type Bot struct {
	api      apiSender
	raw      *tgbotapi.BotAPI
	delayer  *mediagroup.Delayer
	sessions *usersession.Registry
	recent   *recentmedia.Cache
	pool     *msgworker.MessageWorkerPool
	store    *storage.UserStore
	twitter  *twitter.Helper
	ytdl     *ytdlp.Helper
	ffmpeg   *ffmpeg.Utils
	http     *http.Client

	adminID   int64
	allowAnon bool
	accessMu  sync.RWMutex
	allowed   map[int64]bool
	banned    map[int64]bool
}

// Deps agrupa las dependencias inyectadas del bot.
type Deps struct {
	Pool    *msgworker.MessageWorkerPool
	Store   *storage.UserStore
	Twitter *twitter.Helper
	Ytdl    *ytdlp.Helper
	Ffmpeg  *ffmpeg.Utils
}

// NewBot construye el bot y arma su Delayer y registro de sesiones
// propios; no hay estado compartido entre instancias.
func NewBot(api *tgbotapi.BotAPI, deps Deps) *Bot {
	b := &Bot{
		api:     api,
		raw:     api,
		pool:    deps.Pool,
		store:   deps.Store,
		twitter: deps.Twitter,
		ytdl:    deps.Ytdl,
		ffmpeg:  deps.Ffmpeg,
		http:    &http.Client{Timeout: 60 * time.Second},
		allowed: make(map[int64]bool),
		banned:  make(map[int64]bool),
	}

	b.delayer = mediagroup.NewDelayer(
		time.Duration(config.MediaGroupDebounceMs)*time.Millisecond,
		time.Duration(config.MediaGroupTimeoutMs)*time.Millisecond,
		b.deliverGroup,
	)
	b.delayer.OnError = func(chatID int64, err error) {
		b.SendMessage(chatID, "❌ Could not send the media group: "+err.Error())
		b.alertAdmin("Media group delivery failed for chat " + strconv.FormatInt(chatID, 10) + ": " + err.Error())
	}

	b.sessions = usersession.NewRegistry(time.Duration(config.CaptionFreshnessMs) * time.Millisecond)
	b.recent = recentmedia.NewCache(0)

	return b
}

// LoadAccess carga las listas de acceso desde el almacenamiento.
func (b *Bot) LoadAccess(ctx context.Context) error {
	if err := b.store.Seed(ctx, config.AllowedUserIDs, config.BannedUserIDs); err != nil {
		return err
	}

	allowed, err := b.store.AllowedIDs(ctx)
	if err != nil {
		return err
	}
	banned, err := b.store.BannedIDs(ctx)
	if err != nil {
		return err
	}
	allowAnon, err := b.store.AllowAnonymous(ctx, config.AllowAnonymous)
	if err != nil {
		return err
	}

	b.accessMu.Lock()
	b.allowed = make(map[int64]bool, len(allowed))
	for _, id := range allowed {
		b.allowed[id] = true
	}
	b.banned = make(map[int64]bool, len(banned))
	for _, id := range banned {
		b.banned[id] = true
	}
	b.allowAnon = allowAnon
	b.accessMu.Unlock()

	// El primer permitido actúa como administrador
	if len(allowed) > 0 {
		b.adminID = allowed[0]
	} else {
		b.adminID = config.AdminID()
	}

	logrus.Infof("[BOT] Access loaded: %d allowed, %d banned, anonymous=%v", len(allowed), len(banned), allowAnon)
	return nil
}

// Run consume updates por long polling hasta que el contexto se cancele.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.LoadAccess(ctx); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.raw.GetUpdatesChan(u)

	logrus.Infof("[BOT] %s started, waiting for updates", b.raw.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.raw.StopReceivingUpdates()
			logrus.Info("[BOT] Update loop stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// Delayer expone el motor de agrupación para el endpoint de monitoreo.
func (b *Bot) Delayer() *mediagroup.Delayer {
	return b.delayer
}

// SendMessage envía texto plano, partiéndolo si supera el límite de
// Telegram. Los errores se loguean, no se propagan.
func (b *Bot) SendMessage(chatID int64, text string) {
	for _, part := range splitMessage(text, config.MaxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := b.api.Send(msg); err != nil {
			logrus.WithError(err).Errorf("[BOT] Send message to %d failed", chatID)
		}
	}
}

// sendWithKeyboard envía texto con un reply keyboard adjunto.
func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		logrus.WithError(err).Errorf("[BOT] Send keyboard to %d failed", chatID)
	}
}

func (b *Bot) alertAdmin(text string) {
	if b.adminID == 0 {
		return
	}
	b.SendMessage(b.adminID, "⚠️ "+text)
}

// deliverGroup es el handler del Delayer: entrega el lote asentado al
// chat de origen y lo registra como último envío.
func (b *Bot) deliverGroup(group mediagroup.Group) error {
	if err := b.sendFiles(chatRef{id: group.ChatID}, group.Files, group.Caption); err != nil {
		return err
	}
	b.recent.Set(group.ChatID, group.Files, group.Caption)
	return nil
}

// sendFiles entrega archivos a un chat. Fotos y videos comparten
// álbumes; audios y documentos van en álbumes propios; las animaciones
// solo pueden ir de a una.
func (b *Bot) sendFiles(dest chatRef, files []mediagroup.MediaFile, caption string) error {
	var visual, audios, docs, anims []mediagroup.MediaFile
	for _, f := range files {
		switch f.Type {
		case mediagroup.TypePhoto, mediagroup.TypeVideo:
			visual = append(visual, f)
		case mediagroup.TypeAudio:
			audios = append(audios, f)
		case mediagroup.TypeDocument:
			docs = append(docs, f)
		case mediagroup.TypeAnimation:
			anims = append(anims, f)
		}
	}

	// El caption viaja en el primer lote que salga
	captionPending := caption

	for _, batch := range [][]mediagroup.MediaFile{visual, audios, docs} {
		if len(batch) == 0 {
			continue
		}
		if err := b.sendAlbums(dest, batch, &captionPending); err != nil {
			return err
		}
	}

	for _, anim := range anims {
		cfg := tgbotapi.NewAnimation(0, tgbotapi.FileID(anim.FileID))
		cfg.BaseChat = dest.base()
		cfg.Caption = takeCaption(&captionPending)
		if _, err := b.api.Send(cfg); err != nil {
			return err
		}
	}
	return nil
}

// sendAlbums parte un lote homogéneo en álbumes de hasta 10 elementos.
func (b *Bot) sendAlbums(dest chatRef, files []mediagroup.MediaFile, captionPending *string) error {
	const albumMax = 10

	for start := 0; start < len(files); start += albumMax {
		end := start + albumMax
		if end > len(files) {
			end = len(files)
		}
		chunk := files[start:end]

		if len(chunk) == 1 {
			if err := b.sendSingle(dest, chunk[0], takeCaption(captionPending)); err != nil {
				return err
			}
			continue
		}

		media := make([]interface{}, 0, len(chunk))
		for i, f := range chunk {
			item := inputMediaFor(f)
			if i == 0 {
				setInputCaption(item, takeCaption(captionPending))
			}
			media = append(media, item)
		}

		cfg := tgbotapi.MediaGroupConfig{
			ChatID:          dest.id,
			ChannelUsername: dest.username,
			Media:           media,
		}
		if _, err := b.api.SendMediaGroup(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendSingle(dest chatRef, file mediagroup.MediaFile, caption string) error {
	var cfg tgbotapi.Chattable

	switch file.Type {
	case mediagroup.TypePhoto:
		c := tgbotapi.NewPhoto(0, tgbotapi.FileID(file.FileID))
		c.BaseChat = dest.base()
		c.Caption = caption
		cfg = c
	case mediagroup.TypeVideo:
		c := tgbotapi.NewVideo(0, tgbotapi.FileID(file.FileID))
		c.BaseChat = dest.base()
		c.Caption = caption
		cfg = c
	case mediagroup.TypeAudio:
		c := tgbotapi.NewAudio(0, tgbotapi.FileID(file.FileID))
		c.BaseChat = dest.base()
		c.Caption = caption
		cfg = c
	case mediagroup.TypeAnimation:
		c := tgbotapi.NewAnimation(0, tgbotapi.FileID(file.FileID))
		c.BaseChat = dest.base()
		c.Caption = caption
		cfg = c
	default:
		c := tgbotapi.NewDocument(0, tgbotapi.FileID(file.FileID))
		c.BaseChat = dest.base()
		c.Caption = caption
		cfg = c
	}

	_, err := b.api.Send(cfg)
	return err
}

func inputMediaFor(f mediagroup.MediaFile) interface{} {
	switch f.Type {
	case mediagroup.TypeVideo:
		m := tgbotapi.NewInputMediaVideo(tgbotapi.FileID(f.FileID))
		return &m
	case mediagroup.TypeAudio:
		m := tgbotapi.NewInputMediaAudio(tgbotapi.FileID(f.FileID))
		return &m
	case mediagroup.TypeDocument:
		m := tgbotapi.NewInputMediaDocument(tgbotapi.FileID(f.FileID))
		return &m
	default:
		m := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(f.FileID))
		return &m
	}
}

func setInputCaption(item interface{}, caption string) {
	switch m := item.(type) {
	case *tgbotapi.InputMediaPhoto:
		m.Caption = caption
	case *tgbotapi.InputMediaVideo:
		m.Caption = caption
	case *tgbotapi.InputMediaAudio:
		m.Caption = caption
	case *tgbotapi.InputMediaDocument:
		m.Caption = caption
	}
}

// takeCaption consume el caption pendiente: solo el primer envío lo lleva.
func takeCaption(pending *string) string {
	c := *pending
	*pending = ""
	return c
}

// ResendRecentMedia reenvía el último medio del usuario a otro chat.
// Implementa usersession.API.
func (b *Bot) ResendRecentMedia(userID int64, destChatID string) error {
	entry, ok := b.recent.Get(userID)
	if !ok {
		return pkgError.NotFoundError("no recent media for user")
	}
	return b.sendFiles(parseChatRef(destChatID), entry.Files, entry.Caption)
}

// EditLastCaption reabre el último lote del usuario con un caption
// nuevo. Implementa usersession.API.
func (b *Bot) EditLastCaption(userID int64, caption string) error {
	if !b.delayer.ResendWithCaption(userID, caption) {
		return pkgError.NotFoundError("no recent media to edit")
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = 4096
	}
	if text == "" {
		return nil
	}

	var parts []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		// Preferir cortar en un salto de línea cercano
		for i := limit - 1; i > limit-200 && i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	parts = append(parts, string(runes))
	return parts
}
