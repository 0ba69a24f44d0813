package recentmedia

import (
	"sync"
	"time"

	"github.com/AzielCF/az-mediaext/pkg/mediagroup"
)

// Entry es el último envío multimedia registrado para un chat.
type Entry struct {
	Files   []mediagroup.MediaFile `json:"files"`
	Caption string                 `json:"caption"`
	SentAt  time.Time              `json:"sent_at"`
}

// Cache guarda en memoria el último medio enviado por cada chat para
// poder reenviarlo o reeditarlo después. Las entradas caducan pasado
// el TTL; se limpian de forma perezosa al consultarlas.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]Entry
	ttl     time.Duration
}

// NewCache crea un cache con el TTL indicado. Un TTL <= 0 usa 24h.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		entries: make(map[int64]Entry),
		ttl:     ttl,
	}
}

// Set registra el último envío de un chat, reemplazando el anterior.
func (c *Cache) Set(chatID int64, files []mediagroup.MediaFile, caption string) {
	if len(files) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[chatID] = Entry{
		Files:   append([]mediagroup.MediaFile(nil), files...),
		Caption: caption,
		SentAt:  time.Now(),
	}
}

// Get devuelve el último envío del chat si no ha caducado.
func (c *Cache) Get(chatID int64) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[chatID]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}

	if time.Since(entry.SentAt) > c.ttl {
		c.mu.Lock()
		// Re-chequear: otro goroutine pudo reemplazar la entrada
		if cur, still := c.entries[chatID]; still && cur.SentAt.Equal(entry.SentAt) {
			delete(c.entries, chatID)
		}
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

// Len devuelve cuántos chats tienen un envío registrado.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
