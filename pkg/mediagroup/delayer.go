package mediagroup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler recibe un grupo listo para entregarse. Se invoca fuera de la
// sección crítica del Delayer, así que puede hacer I/O sin bloquear a
// otros chats.
type Handler func(group Group) error

// DelayerStats contiene métricas en tiempo real del Delayer.
type DelayerStats struct {
	PendingGroups   int   `json:"pending_groups"`
	TotalDispatched int64 `json:"total_dispatched"`
	TotalErrors     int64 `json:"total_errors"`
}

// Delayer acumula archivos por chat y retrasa la entrega hasta que la
// ráfaga se asienta: cada mutación reinicia la ventana de debounce y el
// grupo solo se entrega cuando lleva esa ventana sin cambios.
//
// Los timers nunca se cancelan. Cada mutación programa una re-revisión;
// cuando dispara, o el grupo ya se asentó y se entrega, o hubo una
// mutación más reciente y se reprograma. Un grupo se entrega a lo sumo
// una vez por "apertura": marcarlo como enviado ocurre dentro del lock,
// antes de invocar el handler.
type Delayer struct {
	debounce        time.Duration
	groupingTimeout time.Duration
	handler         Handler

	mu     sync.Mutex
	groups map[int64]Group

	totalDispatched int64
	totalErrors     int64

	// OnError se invoca cuando el handler falla. Opcional.
	OnError func(chatID int64, err error)
}

// NewDelayer crea un Delayer. debounce es la ventana de asentamiento y
// groupingTimeout la edad máxima de un grupo ya despachado antes de que
// un archivo nuevo arranque un grupo fresco.
func NewDelayer(debounce, groupingTimeout time.Duration, handler Handler) *Delayer {
	if debounce <= 0 {
		debounce = time.Second
	}
	if groupingTimeout <= 0 {
		groupingTimeout = 5 * time.Second
	}
	return &Delayer{
		debounce:        debounce,
		groupingTimeout: groupingTimeout,
		handler:         handler,
		groups:          make(map[int64]Group),
	}
}

// AddMedia agrega un archivo al grupo pendiente del chat y programa la
// entrega diferida. El comentario siembra el caption del grupo solo si
// aún no tiene uno.
func (d *Delayer) AddMedia(chatID int64, file MediaFile, comment string) {
	now := time.Now()

	d.mu.Lock()
	group := d.actualGroupLocked(chatID, now)
	group = group.WithMedia(file, comment, now)
	d.groups[chatID] = group
	d.mu.Unlock()

	d.scheduleCheck(chatID, d.debounce)
}

// SetCaption sobreescribe el caption del grupo vivo del chat. Si no hay
// grupo pendiente sin despachar, no hace nada y devuelve false.
func (d *Delayer) SetCaption(chatID int64, caption string) bool {
	now := time.Now()

	d.mu.Lock()
	group, ok := d.groups[chatID]
	if !ok || group.Sent || group.IsEmpty() {
		d.mu.Unlock()
		return false
	}
	d.groups[chatID] = group.WithCaption(caption, now)
	d.mu.Unlock()

	d.scheduleCheck(chatID, d.debounce)
	return true
}

// ResendWithCaption reabre el grupo más reciente del chat, aunque ya se
// haya despachado, con un caption nuevo y lo entrega de inmediato.
// Devuelve false si el chat no tiene ningún grupo con contenido.
func (d *Delayer) ResendWithCaption(chatID int64, caption string) bool {
	now := time.Now()

	d.mu.Lock()
	group, ok := d.groups[chatID]
	if !ok || group.IsEmpty() {
		d.mu.Unlock()
		return false
	}
	d.groups[chatID] = group.WithCaption(caption, now)
	d.mu.Unlock()

	d.scheduleCheck(chatID, 0)
	return true
}

// HasMedia indica si el chat tiene un grupo con contenido que todavía
// está dentro de la ventana de agrupación.
func (d *Delayer) HasMedia(chatID int64) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	group, ok := d.groups[chatID]
	return ok && !group.IsEmpty() && !group.IsExpired(d.groupingTimeout, now)
}

// SeedDispatched reemplaza el grupo del chat por uno ya marcado como
// entregado con esos archivos. Sirve para que medios enviados por otra
// vía (subida directa de archivos) queden disponibles para reenvíos y
// ediciones de caption posteriores.
func (d *Delayer) SeedDispatched(chatID int64, files []MediaFile, caption string) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(files) == 0 {
		delete(d.groups, chatID)
		return
	}
	group := NewGroup(chatID, now)
	group.Files = append([]MediaFile(nil), files...)
	group.Caption = caption
	d.groups[chatID] = group.markSent()
}

// GetStats retorna métricas en tiempo real del Delayer.
func (d *Delayer) GetStats() DelayerStats {
	d.mu.Lock()
	pending := 0
	for _, g := range d.groups {
		if !g.Sent && !g.IsEmpty() {
			pending++
		}
	}
	d.mu.Unlock()

	return DelayerStats{
		PendingGroups:   pending,
		TotalDispatched: atomic.LoadInt64(&d.totalDispatched),
		TotalErrors:     atomic.LoadInt64(&d.totalErrors),
	}
}

// actualGroupLocked devuelve el grupo vigente del chat. Un grupo ya
// despachado y más viejo que groupingTimeout se descarta: el archivo
// entrante pertenece a una ráfaga nueva.
func (d *Delayer) actualGroupLocked(chatID int64, now time.Time) Group {
	group, ok := d.groups[chatID]
	if !ok {
		return NewGroup(chatID, now)
	}
	if group.Sent && group.IsExpired(d.groupingTimeout, now) {
		return NewGroup(chatID, now)
	}
	return group
}

// scheduleCheck programa una re-revisión. La misma ventana se usa para
// dormir y para decidir si el grupo ya se asentó: la entrega inmediata
// de un reenvío pasa ventana cero.
func (d *Delayer) scheduleCheck(chatID int64, window time.Duration) {
	time.AfterFunc(window, func() {
		d.check(chatID, window)
	})
}

// check decide si el grupo ya se asentó. Si la última mutación es más
// reciente que la ventana, reprograma y lo intenta después.
func (d *Delayer) check(chatID int64, window time.Duration) {
	now := time.Now()

	d.mu.Lock()
	group, ok := d.groups[chatID]
	if !ok {
		d.mu.Unlock()
		return
	}
	if group.IsEmpty() {
		// Expiró sin contenido, no hay nada que entregar.
		delete(d.groups, chatID)
		d.mu.Unlock()
		return
	}
	if !group.IsExpired(window, now) {
		d.mu.Unlock()
		if !group.Sent {
			d.scheduleCheck(chatID, window)
		}
		return
	}
	if group.Sent {
		// Timer rezagado de una apertura ya entregada.
		logrus.Debugf("[MEDIA_GROUP] Chat %d group already dispatched, skipping", chatID)
		d.mu.Unlock()
		return
	}
	dispatched := group.markSent()
	d.groups[chatID] = dispatched
	d.mu.Unlock()

	atomic.AddInt64(&d.totalDispatched, 1)
	logrus.Debugf("[MEDIA_GROUP] Dispatching group for chat %d (%d files)", chatID, len(dispatched.Files))

	if err := d.handler(dispatched); err != nil {
		atomic.AddInt64(&d.totalErrors, 1)
		logrus.WithError(err).Errorf("[MEDIA_GROUP] Handler failed for chat %d", chatID)
		if d.OnError != nil {
			d.OnError(chatID, err)
		}
	}
}
