package mediagroup

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchRecorder struct {
	mu     sync.Mutex
	groups []Group
}

func (r *dispatchRecorder) handler(g Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, g)
	return nil
}

func (r *dispatchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups)
}

func (r *dispatchRecorder) last() Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groups[len(r.groups)-1]
}

// Test 1: una ráfaga de archivos más rápida que el debounce debe
// entregarse como un solo grupo con todos los archivos.
func TestDelayer_RafagaSeEntregaComoUnGrupo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(60*time.Millisecond, 300*time.Millisecond, rec.handler)

	d.AddMedia(1, Photo("A"), "leyenda")
	time.Sleep(20 * time.Millisecond)
	d.AddMedia(1, Photo("B"), "")
	time.Sleep(20 * time.Millisecond)
	d.AddMedia(1, Video("C"), "")

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	// Nada más debe llegar aunque pase el tiempo
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, 1, rec.count())

	got := rec.last()
	assert.Len(t, got.Files, 3)
	assert.Equal(t, "leyenda", got.Caption)
	assert.True(t, got.Sent)
}

// Test 2: un archivo que llega tras la entrega pero dentro de la
// ventana de agrupación reabre el grupo; la segunda entrega incluye
// todos los archivos acumulados.
func TestDelayer_ArchivoTardioReabreElGrupo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(50*time.Millisecond, 400*time.Millisecond, rec.handler)

	d.AddMedia(7, Photo("A"), "")
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	d.AddMedia(7, Photo("B"), "")
	assert.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 10*time.Millisecond)

	assert.Len(t, rec.last().Files, 2)
}

// Test 3: pasada la ventana de agrupación, un archivo nuevo arranca un
// grupo fresco sin los archivos anteriores.
func TestDelayer_GrupoVencidoArrancaUnoNuevo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(40*time.Millisecond, 120*time.Millisecond, rec.handler)

	d.AddMedia(7, Photo("A"), "vieja")
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond) // superar groupingTimeout

	d.AddMedia(7, Photo("B"), "nueva")
	assert.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 10*time.Millisecond)

	got := rec.last()
	require.Len(t, got.Files, 1)
	assert.Equal(t, "B", got.Files[0].FileID)
	assert.Equal(t, "nueva", got.Caption)
}

// Test 4: SetCaption sobreescribe el caption pendiente; gana la última
// escritura antes de la entrega.
func TestDelayer_SetCaptionUltimaEscrituraGana(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(60*time.Millisecond, 300*time.Millisecond, rec.handler)

	d.AddMedia(3, Photo("A"), "sembrado")
	require.True(t, d.SetCaption(3, "primero"))
	require.True(t, d.SetCaption(3, "segundo"))

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "segundo", rec.last().Caption)
}

// Test 5: SetCaption sin grupo vivo no hace nada.
func TestDelayer_SetCaptionSinGrupoVivo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(40*time.Millisecond, 300*time.Millisecond, rec.handler)

	assert.False(t, d.SetCaption(9, "nada"))

	d.AddMedia(9, Photo("A"), "")
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	// El grupo ya se despachó: el caption no debe aplicarse ni reenviar
	assert.False(t, d.SetCaption(9, "tarde"))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

// Test 6: ResendWithCaption reenvía el grupo ya entregado con el
// caption nuevo, sin esperar el debounce.
func TestDelayer_ResendConCaptionNuevo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(50*time.Millisecond, 5*time.Second, rec.handler)

	d.AddMedia(4, Video("V"), "original")
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)

	start := time.Now()
	require.True(t, d.ResendWithCaption(4, "corregido"))
	assert.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "el reenvío no debe esperar el debounce")

	got := rec.last()
	assert.Equal(t, "corregido", got.Caption)
	assert.Equal(t, []MediaFile{Video("V")}, got.Files)
}

func TestDelayer_ResendSinGrupo(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(40*time.Millisecond, time.Second, rec.handler)

	assert.False(t, d.ResendWithCaption(99, "nada"))
}

// Test 7: muchas mutaciones concurrentes sobre el mismo chat producen
// exactamente una entrega con todos los archivos.
func TestDelayer_SinDobleEntrega(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(80*time.Millisecond, time.Second, rec.handler)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			d.AddMedia(5, Photo(string(rune('A'+n))), "")
		}(i)
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	require.Equal(t, 1, rec.count(), "el grupo debe entregarse exactamente una vez")
	assert.Len(t, rec.last().Files, 20)
}

func TestDelayer_HasMedia(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(30*time.Millisecond, 100*time.Millisecond, rec.handler)

	assert.False(t, d.HasMedia(2))

	d.AddMedia(2, Photo("A"), "")
	assert.True(t, d.HasMedia(2))

	// Despachado pero dentro de la ventana de agrupación: sigue contando
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, d.HasMedia(2))

	time.Sleep(150 * time.Millisecond)
	assert.False(t, d.HasMedia(2), "pasada la ventana el grupo ya no cuenta")
}

// Test 8: un handler que falla reporta por OnError y no reintenta.
func TestDelayer_HandlerConErrorNoReintenta(t *testing.T) {
	var calls int
	var errChat int64
	var mu sync.Mutex

	d := NewDelayer(40*time.Millisecond, time.Second, func(g Group) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("telegram caído")
	})
	d.OnError = func(chatID int64, err error) {
		mu.Lock()
		errChat = chatID
		mu.Unlock()
	}

	d.AddMedia(6, Photo("A"), "")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1 && errChat == 6
	}, time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls, "no debe reintentar tras el error")
	mu.Unlock()

	stats := d.GetStats()
	assert.Equal(t, int64(1), stats.TotalDispatched)
	assert.Equal(t, int64(1), stats.TotalErrors)
}

func TestDelayer_SeedDispatchedPermiteReenvio(t *testing.T) {
	rec := &dispatchRecorder{}
	d := NewDelayer(40*time.Millisecond, time.Minute, rec.handler)

	d.SeedDispatched(8, []MediaFile{Document("D")}, "manual")
	assert.Equal(t, 0, rec.count(), "sembrar no debe entregar nada")

	require.True(t, d.ResendWithCaption(8, "editado"))
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "editado", rec.last().Caption)
}
