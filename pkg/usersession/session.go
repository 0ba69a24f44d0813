package usersession

import (
	"strings"
	"sync"
	"time"
)

// Registry guarda las sesiones por usuario. Es una dependencia
// inyectada, no estado global: cada bot posee su propio Registry.
type Registry struct {
	mu        sync.Mutex
	sessions  map[int64]*Session
	freshness time.Duration
}

// NewRegistry crea un registro de sesiones. freshness es la ventana en
// la que el último texto del usuario puede prestarse como caption.
func NewRegistry(freshness time.Duration) *Registry {
	if freshness <= 0 {
		freshness = time.Second
	}
	return &Registry{
		sessions:  make(map[int64]*Session),
		freshness: freshness,
	}
}

// Get devuelve la sesión del usuario, creándola si no existe.
func (r *Registry) Get(userID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{freshness: r.freshness}
		r.sessions[userID] = s
	}
	return s
}

// Session es el estado conversacional de un usuario: su último mensaje
// de texto y, si hay un comando de varios pasos en curso, ese comando.
type Session struct {
	mu        sync.Mutex
	lastText  string
	lastAt    time.Time
	freshness time.Duration
	command   Command
}

// RememberText registra el último texto enviado por el usuario.
func (s *Session) RememberText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastText = text
	s.lastAt = time.Now()
}

// RecentText devuelve el último texto si todavía está dentro de la
// ventana de frescura; si no, cadena vacía. Permite que un texto
// enviado justo antes de un archivo se convierta en su caption.
func (s *Session) RecentText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(s.lastText) == "" {
		return ""
	}
	if time.Since(s.lastAt) > s.freshness {
		return ""
	}
	return s.lastText
}

// SetCommand activa un comando de varios pasos. Si había otro activo,
// se reemplaza sin ejecutarse.
func (s *Session) SetCommand(c Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.command = c
}

// ActiveCommand indica si hay un comando esperando el siguiente mensaje.
func (s *Session) ActiveCommand() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.command != nil
}

// Consume entrega el siguiente mensaje al comando activo. Devuelve true
// si el mensaje fue consumido por un comando. El comando se desactiva
// salvo que pida seguir activo.
func (s *Session) Consume(text string) bool {
	s.mu.Lock()
	cmd := s.command
	s.mu.Unlock()

	if cmd == nil {
		return false
	}

	keep := cmd.Execute(text)

	s.mu.Lock()
	// Solo limpiar si nadie activó otro comando mientras tanto
	if s.command == cmd && !keep {
		s.command = nil
	}
	s.mu.Unlock()
	return true
}
