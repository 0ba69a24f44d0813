package error

// GenericError es el contrato común de los errores de la aplicación
// para que la capa REST pueda traducirlos a respuestas HTTP.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}
