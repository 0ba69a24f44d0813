package utils

// ResponseData es el envelope estándar de las respuestas REST.
type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded lanza panic con el error para que lo capture el
// middleware de recovery y lo traduzca a una respuesta HTTP.
func PanicIfNeeded(err any) {
	if err != nil {
		panic(err)
	}
}
