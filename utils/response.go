package utils

// APIResponse es el formato JSON estándar que recibe el frontend.
// Éxito : { "status": true,  "message": "Reporte generado", "data": { ... } }
// Error : { "status": false, "message": "No autorizado",   "errors": "..." }
type APIResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// BuildResponseSuccess se usa cuando la petición fue exitosa (200/201).
func BuildResponseSuccess(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  true,
		Message: message,
		Data:    data,
	}
}

// BuildResponseFailed se usa ante errores (400, 401, 403, 404, 500).
// err puede ser un string o un mapa con detalle por campo.
func BuildResponseFailed(message string, err interface{}, data interface{}) APIResponse {
	return APIResponse{
		Status:  false,
		Message: message,
		Errors:  err,
		Data:    data,
	}
}
