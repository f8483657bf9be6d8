package utils

import "github.com/gin-gonic/gin"

const FlashCookie = "ppda_flash"

// SetFlash deja un mensaje para la siguiente respuesta del cliente.
// gin escapa el valor de la cookie al escribirla y lo des-escapa al leerla.
func SetFlash(c *gin.Context, mensaje string) {
	c.SetCookie(FlashCookie, mensaje, 60, "/", "", false, true)
}

// PopFlash lee y consume el mensaje pendiente. Retorna "" si no hay.
func PopFlash(c *gin.Context) string {
	msg, err := c.Cookie(FlashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(FlashCookie, "", -1, "/", "", false, true)
	return msg
}
