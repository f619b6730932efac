package session

import (
	"errors"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
)

const (
	MsgEmptySend       = "Por favor escribe un mensaje o sube una imagen"
	MsgInvalidImage    = "Por favor selecciona una imagen válida"
	MsgUnknownCategory = "Categoría desconocida"

	MsgImageUnavailable = "⚠️ El análisis de imágenes no está disponible en este momento. Por favor, usa el chat de texto para hacer preguntas sobre cuidado de plantas."
	MsgQuota            = "⚠️ Se ha agotado la cuota del servicio de IA. El sistema ahora funciona usando solo la base de conocimiento. Puedes seguir haciendo preguntas sobre cuidado de plantas y recibirás respuestas basadas en los documentos disponibles."
	MsgChatNotFound     = "El endpoint de chat aún no está disponible en el backend. Por favor sube una imagen de tu planta para analizarla, o contacta al administrador para habilitar el chat con RAG."

	msgAnalyzeFailed = "Lo siento, hubo un error al analizar la planta. Por favor verifica que el backend esté corriendo en "
	msgChatFailed    = "Lo siento, hubo un error al procesar tu pregunta. El sistema intentará usar solo la base de conocimiento. Por favor verifica que el backend esté corriendo en "

	CategorySelectedPrefix = "Categoría seleccionada: "
)

// ErrorMessage returns the user-facing text for a failed operation. kind is
// the request that failed and baseURL the configured backend address.
func ErrorMessage(err error, kind RequestKind, baseURL string) string {
	if errors.Is(err, ErrImageAnalysisUnavailable) {
		return MsgImageUnavailable
	}

	switch plantapi.KindOf(err) {
	case plantapi.KindValidation:
		if msg := plantapi.MessageOf(err); msg != "" {
			return msg
		}
		return MsgEmptySend
	case plantapi.KindCapabilityUnavailable:
		if kind != RequestAnalyze {
			break
		}
		if msg := plantapi.MessageOf(err); msg != "" {
			return "⚠️ " + msg
		}
		return MsgImageUnavailable
	case plantapi.KindQuota:
		return MsgQuota
	case plantapi.KindNotFound:
		if kind == RequestChat {
			return MsgChatNotFound
		}
	}

	if kind == RequestAnalyze {
		return msgAnalyzeFailed + baseURL
	}
	return msgChatFailed + baseURL
}
