package bot

// Replies are sent with parse_mode=HTML, so literal angle brackets must be
// escaped.

// =============================================================================
// General messages
// =============================================================================

const (
	MsgWelcome = `
		🌿 <b>¡Hola! Soy tu asistente de cuidado de plantas.</b>

		📷 Envíame una foto de tu planta y la analizaré: especie, estado de salud y recomendaciones.
		💬 También puedes escribirme cualquier pregunta sobre cuidado de plantas.

		/categoria elige el tipo de planta
		/consejos muestra consejos rápidos
		/nueva empieza una conversación nueva`
	MsgWelcomeTextOnly = `
		🌿 <b>¡Hola! Soy tu asistente de cuidado de plantas.</b>

		💬 Escríbeme cualquier pregunta sobre cuidado de plantas.
		⚠️ El análisis de imágenes no está disponible en este momento.

		/categoria elige el tipo de planta
		/consejos muestra consejos rápidos
		/nueva empieza una conversación nueva`
	MsgNewConversation = "🌱 Conversación nueva. Envíame una foto o escribe tu pregunta."
	MsgUnexpectedErr   = "Error inesperado: %s"
	MsgVersionInfo     = "Versión: %s\nCompilado: %s"
	MsgOk              = "Ok!"
	MsgBack            = "Ok, volvamos al inicio. Envíame una foto o escribe tu pregunta."
)

// =============================================================================
// Image messages
// =============================================================================

const (
	MsgImageReceived   = "📷 Foto recibida. Escribe algo sobre tu planta (por ejemplo cómo la riegas) o usa /analizar para analizarla ahora.\n\n/quitarfoto descarta la foto"
	MsgImageReplaced   = "📷 Foto reemplazada. Usa /analizar para analizarla."
	MsgImageRemoved    = "🗑 Foto descartada."
	MsgNoPendingImage  = "No hay ninguna foto pendiente. Envíame una foto de tu planta primero."
	MsgImageDownload   = "No pude descargar la foto. Inténtalo de nuevo."
	MsgAnalyzingImage  = "🔍 Analizando tu planta..."
	MsgThinking        = "🌱 Pensando..."
	MsgUnsupportedFile = "Solo puedo analizar imágenes. Envía la foto como imagen o como archivo JPG/PNG."
)

// =============================================================================
// Category and tips messages
// =============================================================================

const (
	MsgSelectCategory   = "¿Qué tipo de planta tienes?"
	MsgCategorySelected = "Categoría: <b>%s %s</b>\n\n/consejos muestra los consejos de esta categoría"
	MsgTipsHeader       = "%s <b>Consejos: %s</b>"
)

// =============================================================================
// Backend status messages
// =============================================================================

const (
	MsgStatusHeader      = "<b>Estado del servicio</b>"
	MsgStatusReachable   = "Backend: ✅ conectado (%s)"
	MsgStatusUnreachable = "Backend: ❌ sin conexión (%s)"
	MsgStatusImage       = "Análisis de imágenes: %s"
	MsgStatusChat        = "Chat: %s"
	MsgStatusLLM         = "Modelo de lenguaje: %s"
	MsgStatusCheckedAt   = "Última comprobación: %s"
	MsgStatusNeverPolled = "Última comprobación: todavía no"
	MsgAvailable         = "✅ disponible"
	MsgUnavailable       = "❌ no disponible"
)

// =============================================================================
// Admin command messages
// =============================================================================

const (
	MsgAdminUsage           = "Uso:\n<code>/admin users add &lt;user_id&gt;</code>\n<code>/admin users remove &lt;user_id&gt;</code>\n<code>/admin users list</code>"
	MsgAdminUserAddUsage    = "Uso: <code>/admin users add &lt;user_id&gt;</code>"
	MsgAdminUserRemoveUsage = "Uso: <code>/admin users remove &lt;user_id&gt;</code>"
	MsgAdminUserInvalidID   = "ID de usuario inválido. Escribe un número."
	MsgAdminUserAdded       = "✅ Usuario <code>%d</code> añadido."
	MsgAdminUserRemoved     = "🗑 Usuario <code>%d</code> eliminado."
	MsgAdminNoUsers         = "No hay usuarios permitidos."
	MsgAdminAllowedUsers    = "<b>Usuarios permitidos:</b>\n"
	MsgAdminAllowedUserFmt  = "• <code>%d</code> (añadido %s)\n"
)
