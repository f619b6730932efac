package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command with its Telegram menu description.
type Command struct {
	Name        string // Command name without slash (e.g., "start")
	Description string // Description shown in Telegram command menu
}

// botCommands is the single source of truth for the command menu.
var botCommands = []Command{
	{Name: "nueva", Description: "Empezar una conversación nueva"},
	{Name: "analizar", Description: "Analizar la foto pendiente"},
	{Name: "quitarfoto", Description: "Descartar la foto pendiente"},
	{Name: "atras", Description: "Volver al inicio"},
	{Name: "categoria", Description: "Elegir el tipo de planta"},
	{Name: "consejos", Description: "Consejos rápidos de cuidado"},
	{Name: "estado", Description: "Estado del servicio de análisis"},
	{Name: "version", Description: "Mostrar la versión"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}
