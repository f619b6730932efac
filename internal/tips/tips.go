// Package tips holds the static care tips shown for each plant category.
package tips

import "strings"

// Tip is a single care tip. Icon is a Font Awesome class used by the web
// UI; Emoji stands in for it on text front-ends.
type Tip struct {
	Icon        string
	Emoji       string
	Title       string
	Description string
}

// Category groups tips under a key such as "Succulents". Label is the
// Spanish name shown to users.
type Category struct {
	Key   string
	Label string
	Emoji string
	Tips  []Tip
}

const DefaultCategory = "General"

var categories = []Category{
	{
		Key: "General", Label: "General", Emoji: "🌱",
		Tips: []Tip{
			{"fa-droplet", "💧", "Riego Inteligente", "La mayoría de plantas mueren por exceso de agua. Revisa siempre los primeros 2cm de tierra antes de regar."},
			{"fa-sun", "☀️", "Luz Indirecta", "El sol directo a través de ventanas puede quemar las hojas. Usa cortinas difusoras o mueve la planta."},
			{"fa-scissors", "✂️", "Poda Regular", "Retira hojas amarillas y muertas para redirigir energía al nuevo crecimiento."},
			{"fa-thermometer-half", "🌡️", "Temperatura", "La mayoría de plantas de interior prefieren temperaturas entre 18-24°C."},
		},
	},
	{
		Key: "Tropical", Label: "Tropicales", Emoji: "🌴",
		Tips: []Tip{
			{"fa-droplet", "💧", "Alta Humedad", "Las plantas tropicales necesitan humedad alta. Usa un humidificador o bandeja con agua."},
			{"fa-sun", "☀️", "Luz Brillante Indirecta", "Colócalas cerca de ventanas con luz filtrada, nunca bajo sol directo."},
			{"fa-leaf", "🍃", "Riego Consistente", "Mantén la tierra húmeda pero no empapada. Riega cuando la superficie esté seca."},
			{"fa-wind", "🌬️", "Buen Drenaje", "Asegúrate de que la maceta tenga agujeros de drenaje para evitar raíces podridas."},
		},
	},
	{
		Key: "Succulents", Label: "Suculentas", Emoji: "🌵",
		Tips: []Tip{
			{"fa-droplet", "💧", "Riego Mínimo", "Las suculentas almacenan agua. Riega solo cuando la tierra esté completamente seca."},
			{"fa-sun", "☀️", "Luz Directa", "Necesitan al menos 6 horas de luz solar directa al día para prosperar."},
			{"fa-flask", "🧪", "Suelo Bien Drenado", "Usa mezcla de tierra para cactus o agrega arena/perlita para mejor drenaje."},
			{"fa-snowflake", "❄️", "Temperaturas Moderadas", "Evita temperaturas bajo 10°C. La mayoría prefiere 15-25°C."},
		},
	},
	{
		Key: "Bonsai", Label: "Bonsái", Emoji: "🌳",
		Tips: []Tip{
			{"fa-scissors", "✂️", "Poda Regular", "Poda las ramas nuevas para mantener la forma deseada. Usa tijeras afiladas y limpias."},
			{"fa-droplet", "💧", "Riego Cuidadoso", "Riega cuando la superficie del suelo esté seca. Evita el encharcamiento."},
			{"fa-sun", "☀️", "Luz Adecuada", "La mayoría necesita luz brillante indirecta. Algunas especies prefieren sol directo."},
			{"fa-seedling", "🌱", "Trasplante Periódico", "Trasplanta cada 2-3 años para renovar el suelo y podar raíces."},
		},
	},
	{
		Key: "Pests", Label: "Plagas", Emoji: "🐛",
		Tips: []Tip{
			{"fa-bug", "🐛", "Inspección Regular", "Revisa las hojas semanalmente, especialmente el envés, para detectar plagas temprano."},
			{"fa-spray-can", "🧴", "Tratamiento Natural", "Usa agua jabonosa o aceite de neem. Aplica en las hojas afectadas cada 3-5 días."},
			{"fa-wind", "🌬️", "Buen Flujo de Aire", "Mantén buena ventilación para prevenir plagas. Evita el hacinamiento de plantas."},
			{"fa-ban", "🚫", "Aislamiento", "Si detectas plagas, aísla la planta afectada inmediatamente para evitar propagación."},
		},
	},
	{
		Key: "Indoor", Label: "Interior", Emoji: "🏠",
		Tips: []Tip{
			{"fa-lightbulb", "💡", "Iluminación Artificial", "Si no hay suficiente luz natural, usa luces LED de crecimiento durante 12-14 horas."},
			{"fa-droplet", "💧", "Riego Moderado", "Las plantas de interior generalmente necesitan menos agua. Revisa la humedad del suelo."},
			{"fa-wind", "🌬️", "Ventilación", "Abre ventanas regularmente para renovar el aire, pero evita corrientes fuertes."},
			{"fa-broom", "🧹", "Limpieza de Hojas", "Limpia las hojas con un paño húmedo para mejorar la absorción de luz."},
		},
	},
	{
		Key: "Outdoor", Label: "Exterior", Emoji: "🌤️",
		Tips: []Tip{
			{"fa-cloud-sun", "🌤️", "Aclimatación", "Acostumbra gradualmente las plantas al exterior, empezando con sombra parcial."},
			{"fa-thermometer-half", "🌡️", "Protección del Clima", "Protege de heladas, vientos fuertes y lluvias excesivas según la especie."},
			{"fa-droplet", "💧", "Riego Según Clima", "Ajusta el riego según la estación y las condiciones climáticas locales."},
			{"fa-seedling", "🌱", "Espaciado Adecuado", "Deja espacio suficiente entre plantas para permitir crecimiento y circulación de aire."},
		},
	},
}

// Categories returns all categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Lookup finds a category by key or Spanish label, case-insensitively.
func Lookup(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range categories {
		if strings.EqualFold(c.Key, name) || strings.EqualFold(c.Label, name) {
			return c, true
		}
	}
	return Category{}, false
}

// For returns the tips of a category, falling back to General for unknown
// names.
func For(name string) []Tip {
	if c, ok := Lookup(name); ok {
		return c.Tips
	}
	c, _ := Lookup(DefaultCategory)
	return c.Tips
}
