package format

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML_BoldAndItalic(t *testing.T) {
	got := ToHTML("**bold** and *italic*")
	want := paragraphOpen + strongOpen + "bold</strong> and <em>italic</em></p>"
	assert.Equal(t, want, got)
}

func TestToHTML_ListThenParagraph(t *testing.T) {
	got := ToHTML("- a\n- b\n\ntext")
	want := listOpen + itemOpen + "a</li>" + itemOpen + "b</li></ul>" + paragraphOpen + "text</p>"
	assert.Equal(t, want, got)
	assert.Equal(t, 1, strings.Count(got, "<ul"))
	assert.Equal(t, 2, strings.Count(got, "<li"))
	assert.Less(t, strings.Index(got, "</ul>"), strings.Index(got, "<p"))
}

func TestToHTML_DropsNoiseLines(t *testing.T) {
	input := "Riega la planta una vez por semana.\n1.\n-\n42\n2024.\nok\nMantén la tierra húmeda."
	doc := Parse(input)

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "Riega la planta una vez por semana. Mantén la tierra húmeda.", PlainText(doc.Blocks[0].Runs))
}

func TestToHTML_CleanTextIsSingleParagraph(t *testing.T) {
	input := `La planta necesita luz indirecta & riego "moderado".`
	got := ToHTML(input)
	assert.Equal(t, paragraphOpen+"La planta necesita luz indirecta &amp; riego &#34;moderado&#34;.</p>", got)
}

func TestToHTML_Empty(t *testing.T) {
	assert.Equal(t, "", ToHTML(""))
	assert.Equal(t, "", ToHTML("\n\n  \n"))
	assert.True(t, Parse("...\n##\n1.").Empty())
}

var knownTagRe = regexp.MustCompile(`</?(p|ul|li|strong|em|b|i)( style="[^"]*")?>`)
var entityRe = regexp.MustCompile(`&(amp|lt|gt|#34|#39);`)

func assertNoRawMarkup(t *testing.T, out string) {
	t.Helper()
	stripped := knownTagRe.ReplaceAllString(out, "")
	assert.NotContains(t, stripped, "<")
	assert.NotContains(t, stripped, ">")
	assert.NotContains(t, entityRe.ReplaceAllString(stripped, ""), "&")
}

func TestToHTML_EscapesInput(t *testing.T) {
	inputs := []string{
		`<script>alert("x")</script>`,
		"**<b>bold</b>** & *<i>em</i>*",
		"- <img src=x onerror=alert(1)>\n- a & b\n\n1. <tag>",
		"Tom & Jerry > Garfield < Snoopy",
		"**unclosed <strong",
	}
	for _, in := range inputs {
		assertNoRawMarkup(t, ToHTML(in))
		assertNoRawMarkup(t, TelegramHTML(Parse(in)))
	}
}

func TestParse_StripsHeadingsAndEllipses(t *testing.T) {
	doc := Parse("## Cuidados básicos\nRiega con moderación...\n### Luz solar\nColócala cerca de la ventana…")

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, "Cuidados básicos Riega con moderación Luz solar Colócala cerca de la ventana", PlainText(doc.Blocks[0].Runs))
}

func TestParse_StripsBoilerplate(t *testing.T) {
	doc := Parse("Basándome en la información disponible: tu planta necesita más luz.\n\nbased on the available information: water less.")

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "tu planta necesita más luz.", PlainText(doc.Blocks[0].Runs))
	assert.Equal(t, "water less.", PlainText(doc.Blocks[1].Runs))
}

func TestParse_NumberedListMarkersStripped(t *testing.T) {
	doc := Parse("Pasos:\n1. Riega poco\n2. Abona en primavera\n- 3. Poda hojas secas")

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, BlockParagraph, doc.Blocks[0].Kind)
	list := doc.Blocks[1]
	assert.Equal(t, BlockList, list.Kind)
	assert.True(t, list.Ordered)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "Riega poco", PlainText(list.Items[0]))
	assert.Equal(t, "Poda hojas secas", PlainText(list.Items[2]))
}

func TestParse_ParagraphAfterListClosesList(t *testing.T) {
	doc := Parse("* hojas amarillas\n* manchas marrones\nEsto indica exceso de riego.")

	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, BlockList, doc.Blocks[0].Kind)
	assert.False(t, doc.Blocks[0].Ordered)
	assert.Equal(t, BlockParagraph, doc.Blocks[1].Kind)
}

func TestParse_EmphasisInsideStrong(t *testing.T) {
	doc := Parse("**riega *poco* en invierno** siempre")

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, []Run{
		{Text: "riega ", Strong: true},
		{Text: "poco", Strong: true, Em: true},
		{Text: " en invierno", Strong: true},
		{Text: " siempre"},
	}, doc.Blocks[0].Runs)

	got := HTML(doc)
	assert.Equal(t, paragraphOpen+strongOpen+"riega <em>poco</em> en invierno</strong> siempre</p>", got)
}

func TestParse_StrongInsideEmphasis(t *testing.T) {
	doc := Parse("*muy **importante** hoy*")

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, []Run{
		{Text: "muy ", Em: true},
		{Text: "importante", Strong: true, Em: true},
		{Text: " hoy", Em: true},
	}, doc.Blocks[0].Runs)

	assert.Equal(t, paragraphOpen+"<em>muy "+strongOpen+"importante</strong> hoy</em></p>", HTML(doc))
	assert.Equal(t, "<i>muy <b>importante</b> hoy</i>", TelegramHTML(doc))
}

func TestParse_CrossingMarkersStayNested(t *testing.T) {
	got := TelegramHTML(Parse("*a **b* c**"))
	assert.Equal(t, "<i>a <b>b</b></i><b> c</b>", got)
	assert.NotContains(t, got, "*")
}

func TestTelegramHTML(t *testing.T) {
	doc := Parse("**Diagnóstico:** exceso de agua\n\n- Reduce el riego\n- Mejora el *drenaje*\n\n1. Trasplanta\n2. Espera")

	got := TelegramHTML(doc)
	want := "<b>Diagnóstico:</b> exceso de agua\n\n" +
		"• Reduce el riego\n• Mejora el <i>drenaje</i>\n\n" +
		"1. Trasplanta\n2. Espera"
	assert.Equal(t, want, got)
}

func TestPlain(t *testing.T) {
	doc := Parse("Hola **mundo**\n\n- uno más\n- dos más")
	assert.Equal(t, "Hola mundo\n\n• uno más\n• dos más", Plain(doc))
}
