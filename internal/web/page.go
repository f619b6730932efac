package web

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PlantCare AI</title>
<link rel="stylesheet" href="https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css">
<style>
:root {
  --primary-green: #2d6a4f;
  --accent-green: #40916c;
  --success: #2b9348;
  --warning: #e09f3e;
  --danger: #c1121f;
  --info: #1d7fb8;
  --text-primary: #1b1b1b;
  --text-muted: #6c757d;
  --surface: #ffffff;
  --background: #f1f7f3;
}
body { font-family: system-ui, sans-serif; background: var(--background); color: var(--text-primary); margin: 0; }
main { max-width: 760px; margin: 0 auto; padding: 1.5rem; }
section { background: var(--surface); border-radius: 12px; padding: 1rem 1.25rem; margin-bottom: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
h1 { color: var(--primary-green); }
.error { border-left: 4px solid var(--danger); color: var(--danger); }
.status { color: var(--text-muted); font-size: .9rem; }
.msg { padding: .5rem .75rem; border-radius: 8px; margin: .5rem 0; }
.msg.user { background: #e9f5ee; text-align: right; }
.msg img, .preview img { max-width: 240px; border-radius: 8px; }
form.inline { display: inline; }
button { background: var(--primary-green); color: #fff; border: 0; border-radius: 6px; padding: .45rem .9rem; cursor: pointer; }
button.secondary { background: var(--text-muted); }
textarea { width: 100%; box-sizing: border-box; min-height: 4rem; }
</style>
</head>
<body>
<main data-state="{{.State}}">
<h1><i class="fa-solid fa-seedling"></i> PlantCare AI</h1>

<p class="status">
{{if .Status.Reachable}}Backend en {{.Status.BaseURL}}{{else}}⚠️ Backend no disponible en {{.Status.BaseURL}}{{end}}
{{if not .ImageAvailable}} · análisis de imágenes no disponible{{end}}
{{if not .Status.Chat}} · chat no disponible{{end}}
</p>

{{if .Error}}
<section class="error" role="alert">{{.Error}}</section>
{{end}}

{{if .Result}}
<section class="result">
{{.Result}}
<form class="inline" method="post" action="/back"><button type="submit" class="secondary">Analizar otra planta</button></form>
</section>
{{end}}

{{if .History}}
<section class="history">
{{range .History}}
<div class="msg{{if .User}} user{{end}}">
{{if .Image}}<img src="{{.Image}}" alt="foto enviada"><br>{{end}}
{{.Body}}
</div>
{{end}}
</section>
{{end}}

<section class="input">
{{if .Preview}}
<div class="preview">
<img src="{{.Preview}}" alt="{{.PreviewName}}">
<form class="inline" method="post" action="/remove"><button type="submit" class="secondary">Quitar foto</button></form>
</div>
{{else if .ImageAvailable}}
<form method="post" action="/upload" enctype="multipart/form-data">
<input type="file" name="image" accept="image/*" required>
<button type="submit"><i class="fa-solid fa-camera"></i> Subir foto</button>
</form>
{{end}}
<form method="post" action="/send">
<textarea name="message" placeholder="{{if .Preview}}Describe el problema (opcional){{else}}Pregunta sobre el cuidado de tus plantas{{end}}"></textarea>
<button type="submit">{{if .Preview}}Analizar{{else}}Enviar{{end}}</button>
</form>
<form class="inline" method="post" action="/reset"><button type="submit" class="secondary">Nueva conversación</button></form>
</section>

<section class="tips">
<form method="post" action="/category">
<label for="category">Categoría:</label>
<select id="category" name="category">
{{range .Categories}}<option value="{{.Key}}"{{if .Selected}} selected{{end}}>{{.Emoji}} {{.Label}}</option>{{end}}
</select>
<button type="submit">Ver consejos</button>
</form>
<h3>{{.Category.Emoji}} Consejos: {{.Category.Label}}</h3>
{{range .Category.Tips}}
<p><i class="fa-solid {{.Icon}}"></i> <strong>{{.Title}}</strong><br>{{.Description}}</p>
{{end}}
</section>
</main>
</body>
</html>
`
