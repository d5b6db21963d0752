package scaffolding

// ProjectFile is one file of the starter project. Paths are relative to
// the source directory unless Root is set.
type ProjectFile struct {
	Path    string
	Content string
	// Template marks content that is rendered with text/template.
	Template bool
	// Root places the file relative to the project root.
	Root bool
}

// TemplateContext holds the values available to templated files.
type TemplateContext struct {
	ProjectName string
	Title       string
	SourceDir   string
	BuildDir    string
}

// StarterFiles returns the starter project layout.
func StarterFiles() []ProjectFile {
	return []ProjectFile{
		{Path: "html/index.html", Content: indexHTML, Template: true},
		{Path: "html/partials/head.html", Content: headHTML},
		{Path: "html/partials/footer.html", Content: footerHTML, Template: true},
		{Path: "pug/index.pug", Content: indexPug, Template: true},
		{Path: "pug/includes/footer.pug", Content: footerPug},
		{Path: "styles/main.scss", Content: mainSCSS},
		{Path: "styles/_variables.scss", Content: variablesSCSS},
		{Path: "scripts/main.js", Content: mainJS},
		{Path: "scripts/greet.js", Content: greetJS},
		{Path: "assets/icons/icon-star.svg", Content: iconStar},
		{Path: "assets/icons/icon-check.svg", Content: iconCheck},
		{Path: "assets/img/logo.svg", Content: logoSVG},
		{Path: "assets/fonts/.gitkeep"},
		{Path: "root-resources/robots.txt", Content: robotsTXT},
		{Path: ".gitignore", Content: gitignore, Template: true, Root: true},
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
@include('partials/head.html', {"title": "{{.Title}}"})
<body>
  <main class="page">
    <h1>{{.Title}}</h1>
    <svg class="icon"><use href="assets/sprite.svg#icon-star"></use></svg>
    <p id="greeting"></p>
  </main>
  @include('partials/footer.html')
  <script src="assets/bundle.js"></script>
</body>
</html>
`

const headHTML = `<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>@title</title>
  <link rel="stylesheet" href="assets/main.css">
</head>
`

const footerHTML = `<footer class="footer">{{.ProjectName}}</footer>
`

const indexPug = `doctype html
html(lang="en")
  head
    meta(charset="utf-8")
    title {{.Title}}
    link(rel="stylesheet" href="assets/main.css")
  body
    main.page
      h1 {{.Title}}
      p#greeting
    include includes/footer.pug
    script(src="assets/bundle.js")
`

const footerPug = `footer.footer Built with assetforge
`

const mainSCSS = `@use "variables" as *;

.page {
  max-width: 40rem;
  margin: 0 auto;
  font-family: $font-stack;
  display: flex;
  flex-direction: column;
  user-select: none;
}

.icon {
  width: 2rem;
  height: 2rem;
  fill: $accent;
}
`

const variablesSCSS = `$font-stack: system-ui, sans-serif;
$accent: #e0a100;
`

const mainJS = `import { greet } from "./greet.js";

document.addEventListener("DOMContentLoaded", () => {
  const el = document.getElementById("greeting");
  if (el) {
    el.textContent = greet("world");
  }
});
`

const greetJS = "export const greet = (name) => `Hello, ${name}!`;\n"

const iconStar = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M12 2l3 7h7l-5.5 4.5L18.5 21 12 16.5 5.5 21l2-7.5L2 9h7z"/></svg>
`

const iconCheck = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><path d="M9 16.2L4.8 12l-1.4 1.4L9 19 21 7l-1.4-1.4z"/></svg>
`

const logoSVG = `<?xml version="1.0" encoding="UTF-8"?>
<!-- logo -->
<svg xmlns="http://www.w3.org/2000/svg" width="64" height="64" viewBox="0 0 64 64">
  <circle cx="32" cy="32" r="30" fill="#e0a100"/>
</svg>
`

const robotsTXT = `User-agent: *
Allow: /
`

const gitignore = `{{.BuildDir}}/
node_modules/
.env
`
