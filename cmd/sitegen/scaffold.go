package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/config"
)

var scaffoldFiles = map[string]string{
	config.FileName: "output_dir: output\nport: 4000\n",

	"data/site.yaml": "title: My Site\nurl: https://example.com\nauthor: Jane Doe\n",
	"data/nav.yaml": "links:\n" +
		"  - label: Home\n    url: /\n" +
		"  - label: Posts\n    url: /posts/\n",

	"site/index.md": "# Home\n\nWelcome to your new site.\n",
	"site/posts/2024-01-01-hello-world.md": "# Hello World\n\n" +
		"Your first post. Rename the date prefix to publish on another day,\n" +
		"or prefix the filename with an underscore to keep it a draft. #intro\n",

	"site/_layouts/default.html": `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	{{with .Page.Description}}<meta name="description" content="{{.}}" />{{end}}
	<title>{{.Page.Title}}{{with .Data.title}} | {{.}}{{end}}</title>
	<link rel="stylesheet" href="/assets/css/main.css" />
</head>
<body>
	<main>{{.Content}}</main>
</body>
</html>
`,
	"site/_layouts/posts.html": `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<title>{{.Page.Title}}{{with .Data.title}} | {{.}}{{end}}</title>
	<link rel="stylesheet" href="/assets/css/main.css" />
</head>
<body>
	<article>
		<h1>{{.Page.Title}}</h1>
		<time datetime="{{.Page.Date.Format "2006-01-02"}}">{{.Page.Date.Format "January 2, 2006"}}</time>
		{{.Content}}
	</article>
	<nav>
		<a href="/">Back home</a>
	</nav>
</body>
</html>
`,

	"assets/css/main.css": "body { font-family: sans-serif; max-width: 42rem; margin: 0 auto; padding: 1rem; }\n",
}

// runInit scaffolds a new project. Existing files are left alone unless
// force is set, and the command refuses to touch a directory that already
// has a config file without it.
func runInit(logger *slog.Logger, root string, force bool) error {
	configPath := filepath.Join(root, config.FileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", config.FileName)
	}

	for rel, content := range scaffoldFiles {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil && !force {
			logger.Debug("keeping existing file", slog.String("path", rel))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		logger.Info("created", slog.String("path", rel))
	}

	logger.Info("project initialized", slog.String("root", root))
	return nil
}
