package handlers

import (
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday/v2"
)

// DocsHandler renders the markdown documentation as HTML
type DocsHandler struct {
	root string
}

// NewDocsHandler creates a docs handler serving files below root
func NewDocsHandler(root string) *DocsHandler {
	return &DocsHandler{root: root}
}

// Only these documents are served
var allowedDocs = map[string]struct {
	file  string
	title string
}{
	"API":    {"docs/API.md", "API Reference"},
	"README": {"README.md", "Project Overview"},
}

// ServeMarkdownAsHTML handles GET /doc/:doc
func (h *DocsHandler) ServeMarkdownAsHTML(c *gin.Context) {
	docName := c.Param("doc")
	if docName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document name required"})
		return
	}

	doc, exists := allowedDocs[docName]
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	content, err := os.ReadFile(filepath.Join(h.root, doc.file))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, wrapWithTheme(string(renderMarkdown(content)), doc.title))
}

func renderMarkdown(content []byte) []byte {
	extensions := blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags,
	})
	return blackfriday.Run(content, blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions))
}

// wrapWithTheme wraps the rendered document in the docs page layout
func wrapWithTheme(content, title string) string {
	var b strings.Builder
	title = html.EscapeString(title)

	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>`)
	b.WriteString(title)
	b.WriteString(` - GoLiveHub</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            line-height: 1.6;
            color: #1f2937;
            background: #0f0f14;
            margin: 0;
            padding: 20px;
        }
        .container { max-width: 960px; margin: 0 auto; }
        .header {
            background: linear-gradient(135deg, #7c3aed 0%, #db2777 100%);
            color: white;
            padding: 2rem;
            margin-bottom: 2rem;
            border-radius: 12px;
            text-align: center;
        }
        .content {
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
        }
        .content h2 { color: #7c3aed; }
        .content pre {
            background: #f3f4f6;
            border-radius: 8px;
            padding: 1rem;
            overflow-x: auto;
        }
        .content code { font-family: 'Menlo', 'Ubuntu Mono', monospace; font-size: 0.9rem; }
        .content table { width: 100%; border-collapse: collapse; }
        .content th, .content td { border: 1px solid #d1d5db; padding: 0.5rem; text-align: left; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>`)
	b.WriteString(title)
	b.WriteString(`</h1></div>
        <div class="content">
`)
	b.WriteString(content)
	b.WriteString(`
        </div>
    </div>
</body>
</html>`)
	return b.String()
}
