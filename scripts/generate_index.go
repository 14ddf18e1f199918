// Command generate_index renders README.md into the release index page,
// replacing the Installation section with links to the archives found in
// the dist directory.
package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/oakwood-commons/kvpick/pkg/settings"
)

var archivePattern = regexp.MustCompile(`^` + settings.CliBinaryName + `_([^_]+(?:-[^_]+)*)_(Darwin|Linux|Windows)_(arm64|x86_64)\.(?:tar\.gz|zip)$`)

var platformNames = map[string]string{
	"Darwin_arm64":   "macOS (Apple Silicon)",
	"Darwin_x86_64":  "macOS (Intel)",
	"Linux_arm64":    "Linux (ARM64)",
	"Linux_x86_64":   "Linux (x86_64)",
	"Windows_arm64":  "Windows (ARM64)",
	"Windows_x86_64": "Windows (x86_64)",
}

// archive is one downloadable release artifact.
type archive struct {
	File     string
	Version  string
	Platform string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}
	distDir := os.Args[1]
	indexPath := filepath.Join(distDir, "index.html")

	if err := generate("README.md", distDir, indexPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
}

func generate(readmePath, distDir, indexPath string) error {
	readme, err := os.ReadFile(readmePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", readmePath, err)
	}
	archives, err := findArchives(distDir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", distDir, err)
	}

	body := replaceInstallationSection(renderMarkdown(readme), downloadsHTML(archives))

	f, err := os.Create(indexPath)
	if err != nil {
		return err
	}
	if err := writePage(f, body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderMarkdown(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank})
	return markdown.Render(p.Parse(md), renderer)
}

// findArchives lists release archives sorted by platform. Checksums and
// unrelated files are skipped.
func findArchives(distDir string) ([]archive, error) {
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return nil, err
	}
	var out []archive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := archivePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		out = append(out, archive{File: e.Name(), Version: m[1], Platform: platformNames[m[2]+"_"+m[3]]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func downloadsHTML(archives []archive) string {
	version := "unknown"
	if len(archives) > 0 {
		version = archives[0].Version
	}

	var sb strings.Builder
	sb.WriteString("  <div class=\"downloads\">\n    <h2>Downloads</h2>\n")
	fmt.Fprintf(&sb, "    <h3>%s</h3>\n    <table class=\"download-table\">\n", html.EscapeString(version))
	for _, a := range archives {
		fmt.Fprintf(&sb, "      <tr><td class=\"platform-name\">%s</td><td><a href=\"%s\">download</a></td></tr>\n",
			html.EscapeString(a.Platform), html.EscapeString(a.File))
	}
	sb.WriteString("    </table>\n  </div>\n")
	return sb.String()
}

// replaceInstallationSection swaps the README's Installation section for
// the downloads table. The page is returned unchanged when the section or
// the heading after it is missing.
func replaceInstallationSection(page []byte, downloads string) []byte {
	s := string(page)
	start := strings.Index(s, `<h2 id="installation">`)
	if start == -1 {
		start = strings.Index(s, `<h2 id="install">`)
	}
	if start == -1 {
		return page
	}
	const headingOpen = `<h2 id="`
	next := strings.Index(s[start+len(headingOpen):], headingOpen)
	if next == -1 {
		return page
	}
	next += start + len(headingOpen)

	name := settings.CliBinaryName
	replacement := `<h2 id="installation">Installation</h2>

` + downloads + `
<p>Extract the archive and move the binary to your PATH:</p>

<pre><code class="language-bash">tar -xzf ` + name + `_*.tar.gz
sudo mv ` + name + ` /usr/local/bin/
</code></pre>

`
	return []byte(s[:start] + replacement + s[next:])
}

func writePage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s - searchable record selector</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #333; }
    code { background: #f1f5f9; padding: 2px 6px; border-radius: 3px; }
    pre { background: #1e293b; color: #e2e8f0; padding: 16px; border-radius: 6px; overflow-x: auto; }
    pre code { background: none; color: inherit; padding: 0; }
    .downloads { background: #eff6ff; padding: 20px; border-radius: 8px; border-left: 4px solid #2563eb; }
    .platform-name { font-weight: 500; width: 200px; }
  </style>
</head>
<body>
`, settings.CliBinaryName); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}
