package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"
)

// Rendering constants matching the dashboard chart.
const (
	labelOffset      = 18.0
	selectedStroke   = "#ef4444"
	unselectedStroke = "#ffffff"
	badgeColor       = "#fbbf24"
	linkColor        = "#94a3b8"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Funcs(template.FuncMap{
		"num":         num,
		"fill":        nodeFill,
		"stroke":      nodeStroke,
		"strokeWidth": nodeStrokeWidth,
		"opacity":     linkOpacity,
		"fontSize":    labelFontSize,
		"badge":       func(n Node) string { return num(n.Influence * 8) },
		"badgeOffset": func(n Node) string { return num(n.Size * 0.6) },
		"labelY":      func(n Node) string { return num(n.Y + n.Size + labelOffset) },
	}).Parse(svgTemplate + htmlTemplate))
}

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title string
	// Interactive adds a Cytoscape.js view seeded with the computed positions.
	Interactive bool
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Title: "태그 네트워크"}
}

// ValidFormats lists the supported output formats.
var ValidFormats = []string{"html", "svg", "cytoscape"}

// templateData holds data for the HTML template.
type templateData struct {
	Title       string
	Graph       *GraphData
	ViewBox     string
	Legend      []legendEntry
	Interactive bool
	GraphJSON   template.JS
}

type legendEntry struct {
	Label string
	Color string
}

// GenerateSVG renders the graph as a standalone SVG document.
func GenerateSVG(graph *GraphData) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	var buf bytes.Buffer
	if err := compiledTemplate.ExecuteTemplate(&buf, "svg", newTemplateData(graph, HTMLOptions{})); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// GenerateHTML generates a self-contained HTML page for the graph.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(opts.Title), nil
	}

	data := newTemplateData(graph, opts)
	if opts.Interactive {
		graphJSON, err := graph.ToCytoscapeJSON()
		if err != nil {
			return "", err
		}
		data.GraphJSON = template.JS(graphJSON)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.ExecuteTemplate(&buf, "page", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newTemplateData(graph *GraphData, opts HTMLOptions) templateData {
	return templateData{
		Title:       opts.Title,
		Graph:       graph,
		ViewBox:     graph.ViewBox(),
		Legend:      legend(graph),
		Interactive: opts.Interactive,
	}
}

// legend lists the groups present in the graph in first-seen order.
func legend(g *GraphData) []legendEntry {
	seen := make(map[string]bool)
	var out []legendEntry
	for _, n := range g.Nodes {
		if seen[n.Group] {
			continue
		}
		seen[n.Group] = true
		out = append(out, legendEntry{Label: n.GroupLabel, Color: n.Color})
	}
	return out
}

// nodeFill lightens unselected nodes by 30% toward white.
func nodeFill(n Node) string {
	if n.Selected {
		return n.Color
	}
	return mixWhite(n.Color, 0.3)
}

func nodeStroke(n Node) string {
	if n.Selected {
		return selectedStroke
	}
	return unselectedStroke
}

func nodeStrokeWidth(n Node) int {
	if n.Selected {
		return 4
	}
	return 2
}

func linkOpacity(e Edge) string {
	return strconv.FormatFloat(0.3+e.Value*0.4, 'f', 2, 64)
}

func labelFontSize(n Node) string {
	return num(math.Min(n.Size/2.2, 14))
}

// mixWhite blends a #rrggbb color toward white by t. Other inputs are
// returned unchanged.
func mixWhite(hex string, t float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return hex
	}
	mix := func(c uint64) uint64 {
		return uint64(math.Round(float64(c) + (255-float64(c))*t))
	}
	r, g, b := mix(v>>16&0xff), mix(v>>8&0xff), mix(v&0xff)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML(title string) string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>` + template.HTMLEscapeString(title) + ` - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Noto Sans KR", sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>표시할 태그가 없습니다</h2>
    <p>The network has no tags for this selection.</p>
    <p>Try <code>tagnet viz --offline</code> or clear the selected tags.</p>
  </div>
</body>
</html>`
}

const svgTemplate = `{{define "svg"}}<svg xmlns="http://www.w3.org/2000/svg" viewBox="{{.ViewBox}}" width="{{num .Graph.Width}}" height="{{num .Graph.Height}}" font-family="'Noto Sans KR', sans-serif">
  <g class="links">
{{- range .Graph.Edges}}
    <line x1="{{num .X1}}" y1="{{num .Y1}}" x2="{{num .X2}}" y2="{{num .Y2}}" stroke="` + linkColor + `" stroke-opacity="{{opacity .}}" stroke-width="{{num .Width}}" stroke-linecap="round"><title>{{.Source}} - {{.Target}} ({{printf "%.2f" .Value}})</title></line>
{{- end}}
  </g>
  <g class="nodes">
{{- range .Graph.Nodes}}
    <g class="node{{if .Selected}} selected{{end}}" data-id="{{.ID}}">
      <circle cx="{{num .X}}" cy="{{num .Y}}" r="{{num .Size}}" fill="{{fill .}}" stroke="{{stroke .}}" stroke-width="{{strokeWidth .}}"><title>{{.Label}} · {{.GroupLabel}} · {{.Count}}</title></circle>
      <circle cx="{{num .X}}" cy="{{num .Y}}" r="{{badge .}}" transform="translate({{badgeOffset .}},-{{badgeOffset .}})" fill="` + badgeColor + `" stroke="#ffffff" stroke-width="1"/>
      <text x="{{num .X}}" y="{{labelY .}}" text-anchor="middle" font-size="{{fontSize .}}" font-weight="bold" fill="#334155">{{.Label}}</text>
    </g>
{{- end}}
  </g>
</svg>{{end}}`

const htmlTemplate = `{{define "page"}}<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  {{- if .Interactive}}
  <script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
  {{- end}}
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Noto Sans KR", sans-serif;
      margin: 0;
      padding: 16px;
      background: #f8fafc;
    }
    h1 {
      font-size: 18px;
      color: #1e293b;
    }
    .canvas {
      background: white;
      border-radius: 8px;
      box-shadow: 0 1px 3px rgba(0,0,0,0.1);
    }
    .canvas svg {
      width: 100%;
      height: auto;
    }
    #cy {
      width: 100%;
      height: 80vh;
    }
    .legend span {
      display: inline-block;
      margin-right: 12px;
      font-size: 13px;
      color: #475569;
    }
    .legend i {
      display: inline-block;
      width: 10px;
      height: 10px;
      border-radius: 50%;
      margin-right: 4px;
    }
    .note {
      font-size: 12px;
      color: #94a3b8;
    }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <div class="legend">
    {{- range .Legend}}
    <span><i style="background: {{.Color}}"></i>{{.Label}}</span>
    {{- end}}
  </div>
  {{- if .Graph.Synthesized}}
  <p class="note">연결 강도는 샘플 데이터로 생성되었습니다.</p>
  {{- end}}
  {{- if .Interactive}}
  <div id="cy" class="canvas"></div>
  <script>
    (function() {
      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: {{.GraphJSON}},
        layout: { name: 'preset' },
        style: [
          {
            selector: 'node',
            style: {
              'background-color': 'data(color)',
              'label': 'data(label)',
              'width': 'mapData(size, 0, 50, 10, 100)',
              'height': 'mapData(size, 0, 50, 10, 100)',
              'text-valign': 'bottom',
              'text-margin-y': '5px',
              'font-size': '12px',
              'border-width': 2,
              'border-color': '#ffffff'
            }
          },
          {
            selector: 'node.selected',
            style: {
              'border-width': 4,
              'border-color': '` + selectedStroke + `'
            }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '` + linkColor + `',
              'width': 'data(width)',
              'opacity': 0.6,
              'curve-style': 'straight'
            }
          }
        ]
      });
      cy.on('tap', 'node', function(evt) {
        evt.target.toggleClass('selected');
      });
    })();
  </script>
  {{- else}}
  <div class="canvas">
    {{template "svg" .}}
  </div>
  {{- end}}
</body>
</html>{{end}}`
