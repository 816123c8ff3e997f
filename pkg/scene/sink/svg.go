package sink

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/flowmap/pkg/bezier"
	"github.com/matzehuels/flowmap/pkg/scene"
)

const flowInteractionCSS = `
    .flow-map { font: 10px sans-serif; }
    .locations-features-path { fill: none; stroke: #a0a0a0; stroke-linejoin: round; }
    .flow-arrow-use { fill: none; stroke: #4d4d4d; stroke-width: 1; }
    .flow-hit-use { fill: none; stroke: transparent; stroke-width: 16; cursor: pointer; }
    .flow-flow-use, .flow-arrow-use { transition: opacity 0.2s ease; }
    .flow-flow-use.dimmed, .flow-arrow-use.dimmed { opacity: %s; }
    .label-text { text-anchor: middle; pointer-events: none; }
    .label-text--halo { fill: none; stroke: #ffffff; stroke-width: 3; stroke-linejoin: round; }`

const flowInteractionJS = `
    function highlightFlow(id) {
      document.querySelectorAll('.flow-flow-use, .flow-arrow-use').forEach(el => el.classList.toggle('dimmed', el.dataset.flow !== id));
    }
    function resetFlows() {
      document.querySelectorAll('.flow-flow-use, .flow-arrow-use').forEach(el => el.classList.remove('dimmed'));
    }
    document.querySelectorAll('.flow-hit-use').forEach(el => {
      el.addEventListener('mouseenter', () => highlightFlow(el.dataset.flow));
      el.addEventListener('mouseleave', resetFlows);
    });`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	tooltips bool
	legend   bool
	patch    *scene.Patch
	duration time.Duration
}

// WithTooltips adds a hover tooltip for every flow.
func WithTooltips() SVGOption { return func(r *svgRenderer) { r.tooltips = true } }

// WithLegend draws the magnitude legend in the bottom-right corner.
func WithLegend() SVGOption { return func(r *svgRenderer) { r.legend = true } }

// WithTransition fades in the flows the patch marks as entering.
func WithTransition(p scene.Patch, d time.Duration) SVGOption {
	return func(r *svgRenderer) { r.patch = &p; r.duration = d }
}

// RenderSVG writes the scene as a standalone SVG document. Flow paths are
// defined once and referenced from the ribbon, arrow and hit layers.
func RenderSVG(s *scene.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" class="flow-map" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(s.Width), num(s.Height), num(s.Width), num(s.Height))

	renderDefs(&buf, s)
	renderLayers(&buf, s, r.entering())
	if x, y, ok := scene.LegendOrigin(s.Width, s.Height, s.Scale); r.legend && ok {
		scene.RenderLegend(&buf, x, y, s.Scale, s.Palette)
	}
	renderFlowInteraction(&buf)

	if r.tooltips {
		for _, f := range s.Flows {
			renderTooltip(&buf, f, s.Palette)
		}
		renderTooltipScript(&buf)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// entering returns the keyframes to apply to entering flows, keyed by flow.
func (r svgRenderer) entering() map[string]string {
	if r.patch == nil || len(r.patch.Enter) == 0 {
		return nil
	}
	frames := scene.FadeIn(r.duration, 8)
	if len(frames) < 2 {
		return nil
	}
	values := make([]string, len(frames))
	times := make([]string, len(frames))
	for i, v := range frames {
		values[i] = strconv.FormatFloat(v, 'f', 3, 64)
		times[i] = strconv.FormatFloat(float64(i)/float64(len(frames)-1), 'f', 3, 64)
	}
	anim := fmt.Sprintf(`<animate attributeName="opacity" values="%s" keyTimes="%s" dur="%gs" fill="freeze"/>`,
		strings.Join(values, ";"), strings.Join(times, ";"), r.duration.Seconds())

	out := make(map[string]string, len(r.patch.Enter))
	for _, k := range r.patch.Enter {
		out[k] = anim
	}
	return out
}

func renderDefs(buf *bytes.Buffer, s *scene.Scene) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <marker id="flow-arrowhead" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="5" markerHeight="5" orient="auto" markerUnits="userSpaceOnUse"><path d="M0,0L10,5L0,10" fill="#4d4d4d"/></marker>` + "\n")
	for _, f := range s.Flows {
		fmt.Fprintf(buf, `    <linearGradient id="flow-gradient-%s" x1="0" y1="0" x2="1" y2="0" gradientTransform="rotate(%d, 0.5, 0.5)">`,
			attr(f.Key), f.Geometry.Rotation)
		fmt.Fprintf(buf, `<stop offset="25%%" stop-color="%s"/><stop offset="100%%" stop-color="%s"/></linearGradient>`+"\n",
			s.Palette.Outbound, s.Palette.Inbound)
	}
	for _, f := range s.Flows {
		fmt.Fprintf(buf, `    <path id="flow-arrow-path-%s" d="%s"/>`+"\n", attr(f.Key), f.Geometry.ArrowPath)
		fmt.Fprintf(buf, `    <path id="flow-flow-path-%s" d="%s"/>`+"\n", attr(f.Key), f.Geometry.RibbonPath)
	}
	for _, l := range s.Labels {
		text := html.EscapeString(l.Text)
		fmt.Fprintf(buf, `    <g id="label-%s" transform="translate(%s,%s)">`, attr(l.ID), num(l.At.X), num(l.At.Y))
		fmt.Fprintf(buf, `<text class="label-text label-text--halo" dy="0.32em">%s</text>`, text)
		fmt.Fprintf(buf, `<text class="label-text" dy="0.32em">%s</text></g>`+"\n", text)
	}
	buf.WriteString("  </defs>\n")
}

func renderLayers(buf *bytes.Buffer, s *scene.Scene, enter map[string]string) {
	buf.WriteString(`  <g class="locations-g">` + "\n")
	if s.Boundary != "" {
		fmt.Fprintf(buf, `    <path class="locations-features-path" d="%s"/>`+"\n", s.Boundary)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="flow-flows-g">` + "\n")
	for _, f := range s.Flows {
		key := attr(f.Key)
		fmt.Fprintf(buf, `    <use class="flow-flow-use" data-flow="%s" href="#flow-flow-path-%s" fill="url(#flow-gradient-%s)">%s</use>`+"\n",
			key, key, key, enter[f.Key])
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="flow-arrows-g">` + "\n")
	for _, f := range s.Flows {
		key := attr(f.Key)
		fmt.Fprintf(buf, `    <use class="flow-arrow-use" data-flow="%s" href="#flow-arrow-path-%s" marker-end="url(#flow-arrowhead)">%s</use>`+"\n",
			key, key, enter[f.Key])
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="flow-hits-g">` + "\n")
	for _, f := range s.Flows {
		tip := scene.NewTooltip(f)
		key := attr(f.Key)
		fmt.Fprintf(buf, `    <use class="flow-hit-use" data-flow="%s" data-value="%s" data-outbound="%s" data-inbound="%s" href="#flow-arrow-path-%s"/>`+"\n",
			key, attr(tip.Value), attr(tip.OutboundText), attr(tip.InboundText), key)
	}
	buf.WriteString("  </g>\n")

	buf.WriteString(`  <g class="labels-g">` + "\n")
	for _, l := range s.Labels {
		fmt.Fprintf(buf, `    <use class="label-use" href="#label-%s"/>`+"\n", attr(l.ID))
	}
	buf.WriteString("  </g>\n")
}

func renderFlowInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", fmt.Sprintf(flowInteractionCSS, num(scene.DimOpacity)))
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", flowInteractionJS)
}

func num(v float64) string { return bezier.FormatFloat(v) }

// attr escapes a value for a double-quoted attribute.
func attr(s string) string { return html.EscapeString(s) }
