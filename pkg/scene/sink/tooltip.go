package sink

import (
	"bytes"
	"fmt"
	"html"

	"github.com/matzehuels/flowmap/pkg/scene"
)

// Tooltip box layout.
const (
	tooltipPad    = 8
	tooltipWidth  = scene.PieWidth*2 + tooltipPad*3
	tooltipPieY   = 64
	tooltipHeight = tooltipPieY + scene.PieHeight + 22
)

const (
	tooltipCSS = `
    .flow-tooltip { pointer-events: none; transition: opacity 0.15s ease; }
    .flow-tooltip[visibility="hidden"] { opacity: 0; }
    .flow-tooltip[visibility="visible"] { opacity: 1; }
    .flow-tooltip__box { fill: #ffffff; stroke: #d0d0d0; }
    .flow-tooltip__value { font-weight: bold; font-size: 14px; }
    .flow-tooltip__caption { text-anchor: middle; fill: #6b6b6b; }
    .flow-pie__outline { color: #d0d0d0; }
    .flow-pie__label { font-weight: bold; }`

	tooltipJS = `
    const flowSVG = document.querySelector('svg.flow-map');
    const flowVB = flowSVG.viewBox.baseVal;
    document.querySelectorAll('.flow-hit-use').forEach(el => {
      const tip = document.querySelector('.flow-tooltip[data-for="' + el.dataset.flow + '"]');
      if (!tip) return;
      el.addEventListener('mousemove', ev => {
        const pt = flowSVG.createSVGPoint();
        pt.x = ev.clientX; pt.y = ev.clientY;
        const p = pt.matrixTransform(flowSVG.getScreenCTM().inverse());
        const w = %d, h = %d;
        let x = p.x - w/2;
        x = Math.max(0, Math.min(x, flowVB.width - w));
        let y = p.y - h - %d;
        if (y < 0) y = p.y + %d;
        tip.setAttribute('transform', 'translate(' + x.toFixed(1) + ',' + y.toFixed(1) + ')');
        tip.setAttribute('visibility', 'visible');
      });
      el.addEventListener('mouseleave', () => tip.setAttribute('visibility', 'hidden'));
    });`
)

// TooltipSize is the size of a rendered tooltip.
func TooltipSize() scene.Box {
	return scene.Box{Width: tooltipWidth, Height: tooltipHeight}
}

func renderTooltip(buf *bytes.Buffer, f scene.Flow, p scene.Palette) {
	tip := scene.NewTooltip(f)

	fmt.Fprintf(buf, `  <g class="flow-tooltip" data-for="%s" visibility="hidden">`+"\n", attr(f.Key))
	fmt.Fprintf(buf, `    <rect class="flow-tooltip__box" width="%d" height="%d" rx="4"/>`+"\n", tooltipWidth, tooltipHeight)
	fmt.Fprintf(buf, `    <text x="%d" y="18">%s</text>`+"\n", tooltipPad, html.EscapeString(tip.Source))
	fmt.Fprintf(buf, `    <line x1="%d" y1="24" x2="%d" y2="34" stroke="#4d4d4d" marker-end="url(#flow-arrowhead)"/>`+"\n",
		tooltipPad+4, tooltipPad+4)
	fmt.Fprintf(buf, `    <text x="%d" y="36" dy="0.32em">%s</text>`+"\n", tooltipPad+14, html.EscapeString(tip.Target))
	fmt.Fprintf(buf, `    <text class="flow-tooltip__value" x="%d" y="58">%s</text>`+"\n", tooltipPad, tip.Value)

	second := tooltipPad*2 + scene.PieWidth
	scene.RenderPie(buf, tooltipPad, tooltipPieY, tip.OutboundShare, p.Outbound, "outbound")
	scene.RenderPie(buf, second, tooltipPieY, tip.InboundShare, p.Inbound, "inbound")

	capY := tooltipPieY + scene.PieHeight + 12
	fmt.Fprintf(buf, `    <text class="flow-tooltip__caption" x="%d" y="%d">of outbounds</text>`+"\n", tooltipPad+scene.PieWidth/2, capY)
	fmt.Fprintf(buf, `    <text class="flow-tooltip__caption" x="%d" y="%d">of inbounds</text>`+"\n", second+scene.PieWidth/2, capY)
	buf.WriteString("  </g>\n")
}

func renderTooltipScript(buf *bytes.Buffer) {
	js := fmt.Sprintf(tooltipJS, tooltipWidth, tooltipHeight, scene.TooltipGap, scene.TooltipGap)
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", tooltipCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
}
