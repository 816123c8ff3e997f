package pipeline

import (
	"context"
	"time"

	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/scene"
	"github.com/matzehuels/flowmap/pkg/scene/sink"
)

// Render generates output artifacts in the requested formats. The patch
// drives enter transitions and is included in JSON output when
// opts.Previous is set.
func Render(ctx context.Context, s *scene.Scene, patch scene.Patch, opts Options) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := render(s, patch, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func render(s *scene.Scene, patch scene.Patch, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(s, buildSVGOptions(patch, opts)...)
		case FormatPNG:
			data, err = sink.RenderPNG(s, sink.WithScale(opts.Scale), sink.WithHighlight(opts.Highlight))
		case FormatJSON:
			data, err = sink.RenderJSON(s, buildJSONOptions(patch, opts)...)
		default:
			return nil, ferrors.New(ferrors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			code := ferrors.GetCode(err)
			if code == "" {
				code = ferrors.ErrCodeInternal
			}
			return nil, ferrors.Wrap(code, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(patch scene.Patch, opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Tooltips {
		svgOpts = append(svgOpts, sink.WithTooltips())
	}
	if opts.Legend {
		svgOpts = append(svgOpts, sink.WithLegend())
	}
	if opts.Previous != nil && len(patch.Enter) > 0 {
		svgOpts = append(svgOpts, sink.WithTransition(patch, scene.EnterDuration))
	}
	return svgOpts
}

func buildJSONOptions(patch scene.Patch, opts Options) []sink.JSONOption {
	jsonOpts := []sink.JSONOption{sink.WithJSONIndent()}
	if opts.Previous != nil {
		jsonOpts = append(jsonOpts, sink.WithJSONPatch(patch))
	}
	return jsonOpts
}
