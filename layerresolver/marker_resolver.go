package layerresolver

import (
	"context"
	"strings"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/jamesrr39/goutil/errorsx"
	"golang.org/x/net/html"
)

type MarkerResolver struct {
	fetcher imagefetcher.Fetcher
	// defaultIcon is used for markers without an icon. Nil skips them.
	defaultIcon *bigimage.Icon
}

func NewMarkerResolver(fetcher imagefetcher.Fetcher, defaultIcon *bigimage.Icon) *MarkerResolver {
	return &MarkerResolver{fetcher, defaultIcon}
}

func (r *MarkerResolver) Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error {
	marker, ok := layer.(*bigimage.MarkerLayer)
	if !ok {
		return errorsx.Errorf("expected a marker layer but got %T", layer)
	}

	if marker.Icon == nil {
		if r.defaultIcon == nil {
			return nil
		}

		withDefaultIcon := *marker
		withDefaultIcon.Icon = r.defaultIcon
		marker = &withDefaultIcon
	}

	position := bigimage.ProjectMarker(cc.View, marker, cc.Bounds)
	if !bigimage.IsOnSurface(position, cc.Surface) {
		return nil
	}

	switch {
	case marker.Icon.ImageURL != "":
		img, err := r.fetcher.Load(ctx, marker.Icon.ImageURL)
		if err != nil {
			return errorsx.Wrap(err, "markerID", marker.ID)
		}

		record := &bigimage.MarkerRecord{
			Kind:     bigimage.MarkerKindImage,
			Image:    img,
			Position: position,
		}
		if marker.Tooltip != "" {
			record.Kind = bigimage.MarkerKindImageTooltip
			record.Tooltip = marker.Tooltip
		}

		cc.SetMarker(marker.ID, record)
	case marker.Icon.HTML != "" && marker.ChildCount == 0:
		text, err := htmlToText(marker.Icon.HTML)
		if err != nil {
			return errorsx.Wrap(err, "markerID", marker.ID)
		}

		if text == "" {
			return nil
		}

		cc.SetMarker(marker.ID, &bigimage.MarkerRecord{
			Kind:     bigimage.MarkerKindText,
			Position: position,
			Text:     text,
		})
	}

	return nil
}

// htmlToText returns the text content of an icon's inline HTML, with whitespace collapsed
func htmlToText(fragment string) (string, errorsx.Error) {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return "", errorsx.Wrap(err)
	}

	var sb strings.Builder
	var visit func(node *html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}

		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}

		for child := node.FirstChild; child != nil; child = child.NextSibling {
			visit(child)
		}
	}
	visit(doc)

	return strings.Join(strings.Fields(sb.String()), " "), nil
}
