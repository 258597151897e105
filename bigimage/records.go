package bigimage

import (
	"image"

	"github.com/chamendrieg/mapexport/styling"
	"github.com/paulmach/orb/maptile"
)

type TileRecord struct {
	Tile     maptile.Tile
	Image    image.Image
	Position Point
}

// TileLayerRecord holds every tile loaded for one tile layer
type TileLayerRecord struct {
	LayerID  LayerID
	TileSize int
	Opacity  float64
	Tiles    []*TileRecord
}

type MarkerKind int

const (
	MarkerKindImage        MarkerKind = 1
	MarkerKindImageTooltip MarkerKind = 2
	MarkerKindText         MarkerKind = 3
	MarkerKindCluster      MarkerKind = 4
)

type MarkerRecord struct {
	Kind     MarkerKind
	Image    image.Image
	Position Point
	Tooltip  string
	Text     string
	Count    int
}

type PathRecord struct {
	Points []Point
	Closed bool
	Style  *styling.PathStyle
}

// CircleRecord keeps a reference to the circle; it is projected when it is drawn
type CircleRecord struct {
	Circle *CircleLayer
}

type ClusterTier int

const (
	ClusterTierSmall  ClusterTier = 1
	ClusterTierMedium ClusterTier = 2
	ClusterTierLarge  ClusterTier = 3
)

func (t ClusterTier) String() string {
	switch t {
	case ClusterTierSmall:
		return "small"
	case ClusterTierMedium:
		return "medium"
	case ClusterTierLarge:
		return "large"
	default:
		return "unknown"
	}
}

// ClusterTierForCount picks the tier of a cluster: small below 10 children, medium below 100, large otherwise
func ClusterTierForCount(childCount int) ClusterTier {
	switch {
	case childCount < 10:
		return ClusterTierSmall
	case childCount < 100:
		return ClusterTierMedium
	default:
		return ClusterTierLarge
	}
}

type ClusterRecord struct {
	NodeID LayerID
	Tier   ClusterTier
	Marker *MarkerRecord
}

type ClusterGroupRecord struct {
	Clusters []*ClusterRecord
}
