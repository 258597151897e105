package bigimage

import (
	"sort"
	"sync"
)

// CaptureContext collects the render records of a single capture.
// Resolvers run concurrently, and each one only writes the records for its own layer.
type CaptureContext struct {
	ID       string
	View     MapView
	Snapshot Snapshot
	Bounds   *CaptureBounds
	Surface  SurfaceSize

	mu            sync.Mutex
	claimed       map[LayerID]struct{}
	tileLayers    map[LayerID]*TileLayerRecord
	markers       map[LayerID]*MarkerRecord
	paths         map[LayerID]*PathRecord
	circles       map[LayerID]*CircleRecord
	clusterGroups map[LayerID]*ClusterGroupRecord
}

func NewCaptureContext(id string, view MapView, snapshot Snapshot, bounds *CaptureBounds, surface SurfaceSize) *CaptureContext {
	return &CaptureContext{
		ID:            id,
		View:          view,
		Snapshot:      snapshot,
		Bounds:        bounds,
		Surface:       surface,
		claimed:       make(map[LayerID]struct{}),
		tileLayers:    make(map[LayerID]*TileLayerRecord),
		markers:       make(map[LayerID]*MarkerRecord),
		paths:         make(map[LayerID]*PathRecord),
		circles:       make(map[LayerID]*CircleRecord),
		clusterGroups: make(map[LayerID]*ClusterGroupRecord),
	}
}

// Claim marks a layer as being resolved. It returns false if the layer was already claimed in this capture.
func (cc *CaptureContext) Claim(id LayerID) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	_, ok := cc.claimed[id]
	if ok {
		return false
	}

	cc.claimed[id] = struct{}{}
	return true
}

func (cc *CaptureContext) Project(latLng LatLng) Point {
	return Project(cc.View, latLng, cc.Bounds)
}

func (cc *CaptureContext) SetTileLayer(id LayerID, record *TileLayerRecord) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.tileLayers[id] = record
}

func (cc *CaptureContext) SetMarker(id LayerID, record *MarkerRecord) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.markers[id] = record
}

func (cc *CaptureContext) SetPath(id LayerID, record *PathRecord) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.paths[id] = record
}

func (cc *CaptureContext) SetCircle(id LayerID, record *CircleRecord) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.circles[id] = record
}

func (cc *CaptureContext) SetClusterGroup(id LayerID, record *ClusterGroupRecord) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.clusterGroups[id] = record
}

// RecordCount is the number of layers that produced a record
func (cc *CaptureContext) RecordCount() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return len(cc.tileLayers) + len(cc.markers) + len(cc.paths) + len(cc.circles) + len(cc.clusterGroups)
}

// HasRecord reports whether the layer produced a record of any type
func (cc *CaptureContext) HasRecord(id LayerID) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if _, ok := cc.tileLayers[id]; ok {
		return true
	}
	if _, ok := cc.markers[id]; ok {
		return true
	}
	if _, ok := cc.paths[id]; ok {
		return true
	}
	if _, ok := cc.circles[id]; ok {
		return true
	}
	_, ok := cc.clusterGroups[id]
	return ok
}

// TileLayers returns the tile layer records, ordered by layer ID
func (cc *CaptureContext) TileLayers() []*TileLayerRecord {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	var records []*TileLayerRecord
	for _, id := range sortedIDs(cc.tileLayers) {
		records = append(records, cc.tileLayers[id])
	}
	return records
}

func (cc *CaptureContext) Paths() []*PathRecord {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	var records []*PathRecord
	for _, id := range sortedIDs(cc.paths) {
		records = append(records, cc.paths[id])
	}
	return records
}

func (cc *CaptureContext) Circles() []*CircleRecord {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	var records []*CircleRecord
	for _, id := range sortedIDs(cc.circles) {
		records = append(records, cc.circles[id])
	}
	return records
}

// Markers returns marker records and the cluster badges of all cluster groups,
// ordered by the ID of the marker or cluster they were made for.
// A marker and a cluster with the same ID are both kept, the marker first.
func (cc *CaptureContext) Markers() []*MarkerRecord {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	type entry struct {
		id        LayerID
		isCluster bool
		record    *MarkerRecord
	}

	entries := make([]entry, 0, len(cc.markers))
	for id, record := range cc.markers {
		entries = append(entries, entry{id, false, record})
	}
	for _, groupID := range sortedIDs(cc.clusterGroups) {
		for _, cluster := range cc.clusterGroups[groupID].Clusters {
			entries = append(entries, entry{cluster.NodeID, true, cluster.Marker})
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].id != entries[b].id {
			return entries[a].id < entries[b].id
		}
		return !entries[a].isCluster && entries[b].isCluster
	})

	records := make([]*MarkerRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.record)
	}
	return records
}

func sortedIDs[T any](m map[LayerID]T) []LayerID {
	ids := make([]LayerID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		return ids[a] < ids[b]
	})
	return ids
}
