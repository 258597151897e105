package layerresolver

import (
	"context"
	"sort"
	"sync"

	"github.com/chamendrieg/mapexport/bigimage"
	"github.com/chamendrieg/mapexport/exportconfig"
	"github.com/chamendrieg/mapexport/imagefetcher"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
)

// ClusterGroupResolver draws the visible clusters of a cluster group as a tier image with a count
type ClusterGroupResolver struct {
	logger  *logpkg.Logger
	fetcher imagefetcher.Fetcher
	conf    *exportconfig.Config
}

func NewClusterGroupResolver(logger *logpkg.Logger, fetcher imagefetcher.Fetcher, conf *exportconfig.Config) *ClusterGroupResolver {
	return &ClusterGroupResolver{logger, fetcher, conf}
}

func (r *ClusterGroupResolver) Resolve(ctx context.Context, layer bigimage.Layer, cc *bigimage.CaptureContext) errorsx.Error {
	group, ok := layer.(*bigimage.ClusterGroupLayer)
	if !ok {
		return errorsx.Errorf("expected a cluster group but got %T", layer)
	}

	var visibleNodes []*bigimage.ClusterNode
	seen := make(map[bigimage.LayerID]struct{})
	for _, marker := range group.Markers {
		node := cc.View.VisibleParent(group, marker)
		if node == nil {
			continue
		}

		if _, ok := seen[node.ID]; ok {
			continue
		}
		seen[node.ID] = struct{}{}

		if node.IconURL != "" {
			// drawn as a normal marker
			continue
		}

		visibleNodes = append(visibleNodes, node)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		clusters []*bigimage.ClusterRecord
	)

	for _, node := range visibleNodes {
		wg.Add(1)
		go func(node *bigimage.ClusterNode) {
			defer wg.Done()
			defer logPanic(r.logger, "cluster group %d: cluster %d", group.ID, node.ID)

			tier := bigimage.ClusterTierForCount(node.ChildCount)
			imageSrc := r.conf.ClusterImageSrc(tier)

			img, err := r.fetcher.Load(ctx, imageSrc)
			if err != nil {
				r.logger.Debug("cluster group %d: couldn't load %s cluster image %q. Error: %s", group.ID, tier, imageSrc, err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			clusters = append(clusters, &bigimage.ClusterRecord{
				NodeID: node.ID,
				Tier:   tier,
				Marker: &bigimage.MarkerRecord{
					Kind:     bigimage.MarkerKindCluster,
					Image:    img,
					Position: node.Point.Subtract(cc.Bounds.Min),
					Count:    node.ChildCount,
				},
			})
		}(node)
	}

	wg.Wait()

	if len(clusters) == 0 {
		return nil
	}

	sort.Slice(clusters, func(a, b int) bool {
		return clusters[a].NodeID < clusters[b].NodeID
	})

	cc.SetClusterGroup(group.ID, &bigimage.ClusterGroupRecord{Clusters: clusters})

	return nil
}
