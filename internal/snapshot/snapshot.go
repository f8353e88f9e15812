// Package snapshot materialises the point-in-time inventory and vendor
// directory a correlation run reads from.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shiroonigami23-ui/supply-disruption-engine/internal/contracts"
)

type InventoryProvider interface {
	ListShipments(ctx context.Context) ([]contracts.ShipmentRecord, error)
}

type VendorProvider interface {
	ListVendors(ctx context.Context) ([]contracts.VendorRecord, error)
}

type Snapshot struct {
	Inventory []contracts.ShipmentRecord
	Vendors   []contracts.VendorRecord
	LoadedAt  time.Time
}

// Load fetches inventory and vendors concurrently. Either failure cancels the
// other fetch and is returned.
func Load(ctx context.Context, inventory InventoryProvider, vendors VendorProvider) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := inventory.ListShipments(gctx)
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		snap.Inventory = items
		return nil
	})
	g.Go(func() error {
		items, err := vendors.ListVendors(gctx)
		if err != nil {
			return fmt.Errorf("load vendors: %w", err)
		}
		snap.Vendors = items
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = time.Now().UTC()
	return snap, nil
}

// Locations collects every distinct place named by the inventory: route
// waypoints, origins, destinations and leg endpoints.
func (s Snapshot) Locations() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, item := range s.Inventory {
		for _, wp := range item.Route {
			add(wp)
		}
		add(item.ShippingOrigin)
		add(item.Destination)
		for _, leg := range item.Legs {
			add(leg.Origin)
			add(leg.Destination)
			add(leg.CurrentLocation)
		}
	}
	return out
}
