// Copyright 2024-2026 Aiku AI

package puppet

import (
	"context"
	"sync"
)

// CustomPuppetStarter attempts to start the double-puppeting session for one
// puppet. The transport layer supplies the implementation; this package only
// drives the fan-out.
type CustomPuppetStarter interface {
	StartCustomPuppet(ctx context.Context, puppet *Puppet) error
}

// StartCustomPuppets enumerates every puppet with a custom MXID and starts
// each one in its own goroutine. A failed start is logged and does not
// affect the others. Blocks until all starts have finished; callers that
// don't want to wait run it in a goroutine of their own.
func (r *Registry) StartCustomPuppets(ctx context.Context, starter CustomPuppetStarter) {
	var wg sync.WaitGroup
	count := 0
	for puppet, err := range r.AllWithCustomMXID(ctx) {
		if err != nil {
			r.log.Err(err).Msg("Failed to enumerate custom puppets")
			return
		}
		count++
		wg.Go(func() {
			if err := starter.StartCustomPuppet(ctx, puppet); err != nil {
				puppet.log.Err(err).
					Stringer("custom_mxid", puppet.CustomMXID).
					Msg("Failed to start double puppeting")
			}
		})
	}
	wg.Wait()
	r.log.Info().Int("count", count).Msg("Custom puppet startup complete")
}
