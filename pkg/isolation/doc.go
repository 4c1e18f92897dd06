// Package isolation hosts one web application inside an explicit isolation
// domain.
//
// A Domain replaces process-wide state: hosted code keeps its values in the
// domain's store and registers the objects it creates so they are closed
// with the domain. Nothing outlives Unload. The domain travels with every
// request through context.Context, see FromContext.
//
// A Host is the listener side. It is created inside a domain, configured
// once, then driven by its owner one connection at a time:
//
//	d := isolation.NewDomain("/app/", root, logger)
//	h, err := isolation.NewHost(d)
//	err = h.ApplyConfiguration(isolation.Configuration{...})
//	err = h.StartListening()
//	for running {
//		if err := h.ProcessOnce(ctx); err != nil { ... }
//	}
//	h.StopListening()
//	d.Unload()
package isolation
