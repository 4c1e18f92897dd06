package isolation

import (
	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/processor"
	"github.com/getmockd/netty/pkg/worker"
)

// Initializer resolves the request processor of an application inside its
// domain. It runs once per domain, before the host starts listening.
type Initializer interface {
	Initialize(d *Domain, virtualPath, physicalPath string) (*processor.Processor, error)
}

// InitializerFunc adapts a function to the Initializer interface.
type InitializerFunc func(d *Domain, virtualPath, physicalPath string) (*processor.Processor, error)

// Initialize calls f.
func (f InitializerFunc) Initialize(d *Domain, virtualPath, physicalPath string) (*processor.Processor, error) {
	return f(d, virtualPath, physicalPath)
}

// PipelineInitializer installs the default handler around Pipeline. A nil
// Pipeline serves static files from the physical root.
type PipelineInitializer struct {
	Pipeline pipeline.Pipeline
	Options  []worker.Option
}

// Initialize implements Initializer.
func (p PipelineInitializer) Initialize(_ *Domain, virtualPath, physicalPath string) (*processor.Processor, error) {
	pl := p.Pipeline
	if pl == nil {
		pl = pipeline.StaticFiles{}
	}
	return processor.New(&processor.PipelineHandler{
		VirtualPath:  virtualPath,
		PhysicalPath: physicalPath,
		Pipeline:     pl,
		Options:      p.Options,
	}), nil
}
