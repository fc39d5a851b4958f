package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray subsegments for the Lambda deployment. The Lambda
// runtime opens the facade segment; everything here hangs subsegments and
// annotations off it.
type Tracer struct {
	serviceName string
}

// NewTracer creates a tracer for the given service name.
func NewTracer(serviceName string) *Tracer {
	return &Tracer{serviceName: serviceName}
}

// TraceFunction runs fn inside a subsegment, recording its error.
func (t *Tracer) TraceFunction(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, seg := xray.BeginSubsegment(ctx, t.serviceName+"."+name)
	err := fn(ctx)
	if seg != nil {
		if err != nil {
			_ = seg.AddError(err)
		}
		seg.Close(nil)
	}
	return err
}

// AddAnnotation attaches an indexed annotation to the current segment.
func (t *Tracer) AddAnnotation(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddAnnotation(key, value)
	}
}

// RecordError records an error on the current segment.
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if seg := xray.GetSegment(ctx); seg != nil {
		_ = seg.AddError(err)
	}
}
