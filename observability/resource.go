package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Resource describes the process that emits telemetry.
type Resource struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// newResource merges the service attributes onto the SDK default resource.
// The attributes are schemaless so the merge never conflicts with the
// schema URL of resource.Default().
func newResource(r Resource) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", r.ServiceName),
			attribute.String("service.version", r.ServiceVersion),
			attribute.String("deployment.environment", r.Environment),
		),
	)
}
