package ephemeron

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/client"
)

// ErrorClient wraps a client.Client to inject errors for a single call kind,
// letting tests simulate a transient API outage without a real apiserver.
type ErrorClient struct {
	client.Client
	GetError    error
	CreateError error
	UpdateError error
	DeleteError error
}

func (e *ErrorClient) Get(ctx context.Context, key client.ObjectKey, obj client.Object, opts ...client.GetOption) error {
	if e.GetError != nil {
		return e.GetError
	}
	return e.Client.Get(ctx, key, obj, opts...)
}

func (e *ErrorClient) Create(ctx context.Context, obj client.Object, opts ...client.CreateOption) error {
	if e.CreateError != nil {
		return e.CreateError
	}
	return e.Client.Create(ctx, obj, opts...)
}

func (e *ErrorClient) Update(ctx context.Context, obj client.Object, opts ...client.UpdateOption) error {
	if e.UpdateError != nil {
		return e.UpdateError
	}
	return e.Client.Update(ctx, obj, opts...)
}

func (e *ErrorClient) Delete(ctx context.Context, obj client.Object, opts ...client.DeleteOption) error {
	if e.DeleteError != nil {
		return e.DeleteError
	}
	return e.Client.Delete(ctx, obj, opts...)
}
