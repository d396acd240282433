package departure

import "context"

// Service is the request lifecycle boundary. Every transition method takes
// the acting user's id; authorization is resolved inside, against the account
// store and the delegation state, before any write.
type Service interface {
	Create(ctx context.Context, req CreateRequestRequest) (View, error)
	Get(ctx context.Context, actorID, requestID string) (View, error)
	ListMine(ctx context.Context, actorID string, filter Filter) (ListResponse, error)
	// ListDepartmentQueue lists the actor's department queue (HOD or an
	// actively delegated faculty member).
	ListDepartmentQueue(ctx context.Context, actorID string, filter Filter) (ListResponse, error)
	// ListDeanQueue lists HOD-owned requests (dean only).
	ListDeanQueue(ctx context.Context, actorID string, filter Filter) (ListResponse, error)

	Approve(ctx context.Context, actorID, requestID string) (View, error)
	Reject(ctx context.Context, actorID, requestID string, req RejectRequestRequest) (View, error)
	RequestMoreInfo(ctx context.Context, actorID, requestID string, req MoreInfoRequest) (View, error)
	Cancel(ctx context.Context, actorID, requestID string, req CancelRequestRequest) (View, error)
	Edit(ctx context.Context, actorID, requestID string, req EditRequestRequest) (View, error)
}
