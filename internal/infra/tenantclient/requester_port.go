package tenantclient

import (
	"context"
	"net/url"
)

//go:generate mockgen -source=requester_port.go -destination=../../../test/unit/doubles/infra/tenantclient/requester_port_mock.go -package=tenantclient -mock_names=Requester=MockRequester

// Requester is the port consumed by resource providers and the auth flow.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}
