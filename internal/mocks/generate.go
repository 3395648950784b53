// Package mocks provides gomock implementations of the ports for unit tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockStorage(ctrl)
//	store.EXPECT().Get(gomock.Any(), "cache_job_1").Return(nil, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=storage_mock.go github.com/idnremote/idnremote-go/internal/ports Storage
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/idnremote/idnremote-go/internal/ports IdentityProvider
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=profile_client_mock.go github.com/idnremote/idnremote-go/internal/ports ProfileClient
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=listing_client_mock.go github.com/idnremote/idnremote-go/internal/ports ListingClient
