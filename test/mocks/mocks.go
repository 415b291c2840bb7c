// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `go generate ./test/mocks`.
package mocks

//go:generate mockgen -source=../../internal/core/ports/part_repository.go -destination=part_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/pricing_service.go -destination=pricing_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/replenishment_service.go -destination=replenishment_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/storage.go -destination=storage_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/database.go -destination=database_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/task_queue.go -destination=task_queue_mock.go -package=mocks
