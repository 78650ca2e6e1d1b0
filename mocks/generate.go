package mocks

//go:generate mockgen -destination=./mock_loader.go -package=mocks github.com/rxtech-lab/argo-series/pkg/loader Loader
