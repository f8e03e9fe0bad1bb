package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Page --dir ../usecase --output usecase --outpkg usecasemock --filename page_mock.go
