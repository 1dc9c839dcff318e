package usecase

import "fmt"

// ErrPersistence indicates an infrastructure/repository failure inside a use case
var ErrPersistence = fmt.Errorf("chat use case persistence error")

// ErrUpload indicates a blob storage failure inside the upload pipeline
var ErrUpload = fmt.Errorf("chat use case upload error")
